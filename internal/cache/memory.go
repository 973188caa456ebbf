// Package cache is component D: the Multi-Level Cache — L1 in-memory
// LRU plus L2 gzip-compressed on-disk store. Grounded on the teacher's
// internal/cache/cache.go (flat JSON-backed map[path]hash persisted to
// <repo>/.git/redactylcache.json or <repo>/.redactylcache.json),
// generalized from a single flat map into the two-tier, TTL/size-capped
// store spec.md §4.D requires. The "sidecar metadata file" convention
// for L2 follows the same adjacent-file idea the teacher uses for its
// cached binaries in internal/scanner/gitleaks/binary.go.
package cache

import (
	"sync"
	"time"
)

// entry is one L1 cache record (spec.md §3 "Cache Entry (memory)").
type entry struct {
	key       string
	value     []byte
	byteSize  int64
	createdAt int64 // unix ms
	expiresAt int64 // unix ms, 0 = no expiry
	hitCount  int64
}

// evictionHitWeightMs is the ms-equivalent credit spec.md §3 grants per
// L1 cache hit when computing eviction score: score = created_at -
// hit_count*evictionHitWeightMs. A frequently-hit entry's score is
// pushed far into the future, protecting it from eviction even though
// created_at itself never changes. Kept as the literal spec constant,
// not reinterpreted (see DESIGN.md Open Question Q1).
const evictionHitWeightMs = 1000

// Memory is the L1 tier: a byte-budgeted, score-evicted in-memory cache.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]*entry
	maxBytes  int64
	usedBytes int64
	hits      int64
	misses    int64
}

// NewMemory builds an L1 cache bounded by maxBytes total value size.
func NewMemory(maxBytes int64) *Memory {
	return &Memory{entries: make(map[string]*entry), maxBytes: maxBytes}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// Get returns the cached value for key, or (nil, false) on miss or
// expiry. A hit increments hit_count, which raises the entry's eviction
// score and so its resistance to future eviction.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	if e.expiresAt != 0 && nowMs() >= e.expiresAt {
		m.removeLocked(key)
		m.misses++
		return nil, false
	}
	e.hitCount++
	m.hits++
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

// Set inserts or replaces a value under key with an optional TTL
// (ttlMs == 0 means no expiry). A value larger than maxBytes is never
// inserted (spec.md §4.D). Eviction proceeds lowest-score-first until
// there is room.
func (m *Memory) Set(key string, value []byte, ttlMs int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := int64(len(value))
	if m.maxBytes > 0 && size > m.maxBytes {
		return false
	}

	if old, ok := m.entries[key]; ok {
		m.usedBytes -= old.byteSize
		delete(m.entries, key)
	}

	for m.maxBytes > 0 && m.usedBytes+size > m.maxBytes && len(m.entries) > 0 {
		victim := m.lowestScoreKeyLocked()
		if victim == "" {
			break
		}
		m.removeLocked(victim)
	}

	created := nowMs()
	var expires int64
	if ttlMs > 0 {
		expires = created + ttlMs
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.entries[key] = &entry{
		key:       key,
		value:     buf,
		byteSize:  size,
		createdAt: created,
		expiresAt: expires,
	}
	m.usedBytes += size
	return true
}

// Has reports whether key is present and unexpired, without affecting
// hit/miss stats or hit_count.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return false
	}
	if e.expiresAt != 0 && nowMs() >= e.expiresAt {
		return false
	}
	return true
}

// Delete removes key, if present.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(key)
}

// Clear empties the cache and resets hit/miss counters.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
	m.usedBytes = 0
	m.hits = 0
	m.misses = 0
}

// Sweep removes every expired entry; intended to run on a minute-scale
// ticker per spec.md §4.D.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := nowMs()
	var removed int
	for k, e := range m.entries {
		if e.expiresAt != 0 && now >= e.expiresAt {
			m.removeLocked(k)
			removed++
		}
	}
	return removed
}

// Stats reports hits, misses, and the combined hit rate for L1.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return statsFrom(m.hits, m.misses)
}

func (m *Memory) removeLocked(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	m.usedBytes -= e.byteSize
	delete(m.entries, key)
}

// lowestScoreKeyLocked finds the entry with the lowest eviction score:
// created_at - hit_count*evictionHitWeightMs.
func (m *Memory) lowestScoreKeyLocked() string {
	var bestKey string
	var bestScore int64
	first := true
	for k, e := range m.entries {
		score := e.createdAt - e.hitCount*evictionHitWeightMs
		if first || score < bestScore {
			bestScore = score
			bestKey = k
			first = false
		}
	}
	return bestKey
}

// Stats is the combined hit/miss/hit_rate tuple spec.md §4.D requires
// per tier and combined.
type Stats struct {
	Hits    int64
	Misses  int64
	HitRate float64
}

func statsFrom(hits, misses int64) Stats {
	total := hits + misses
	if total == 0 {
		return Stats{}
	}
	return Stats{Hits: hits, Misses: misses, HitRate: float64(hits) / float64(total)}
}
