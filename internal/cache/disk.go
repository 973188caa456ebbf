package cache

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
)

// diskMeta is the on-disk sidecar metadata file (spec.md §3 "Cache Entry
// (disk)"), persisted as JSON alongside the (possibly gzipped) payload.
type diskMeta struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	CreatedAt   int64  `json:"created_at"`
	ExpiresAt   int64  `json:"expires_at"`
	Compressed  bool   `json:"compressed_flag"`
	PayloadHash string `json:"payload_hash"`
}

// Disk is the L2 tier: a gzip-on-disk store with TTL and a total-size
// ceiling, keyed by the first 32 hex chars of SHA-256(key).
type Disk struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	hits     int64
	misses   int64
}

// NewDisk opens (creating if absent) a disk cache rooted at dir, capped
// at maxBytes total payload size.
func NewDisk(dir string, maxBytes int64) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir, maxBytes: maxBytes}, nil
}

func (d *Disk) keyHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32]
}

func (d *Disk) paths(key string) (payload, meta string) {
	h := d.keyHash(key)
	return filepath.Join(d.dir, h), filepath.Join(d.dir, h+".meta")
}

// Get loads key from disk, transparently decompressing when the
// compressed_flag is set. Expired entries are deleted on read and
// reported as a miss.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payloadPath, metaPath := d.paths(key)
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		d.misses++
		return nil, false
	}
	var m diskMeta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		d.misses++
		return nil, false
	}
	if m.ExpiresAt != 0 && nowMs() >= m.ExpiresAt {
		os.Remove(payloadPath)
		os.Remove(metaPath)
		d.misses++
		return nil, false
	}
	raw, err := os.ReadFile(payloadPath)
	if err != nil {
		d.misses++
		return nil, false
	}
	if m.Compressed {
		raw, err = gunzip(raw)
		if err != nil {
			d.misses++
			return nil, false
		}
	}
	d.hits++
	return raw, true
}

// Set writes value under key with an optional TTL. The payload is
// gzip-compressed when it's larger than 1024 bytes AND compression
// yields at least a 10% size reduction (spec.md §4.D). After writing,
// total on-disk bytes are enforced against maxBytes by deleting
// oldest-first (by created_at) until usage is at or below 90% of the
// ceiling.
func (d *Disk) Set(key string, value []byte, ttlMs int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	payloadPath, metaPath := d.paths(key)

	payload := value
	compressed := false
	if len(value) > 1024 {
		gz, err := gzipBytes(value)
		if err == nil && len(gz) <= len(value)*9/10 {
			payload = gz
			compressed = true
		}
	}

	sum := sha256.Sum256(value)
	created := nowMs()
	var expires int64
	if ttlMs > 0 {
		expires = created + ttlMs
	}
	m := diskMeta{
		Key:         key,
		Size:        int64(len(payload)),
		CreatedAt:   created,
		ExpiresAt:   expires,
		Compressed:  compressed,
		PayloadHash: hex.EncodeToString(sum[:]),
	}
	metaBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(payloadPath, payload, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(metaPath, metaBytes, 0644); err != nil {
		return err
	}
	d.enforceSizeLocked()
	return nil
}

// Has reports whether key is present and unexpired, without affecting stats.
func (d *Disk) Has(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, metaPath := d.paths(key)
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return false
	}
	var m diskMeta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return false
	}
	return m.ExpiresAt == 0 || nowMs() < m.ExpiresAt
}

// Delete removes key's payload and metadata, if present.
func (d *Disk) Delete(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	payloadPath, metaPath := d.paths(key)
	os.Remove(payloadPath)
	os.Remove(metaPath)
}

// Clear removes every payload/metadata pair under the cache directory.
func (d *Disk) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		os.Remove(filepath.Join(d.dir, e.Name()))
	}
	return nil
}

// Stats reports hits, misses, and hit_rate for L2.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return statsFrom(d.hits, d.misses)
}

// HumanSize renders n using go-humanize, for CLI `cache stats` output.
func HumanSize(n int64) string {
	return humanize.Bytes(uint64(n))
}

type metaFile struct {
	path string
	meta diskMeta
}

// enforceSizeLocked deletes oldest-first (by created_at) until total
// payload bytes are at or below 90% of maxBytes. Called with d.mu held.
func (d *Disk) enforceSizeLocked() {
	if d.maxBytes <= 0 {
		return
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	var metas []metaFile
	var total int64
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ".meta" {
			continue
		}
		mb, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			continue
		}
		var m diskMeta
		if err := json.Unmarshal(mb, &m); err != nil {
			continue
		}
		metas = append(metas, metaFile{path: filepath.Join(d.dir, name), meta: m})
		total += m.Size
	}
	if total <= d.maxBytes {
		return
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].meta.CreatedAt < metas[j].meta.CreatedAt })
	target := d.maxBytes * 9 / 10
	for _, mf := range metas {
		if total <= target {
			break
		}
		hash := mf.path[:len(mf.path)-len(".meta")]
		os.Remove(hash)
		os.Remove(mf.path)
		total -= mf.meta.Size
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
