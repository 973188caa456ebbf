package cache

// MultiLevel wires the L1 memory and L2 disk tiers into the single
// get/get_or_compute/set/has/delete/clear/stats surface spec.md §4.D
// names. A third "shared" tier is a documented no-op extension point:
// Shared is nil by default and every method treats a nil Shared as
// absent, matching spec.md's "documented no-op extension point" wording.
type MultiLevel struct {
	L1 *Memory
	L2 *Disk

	// Shared is the extension point for a future out-of-process tier
	// (e.g. Redis). VibeCheck ships no implementation; nil is a valid,
	// fully-supported value meaning "no shared tier configured".
	Shared SharedTier

	PromoteOnAccess bool
	WriteThrough    bool
}

// SharedTier is the interface a future third cache tier would implement.
// No built-in type satisfies it today.
type SharedTier interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttlMs int64) error
}

// New builds a MultiLevel cache over the given L1/L2 tiers.
func New(l1 *Memory, l2 *Disk) *MultiLevel {
	return &MultiLevel{L1: l1, L2: l2, PromoteOnAccess: true, WriteThrough: true}
}

// Get consults L1 first; on an L1 miss with an L2 hit, the value is
// re-promoted into L1 when PromoteOnAccess is enabled.
func (m *MultiLevel) Get(key string) ([]byte, bool) {
	if v, ok := m.L1.Get(key); ok {
		return v, true
	}
	if m.L2 != nil {
		if v, ok := m.L2.Get(key); ok {
			if m.PromoteOnAccess {
				m.L1.Set(key, v, 0)
			}
			return v, true
		}
	}
	if m.Shared != nil {
		if v, ok := m.Shared.Get(key); ok {
			if m.PromoteOnAccess {
				m.L1.Set(key, v, 0)
			}
			return v, true
		}
	}
	return nil, false
}

// Set writes to L1 always, and to L2 when WriteThrough is enabled.
func (m *MultiLevel) Set(key string, value []byte, ttlMs int64) {
	m.L1.Set(key, value, ttlMs)
	if m.WriteThrough && m.L2 != nil {
		m.L2.Set(key, value, ttlMs)
	}
}

// Has reports presence in either tier without affecting stats.
func (m *MultiLevel) Has(key string) bool {
	if m.L1.Has(key) {
		return true
	}
	return m.L2 != nil && m.L2.Has(key)
}

// Delete removes key from every tier.
func (m *MultiLevel) Delete(key string) {
	m.L1.Delete(key)
	if m.L2 != nil {
		m.L2.Delete(key)
	}
}

// Clear empties every tier.
func (m *MultiLevel) Clear() error {
	m.L1.Clear()
	if m.L2 != nil {
		return m.L2.Clear()
	}
	return nil
}

// Compute is the type of the fallback function get_or_compute calls on
// a full miss.
type Compute func() ([]byte, error)

// GetOrCompute returns the cached value for key, computing and storing
// it via compute on a miss across every tier.
func (m *MultiLevel) GetOrCompute(key string, ttlMs int64, compute Compute) ([]byte, error) {
	if v, ok := m.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	m.Set(key, v, ttlMs)
	return v, nil
}

// CombinedStats is the per-tier plus combined hit-rate report spec.md
// §4.D requires from `stats`.
type CombinedStats struct {
	L1       Stats
	L2       Stats
	Combined Stats
}

// Stats reports hit/miss/hit_rate per tier plus a combined figure.
func (m *MultiLevel) Stats() CombinedStats {
	l1 := m.L1.Stats()
	var l2 Stats
	if m.L2 != nil {
		l2 = m.L2.Stats()
	}
	return CombinedStats{
		L1:       l1,
		L2:       l2,
		Combined: statsFrom(l1.Hits+l2.Hits, l1.Misses+l2.Misses),
	}
}
