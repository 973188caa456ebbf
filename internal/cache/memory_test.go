package cache

import "testing"

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(0)
	m.Set("a", []byte("hello"), 0)
	v, ok := m.Get("a")
	if !ok || string(v) != "hello" {
		t.Fatalf("expected to get back hello, got %q ok=%v", v, ok)
	}
}

func TestMemoryMissIncrementsStats(t *testing.T) {
	m := NewMemory(0)
	if _, ok := m.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	s := m.Stats()
	if s.Misses != 1 || s.Hits != 0 {
		t.Fatalf("expected 1 miss 0 hits, got %+v", s)
	}
}

func TestMemoryRejectsOversizedValue(t *testing.T) {
	m := NewMemory(4)
	ok := m.Set("a", []byte("toolong"), 0)
	if ok {
		t.Fatal("expected oversized value to be rejected")
	}
}

func TestMemoryEvictsLowestScoreFirst(t *testing.T) {
	m := NewMemory(10)
	m.Set("a", []byte("12345"), 0) // 5 bytes
	m.Set("b", []byte("12345"), 0) // 5 bytes, now full (10/10)

	// Hit "b" many times so its score rises well above "a"'s.
	for i := 0; i < 5; i++ {
		m.Get("b")
	}

	// Inserting "c" (5 bytes) requires evicting one entry to fit.
	m.Set("c", []byte("67890"), 0)

	if _, ok := m.Get("a"); ok {
		t.Error("expected 'a' (never hit) to be evicted before 'b' (hit repeatedly)")
	}
	if _, ok := m.Get("b"); !ok {
		t.Error("expected 'b' to survive eviction due to its hit count")
	}
}

func TestMemoryNoTTLNeverExpires(t *testing.T) {
	m := NewMemory(0)
	m.Set("a", []byte("x"), 0)
	if !m.Has("a") {
		t.Fatal("expected entry with no TTL to remain present")
	}
}

func TestMemoryTTLSetsExpiry(t *testing.T) {
	m := NewMemory(0)
	m.Set("a", []byte("x"), 60000)
	e := m.entries["a"]
	if e.expiresAt <= e.createdAt {
		t.Fatalf("expected expiresAt (%d) to be after createdAt (%d)", e.expiresAt, e.createdAt)
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	m := NewMemory(0)
	m.Set("a", []byte("x"), 0)
	m.Delete("a")
	if m.Has("a") {
		t.Fatal("expected 'a' removed after Delete")
	}
	m.Set("b", []byte("y"), 0)
	m.Clear()
	if m.Has("b") {
		t.Fatal("expected cache empty after Clear")
	}
}
