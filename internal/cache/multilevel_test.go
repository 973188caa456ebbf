package cache

import "testing"

func newTestMultiLevel(t *testing.T) *MultiLevel {
	t.Helper()
	l1 := NewMemory(1 << 20)
	l2, err := NewDisk(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	return New(l1, l2)
}

func TestMultiLevelSetThenGetHitsL1(t *testing.T) {
	c := newTestMultiLevel(t)
	c.Set("k", []byte("v"), 0)
	v, ok := c.Get("k")
	if !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q ok=%v", v, ok)
	}
	if c.L1.Stats().Hits != 1 {
		t.Fatal("expected L1 to record the hit")
	}
}

func TestMultiLevelPromotesFromL2OnL1Miss(t *testing.T) {
	c := newTestMultiLevel(t)
	c.L2.Set("k", []byte("v"), 0) // bypass L1 entirely
	v, ok := c.Get("k")
	if !ok || string(v) != "v" {
		t.Fatal("expected L2 hit to surface through Get")
	}
	if !c.L1.Has("k") {
		t.Fatal("expected value promoted into L1 after L2 hit")
	}
}

func TestMultiLevelGetOrCompute(t *testing.T) {
	c := newTestMultiLevel(t)
	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}
	v1, err := c.GetOrCompute("k", 0, compute)
	if err != nil || string(v1) != "computed" {
		t.Fatalf("unexpected result: %q err=%v", v1, err)
	}
	v2, err := c.GetOrCompute("k", 0, compute)
	if err != nil || string(v2) != "computed" {
		t.Fatalf("unexpected cached result: %q err=%v", v2, err)
	}
	if calls != 1 {
		t.Fatalf("expected compute called once, got %d", calls)
	}
}

func TestMultiLevelDeleteRemovesFromBothTiers(t *testing.T) {
	c := newTestMultiLevel(t)
	c.Set("k", []byte("v"), 0)
	c.Delete("k")
	if c.Has("k") {
		t.Fatal("expected key absent from both tiers after Delete")
	}
}
