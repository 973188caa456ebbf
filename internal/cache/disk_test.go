package cache

import (
	"bytes"
	"testing"
)

func TestDiskSetGetRoundTrip(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("small value")
	if err := d.Set("k1", payload, 0); err != nil {
		t.Fatal(err)
	}
	got, ok := d.Get("k1")
	if !ok {
		t.Fatal("expected hit")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}
}

func TestDiskCompressesLargeHighlyCompressibleValues(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	big := bytes.Repeat([]byte("a"), 4096) // >1024 bytes, compresses trivially
	if err := d.Set("k2", big, 0); err != nil {
		t.Fatal(err)
	}
	got, ok := d.Get("k2")
	if !ok || !bytes.Equal(got, big) {
		t.Fatal("expected transparent decompression round trip")
	}
}

func TestDiskHasAndDelete(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	d.Set("k3", []byte("x"), 0)
	if !d.Has("k3") {
		t.Fatal("expected Has to report true")
	}
	d.Delete("k3")
	if d.Has("k3") {
		t.Fatal("expected Has to report false after Delete")
	}
}

func TestDiskSizeEnforcement(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 20)
	if err != nil {
		t.Fatal(err)
	}
	d.Set("a", []byte("0123456789"), 0) // 10 bytes
	d.Set("b", []byte("0123456789"), 0) // 10 bytes, at ceiling
	d.Set("c", []byte("0123456789"), 0) // forces eviction of oldest ("a")

	if d.Has("a") {
		t.Error("expected oldest entry 'a' evicted once ceiling exceeded")
	}
	if !d.Has("c") {
		t.Error("expected newest entry 'c' to survive")
	}
}
