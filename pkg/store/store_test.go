package store

import (
	"testing"
)

// openTestDB opens a fresh pebble store in a temp dir and closes it when
// the test ends.
func openTestDB(t *testing.T) {
	t.Helper()
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		if err := Close(); err != nil {
			t.Fatalf("store.Close: %v", err)
		}
	})
}

func TestReadyReflectsOpenState(t *testing.T) {
	if Ready() {
		t.Fatalf("expected store not ready before Open")
	}
	openTestDB(t)
	if !Ready() {
		t.Fatalf("expected store ready after Open")
	}
}

func TestGetRawNotFound(t *testing.T) {
	openTestDB(t)
	if _, err := getRaw("nope:missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanPrefixStopsAtPrefixEnd(t *testing.T) {
	openTestDB(t)
	for _, k := range []string{"a:1", "a:2", "b:1"} {
		if err := setRaw(k, []byte("v")); err != nil {
			t.Fatalf("setRaw %s: %v", k, err)
		}
	}
	var seen []string
	err := scanPrefix("a:", func(k string, _ []byte) bool {
		seen = append(seen, k)
		return true
	})
	if err != nil {
		t.Fatalf("scanPrefix: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a:1" || seen[1] != "a:2" {
		t.Fatalf("unexpected keys: %v", seen)
	}
}
