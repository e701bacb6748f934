package cache

import (
	"io"
	"log/slog"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBalanceRoundTrip(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.GetBalance("mem-1"); ok {
		t.Error("expected cache miss")
	}

	c.SetBalance("mem-1", 120)
	balance, ok := c.GetBalance("mem-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if balance != 120 {
		t.Errorf("balance: got %d, want 120", balance)
	}

	c.SetBalance("mem-1", -0)
	if balance, _ := c.GetBalance("mem-1"); balance != 0 {
		t.Errorf("balance: got %d, want 0", balance)
	}
}

func TestInvalidateBalance(t *testing.T) {
	c := newTestCache(t)

	c.SetBalance("mem-1", 50)
	c.InvalidateBalance("mem-1")

	if _, ok := c.GetBalance("mem-1"); ok {
		t.Error("expected cache miss after invalidation")
	}

	// Invalidating an absent key is fine.
	c.InvalidateBalance("mem-unknown")
}

func TestViewCounters(t *testing.T) {
	c := newTestCache(t)

	c.IncView("item-1")
	c.IncView("item-1")
	c.IncView("item-2")

	counts, err := c.DrainViews()
	if err != nil {
		t.Fatalf("DrainViews: %v", err)
	}
	if counts["item-1"] != 2 {
		t.Errorf("item-1: got %d, want 2", counts["item-1"])
	}
	if counts["item-2"] != 1 {
		t.Errorf("item-2: got %d, want 1", counts["item-2"])
	}

	// Drained counters are gone.
	counts, err = c.DrainViews()
	if err != nil {
		t.Fatalf("DrainViews: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected empty drain, got %v", counts)
	}
}
