package badger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/marketgate/internal/common"
)

// --- Test helpers ---

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	logger := common.NewLogger("error")
	store, err := NewStore(logger, filepath.Join(dir, "badger"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testLogger() *common.Logger {
	return common.NewLogger("error")
}

// --- Store tests ---

func TestStore_OpenClose(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	store, err := NewStore(logger, filepath.Join(dir, "badger"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store.DB() == nil {
		t.Fatal("expected non-nil DB")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{}
	if err := store.Close(); err != nil {
		t.Fatalf("Close on nil DB should not error: %v", err)
	}
}

// --- Cache storage tests ---

func TestCacheStorage_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	cache := NewCacheStorage(store, testLogger())
	ctx := context.Background()

	payload := []byte(`{"symbol":"7203","bars":[{"close":2501.5}]}`)
	if err := cache.Set(ctx, "k1", payload, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := cache.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q, want %q", got, payload)
	}
}

func TestCacheStorage_MissOnAbsentKey(t *testing.T) {
	store := newTestStore(t)
	cache := NewCacheStorage(store, testLogger())

	if _, ok := cache.Get(context.Background(), "nothing-here"); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestCacheStorage_ExpiryEvictsOnAccess(t *testing.T) {
	store := newTestStore(t)
	cache := NewCacheStorage(store, testLogger())
	ctx := context.Background()

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if err := cache.Set(ctx, "k1", []byte("fresh"), 10*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Still fresh at exactly the TTL boundary.
	cache.clock = func() time.Time { return now.Add(10 * time.Minute) }
	if _, ok := cache.Get(ctx, "k1"); !ok {
		t.Fatal("entry at TTL boundary should still be fresh")
	}

	// Strictly past the TTL the entry is gone and gets evicted.
	cache.clock = func() time.Time { return now.Add(10*time.Minute + time.Second) }
	if _, ok := cache.Get(ctx, "k1"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}

	// The evicted entry is absent even with the clock rolled back.
	cache.clock = func() time.Time { return now }
	if _, ok := cache.Get(ctx, "k1"); ok {
		t.Fatal("expired entry should have been deleted on access")
	}
}

func TestCacheStorage_OverwriteReplacesEntry(t *testing.T) {
	store := newTestStore(t)
	cache := NewCacheStorage(store, testLogger())
	ctx := context.Background()

	if err := cache.Set(ctx, "k1", []byte("old"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set(ctx, "k1", []byte("new"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := cache.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "new" {
		t.Fatalf("expected overwritten payload, got %q", got)
	}
}

func TestCacheStorage_ZeroTTLNeverExpires(t *testing.T) {
	store := newTestStore(t)
	cache := NewCacheStorage(store, testLogger())
	ctx := context.Background()

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if err := cache.Set(ctx, "k1", []byte("pinned"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cache.clock = func() time.Time { return now.Add(1000 * time.Hour) }
	if _, ok := cache.Get(ctx, "k1"); !ok {
		t.Fatal("zero TTL entry should never expire")
	}
}

func TestCacheStorage_InvalidateExpired(t *testing.T) {
	store := newTestStore(t)
	cache := NewCacheStorage(store, testLogger())
	ctx := context.Background()

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if err := cache.Set(ctx, "stale-1", []byte("a"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set(ctx, "stale-2", []byte("b"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Set(ctx, "fresh", []byte("c"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cache.clock = func() time.Time { return now.Add(5 * time.Minute) }
	removed, err := cache.InvalidateExpired(ctx)
	if err != nil {
		t.Fatalf("InvalidateExpired failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if _, ok := cache.Get(ctx, "fresh"); !ok {
		t.Fatal("fresh entry should survive invalidation")
	}
	if _, ok := cache.Get(ctx, "stale-1"); ok {
		t.Fatal("stale entry should be gone")
	}
}
