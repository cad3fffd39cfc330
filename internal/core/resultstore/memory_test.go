package resultstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestEntry(mode string) *Entry {
	return &Entry{
		Mode:      mode,
		Width:     3,
		Height:    2,
		Original:  []byte("original"),
		Sketch:    []byte("sketch"),
		CreatedAt: time.Unix(1700000000, 0),
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	if err := store.Put(ctx, "a", newTestEntry("pencil"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Mode != "pencil" || string(got.Sketch) != "sketch" {
		t.Errorf("Unexpected entry %+v", got)
	}
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := NewMemoryStore(0)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	store := NewMemoryStore(0)
	store.now = func() time.Time { return now }

	if err := store.Put(ctx, "a", newTestEntry("pencil"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("Expected entry before TTL, got %v", err)
	}

	now = now.Add(time.Second)
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after TTL, got %v", err)
	}
	if store.size() != 0 {
		t.Errorf("Expected expired entry to be dropped, have %d", store.size())
	}
}

func TestMemoryStore_PutSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	store := NewMemoryStore(0)
	store.now = func() time.Time { return now }

	_ = store.Put(ctx, "old", newTestEntry("pencil"), time.Second)
	now = now.Add(time.Minute)
	_ = store.Put(ctx, "new", newTestEntry("pencil"), time.Second)

	if store.size() != 1 {
		t.Errorf("Expected 1 entry after sweep, have %d", store.size())
	}
}

func TestMemoryStore_NoTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	store := NewMemoryStore(0)
	store.now = func() time.Time { return now }

	_ = store.Put(ctx, "a", newTestEntry("pencil"), 0)
	now = now.Add(24 * time.Hour)
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Errorf("Expected entry without TTL to stay, got %v", err)
	}
}

func TestMemoryStore_MaxEntriesEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, id, newTestEntry("pencil"), time.Hour); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}

	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected oldest entry to be evicted, got %v", err)
	}
	for _, id := range []string{"b", "c"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Errorf("Expected %s to be kept, got %v", id, err)
		}
	}
}

func TestMemoryStore_OverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)

	_ = store.Put(ctx, "a", newTestEntry("pencil"), time.Hour)
	_ = store.Put(ctx, "b", newTestEntry("pencil"), time.Hour)
	_ = store.Put(ctx, "b", newTestEntry("blackwhite"), time.Hour)

	if store.size() != 2 {
		t.Fatalf("Expected 2 entries, have %d", store.size())
	}
	got, err := store.Get(ctx, "b")
	if err != nil || got.Mode != "blackwhite" {
		t.Errorf("Expected overwritten entry, got %+v (%v)", got, err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	_ = store.Put(ctx, "a", newTestEntry("pencil"), time.Hour)
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
