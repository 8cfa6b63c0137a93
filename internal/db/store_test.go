package db

import (
	"context"
	"testing"
	"time"
)

func TestKVPutGetOverwrite(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "tasks:alice"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "tasks:alice", []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "tasks:alice", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, ok, err := store.Get(ctx, "tasks:alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected key to exist")
	}
	if string(value) != `[{"id":"1"}]` {
		t.Fatalf("expected overwritten value, got %s", value)
	}
}

func TestKVStampsUpdatedAt(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	fixed := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	ctx := context.Background()
	if err := store.Put(ctx, "tasks:bob", []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	var updated time.Time
	if err := store.DB.QueryRowContext(ctx, "SELECT updated_at FROM kv WHERE key = ?", "tasks:bob").Scan(&updated); err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	if !updated.Equal(fixed) {
		t.Fatalf("expected updated_at %v, got %v", fixed, updated)
	}
}

func TestKVHealth(t *testing.T) {
	store, cleanup := newTestStore(t)

	if err := store.Health(context.Background()); err != nil {
		t.Fatalf("expected healthy store, got %v", err)
	}

	cleanup()
	if err := store.Health(context.Background()); err == nil {
		t.Fatalf("expected closed store to report unhealthy")
	}
}

func newTestStore(t *testing.T) (*KV, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewKV(db), func() {
		_ = db.Close()
	}
}
