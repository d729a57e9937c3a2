package memory

import (
	"context"
	"testing"
	"time"

	"quiz-funnel/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, ok, _ := store.Load(ctx, "v1"); ok {
		t.Fatalf("expected no session yet")
	}

	p := domain.NewProgress("v1", "funnel-1", time.Now())
	p.Answers[1] = "a"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	p.Answers[1] = "b"

	got, ok, err := store.Load(ctx, "v1")
	if err != nil || !ok {
		t.Fatalf("expected session present, ok=%v err=%v", ok, err)
	}
	if got.Answers[1] != "a" {
		t.Fatalf("expected stored answer a, got %q", got.Answers[1])
	}

	_ = store.Delete(ctx, "v1")
	if _, ok, _ := store.Load(ctx, "v1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	stale := domain.NewProgress("old", "f", now.Add(-2*time.Hour))
	fresh := domain.NewProgress("new", "f", now.Add(-time.Minute))
	_ = store.Save(ctx, stale)
	_ = store.Save(ctx, fresh)

	if removed := store.Sweep(time.Hour); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session left, got %d", store.Len())
	}
	if _, ok, _ := store.Load(ctx, "new"); !ok {
		t.Fatalf("expected fresh session kept")
	}
}
