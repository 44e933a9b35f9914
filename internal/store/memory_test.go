package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/namurok/dialogue-engine/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemory(time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("abc", "지민", "콩쥐팥쥐", time.Now())
	sess.RecordMoment(domain.StageEmotionLabeling, 1, "슬퍼 보여")

	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != sess.ID || got.ChildName != sess.ChildName {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if len(got.KeyMoments) != 1 || got.KeyMoments[0].Content != "슬퍼 보여" {
		t.Fatalf("key moments lost: %+v", got.KeyMoments)
	}

	// Mutating the returned copy must not leak into the store.
	got.ChildName = "다른이름"
	again, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get after mutation: %v", err)
	}
	if again.ChildName != "지민" {
		t.Fatalf("stored session mutated through returned copy: %q", again.ChildName)
	}
}

func TestMemoryStoreMissingSession(t *testing.T) {
	s := NewMemory(time.Minute)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemory(time.Minute)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	sess := domain.NewSession("ttl", "지민", "콩쥐팥쥐", base)
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Still alive just before the deadline.
	s.now = func() time.Time { return base.Add(59 * time.Second) }
	if _, err := s.Get(ctx, "ttl"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// Save refreshes the TTL.
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("refresh Save: %v", err)
	}
	s.now = func() time.Time { return base.Add(110 * time.Second) }
	if _, err := s.Get(ctx, "ttl"); err != nil {
		t.Fatalf("Get after refresh: %v", err)
	}

	s.now = func() time.Time { return base.Add(3 * time.Minute) }
	if _, err := s.Get(ctx, "ttl"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	s := NewMemory(time.Minute)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	for _, id := range []string{"a", "b", "c"} {
		sess := domain.NewSession(id, "지민", "콩쥐팥쥐", base)
		if err := s.Save(ctx, sess); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	// Refresh one entry past the sweep point.
	s.now = func() time.Time { return base.Add(50 * time.Second) }
	sess := domain.NewSession("c", "지민", "콩쥐팥쥐", base)
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("refresh Save: %v", err)
	}

	s.now = func() time.Time { return base.Add(90 * time.Second) }
	if purged := s.PurgeExpired(); purged != 2 {
		t.Fatalf("expected 2 purged, got %d", purged)
	}
	if _, err := s.Get(ctx, "c"); err != nil {
		t.Fatalf("refreshed session should survive purge: %v", err)
	}
	if purged := s.PurgeExpired(); purged != 0 {
		t.Fatalf("second purge should be empty, got %d", purged)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemory(time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("del", "지민", "콩쥐팥쥐", time.Now())
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "del"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	// Deleting again is a no-op.
	if err := s.Delete(ctx, "del"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}
