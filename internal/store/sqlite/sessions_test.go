package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

func insertTestSession(t *testing.T, s *Store, id, memberID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	now := time.Now()
	sess := &domain.Session{
		Entity:           domain.Entity{ID: id, CreatedAt: now, UpdatedAt: now},
		MemberID:         memberID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        expiresAt,
		LastUsedAt:       now,
	}
	if err := s.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("insert session %s: %v", id, err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestSession(t, s, "sess-1", "mem-1", "hash-1", time.Now().Add(time.Hour))

	got, err := s.GetSessionByRefreshToken(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetSessionByRefreshToken: %v", err)
	}
	if got.ID != "sess-1" || got.MemberID != "mem-1" {
		t.Errorf("session: got %+v", got)
	}

	// Rotate the refresh token.
	got.RefreshTokenHash = "hash-2"
	got.Touch()
	if err := s.UpdateSession(ctx, got); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if _, err := s.GetSessionByRefreshToken(ctx, "hash-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old hash should be gone, got %v", err)
	}

	if err := s.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestSession(t, s, "sess-live", "mem-1", "hash-live", time.Now().Add(time.Hour))
	insertTestSession(t, s, "sess-dead", "mem-1", "hash-dead", time.Now().Add(-time.Hour))

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted: got %d, want 1", n)
	}

	if _, err := s.GetSession(ctx, "sess-live"); err != nil {
		t.Errorf("live session should remain: %v", err)
	}
}

func TestDeleteAllMemberSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestMember(t, s, "mem-2")
	insertTestSession(t, s, "sess-1", "mem-1", "hash-1", time.Now().Add(time.Hour))
	insertTestSession(t, s, "sess-2", "mem-1", "hash-2", time.Now().Add(time.Hour))
	insertTestSession(t, s, "sess-3", "mem-2", "hash-3", time.Now().Add(time.Hour))

	if err := s.DeleteAllMemberSessions(ctx, "mem-1"); err != nil {
		t.Fatalf("DeleteAllMemberSessions: %v", err)
	}

	if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("sess-1 should be gone, got %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-3"); err != nil {
		t.Errorf("sess-3 should remain: %v", err)
	}
}
