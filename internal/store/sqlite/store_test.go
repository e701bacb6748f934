package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestMember creates a minimal member row for foreign keys.
func insertTestMember(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now()
	m := &domain.Member{
		Entity:       domain.Entity{ID: id, CreatedAt: now, UpdatedAt: now},
		Email:        id + "@example.com",
		PasswordHash: "x",
		DisplayName:  id,
		Role:         domain.RoleMember,
		LastLoginAt:  now,
	}
	if err := s.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("insert member %s: %v", id, err)
	}
}

// insertTestItem creates an item row in the given state.
func insertTestItem(t *testing.T, s *Store, id, ownerID string, points int64, state domain.ItemState) {
	t.Helper()
	now := time.Now()
	it := &domain.Item{
		Entity:      domain.Entity{ID: id, CreatedAt: now, UpdatedAt: now},
		OwnerID:     ownerID,
		Title:       "item " + id,
		Condition:   domain.ConditionGood,
		Type:        domain.TypeClothing,
		PointsValue: points,
		State:       state,
	}
	if err := s.CreateItem(context.Background(), it); err != nil {
		t.Fatalf("insert item %s: %v", id, err)
	}
}

// grantPoints appends an EARNED entry for the member.
func grantPoints(t *testing.T, s *Store, entryID, memberID string, amount int64) {
	t.Helper()
	err := s.RecordEntry(context.Background(), &domain.LedgerEntry{
		ID:        entryID,
		MemberID:  memberID,
		Amount:    amount,
		Kind:      domain.EntryEarned,
		Reason:    "test grant",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("grant points: %v", err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{
		"members", "sessions", "items", "swap_requests", "ledger_entries", "admin_actions",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}
