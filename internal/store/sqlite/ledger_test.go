package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

func TestRecordEntryAndBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")

	// Empty ledger folds to zero.
	balance, err := s.GetBalance(ctx, "mem-1")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 0 {
		t.Errorf("empty balance: got %d, want 0", balance)
	}

	grantPoints(t, s, "led-1", "mem-1", 100)

	err = s.RecordEntry(ctx, &domain.LedgerEntry{
		ID:        "led-2",
		MemberID:  "mem-1",
		Amount:    -30,
		Kind:      domain.EntrySpent,
		Reason:    "redemption",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordEntry debit: %v", err)
	}

	balance, err = s.GetBalance(ctx, "mem-1")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 70 {
		t.Errorf("balance: got %d, want 70", balance)
	}
}

func TestRecordEntryRefusesOverdraft(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	grantPoints(t, s, "led-1", "mem-1", 20)

	err := s.RecordEntry(ctx, &domain.LedgerEntry{
		ID:        "led-2",
		MemberID:  "mem-1",
		Amount:    -21,
		Kind:      domain.EntrySpent,
		Reason:    "too much",
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The refused entry must not exist.
	balance, _ := s.GetBalance(ctx, "mem-1")
	if balance != 20 {
		t.Errorf("balance after refusal: got %d, want 20", balance)
	}

	// Spending the exact balance is allowed (balance may reach zero).
	err = s.RecordEntry(ctx, &domain.LedgerEntry{
		ID:        "led-3",
		MemberID:  "mem-1",
		Amount:    -20,
		Kind:      domain.EntrySpent,
		Reason:    "exact",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("exact spend: %v", err)
	}
	balance, _ = s.GetBalance(ctx, "mem-1")
	if balance != 0 {
		t.Errorf("balance: got %d, want 0", balance)
	}
}

func TestRecordEntryRejectsInconsistentKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")

	err := s.RecordEntry(ctx, &domain.LedgerEntry{
		ID:        "led-1",
		MemberID:  "mem-1",
		Amount:    -10,
		Kind:      domain.EntryEarned, // wrong sign
		Reason:    "bad",
		CreatedAt: time.Now(),
	})
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestListEntriesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := s.RecordEntry(ctx, &domain.LedgerEntry{
			ID:        fmt.Sprintf("led-%d", i),
			MemberID:  "mem-1",
			Amount:    10,
			Kind:      domain.EntryEarned,
			Reason:    "grant",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordEntry %d: %v", i, err)
		}
	}

	page1, err := s.ListEntries(ctx, "mem-1", store.EntryFilter{}, store.PaginationParams{Limit: 3})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(page1.Items) != 3 {
		t.Fatalf("page1: got %d, want 3", len(page1.Items))
	}
	if page1.Items[0].ID != "led-4" {
		t.Errorf("first entry: got %q, want led-4", page1.Items[0].ID)
	}
	if !page1.HasMore {
		t.Error("expected HasMore")
	}

	page2, err := s.ListEntries(ctx, "mem-1", store.EntryFilter{}, store.PaginationParams{Limit: 3, Cursor: page1.NextCursor})
	if err != nil {
		t.Fatalf("ListEntries page2: %v", err)
	}
	if len(page2.Items) != 2 {
		t.Fatalf("page2: got %d, want 2", len(page2.Items))
	}
	if page2.Items[1].ID != "led-0" {
		t.Errorf("last entry: got %q, want led-0", page2.Items[1].ID)
	}
}

func TestListEntriesKindFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")

	entries := []struct {
		id     string
		amount int64
		kind   domain.EntryKind
	}{
		{"led-1", 50, domain.EntryEarned},
		{"led-2", -20, domain.EntrySpent},
		{"led-3", 10, domain.EntryEarned},
	}
	for _, e := range entries {
		err := s.RecordEntry(ctx, &domain.LedgerEntry{
			ID:        e.id,
			MemberID:  "mem-1",
			Amount:    e.amount,
			Kind:      e.kind,
			Reason:    "test",
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("RecordEntry %s: %v", e.id, err)
		}
	}

	earned, err := s.ListEntries(ctx, "mem-1", store.EntryFilter{Kind: domain.EntryEarned}, store.DefaultPaginationParams())
	if err != nil {
		t.Fatalf("ListEntries earned: %v", err)
	}
	if len(earned.Items) != 2 {
		t.Fatalf("earned: got %d, want 2", len(earned.Items))
	}

	spent, err := s.ListEntries(ctx, "mem-1", store.EntryFilter{Kind: domain.EntrySpent}, store.DefaultPaginationParams())
	if err != nil {
		t.Fatalf("ListEntries spent: %v", err)
	}
	if len(spent.Items) != 1 {
		t.Fatalf("spent: got %d, want 1", len(spent.Items))
	}
	if spent.Items[0].ID != "led-2" {
		t.Errorf("spent entry: got %q, want led-2", spent.Items[0].ID)
	}
}
