package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

func TestCreateAndGetItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")

	now := time.Now()
	it := &domain.Item{
		Entity:      domain.Entity{ID: "item-1", CreatedAt: now, UpdatedAt: now},
		OwnerID:     "mem-1",
		Title:       "Denim jacket",
		Description: "Lightly worn",
		Category:    "outerwear",
		Size:        "M",
		Condition:   domain.ConditionGood,
		Type:        domain.TypeClothing,
		Brand:       "Levi's",
		PointsValue: 40,
		State:       domain.ItemDraft,
		ImageURLs:   []string{"https://img.example.com/1.jpg"},
		Tags:        []string{"denim", "jacket"},
	}

	if err := s.CreateItem(ctx, it); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	got, err := s.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Title != it.Title {
		t.Errorf("Title: got %q", got.Title)
	}
	if got.State != domain.ItemDraft {
		t.Errorf("State: got %q", got.State)
	}
	if got.PointsValue != 40 {
		t.Errorf("PointsValue: got %d", got.PointsValue)
	}
	if len(got.ImageURLs) != 1 || got.ImageURLs[0] != it.ImageURLs[0] {
		t.Errorf("ImageURLs: got %v", got.ImageURLs)
	}
	if len(got.Tags) != 2 {
		t.Errorf("Tags: got %v", got.Tags)
	}
}

func TestListItemsFilterAndPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	for i, id := range []string{"item-a", "item-b", "item-c", "item-d"} {
		now := time.Now().Add(time.Duration(i) * time.Second)
		it := &domain.Item{
			Entity:      domain.Entity{ID: id, CreatedAt: now, UpdatedAt: now},
			OwnerID:     "mem-1",
			Title:       id,
			Condition:   domain.ConditionGood,
			Type:        domain.TypeClothing,
			PointsValue: 10,
			State:       domain.ItemAvailable,
		}
		if err := s.CreateItem(ctx, it); err != nil {
			t.Fatalf("CreateItem %s: %v", id, err)
		}
	}
	insertTestItem(t, s, "item-draft", "mem-1", 10, domain.ItemDraft)

	filter := store.ItemFilter{States: []domain.ItemState{domain.ItemAvailable}}

	page1, err := s.ListItems(ctx, filter, store.PaginationParams{Limit: 3})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(page1.Items) != 3 {
		t.Fatalf("page1: got %d items, want 3", len(page1.Items))
	}
	if !page1.HasMore {
		t.Error("page1: expected HasMore")
	}
	if page1.Total != 4 {
		t.Errorf("Total: got %d, want 4", page1.Total)
	}
	// Newest first.
	if page1.Items[0].ID != "item-d" {
		t.Errorf("first item: got %q, want item-d", page1.Items[0].ID)
	}

	page2, err := s.ListItems(ctx, filter, store.PaginationParams{Limit: 3, Cursor: page1.NextCursor})
	if err != nil {
		t.Fatalf("ListItems page2: %v", err)
	}
	if len(page2.Items) != 1 {
		t.Fatalf("page2: got %d items, want 1", len(page2.Items))
	}
	if page2.HasMore {
		t.Error("page2: expected no more pages")
	}
	if page2.Items[0].ID != "item-a" {
		t.Errorf("page2 item: got %q, want item-a", page2.Items[0].ID)
	}
}

func TestReserveItemCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemAvailable)

	if err := s.ReserveItem(ctx, "item-1"); err != nil {
		t.Fatalf("ReserveItem: %v", err)
	}

	got, err := s.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.State != domain.ItemReserved {
		t.Errorf("State: got %q, want RESERVED", got.State)
	}

	// Second reservation loses.
	if err := s.ReserveItem(ctx, "item-1"); !errors.Is(err, store.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
}

func TestReserveItemConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemAvailable)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ReserveItem(ctx, "item-1")
		}()
	}
	wg.Wait()
	close(results)

	// Exactly one reservation must win.
	won := 0
	for err := range results {
		if err == nil {
			won++
		} else if !errors.Is(err, store.ErrStateConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("winners: got %d, want 1", won)
	}
}

func TestReleaseItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemReserved)

	if err := s.ReleaseItem(ctx, "item-1"); err != nil {
		t.Fatalf("ReleaseItem: %v", err)
	}

	got, _ := s.GetItem(ctx, "item-1")
	if got.State != domain.ItemAvailable {
		t.Errorf("State: got %q, want AVAILABLE", got.State)
	}

	// Releasing an unreserved item is a conflict.
	if err := s.ReleaseItem(ctx, "item-1"); !errors.Is(err, store.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
}

func TestUpdateItemStateGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemAvailable)

	stale, err := s.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}

	// The item moves on while the stale copy is held.
	if err := s.ReserveItem(ctx, "item-1"); err != nil {
		t.Fatalf("ReserveItem: %v", err)
	}

	stale.State = domain.ItemFlagged
	stale.ModerationReason = "stale decision"
	if err := s.UpdateItem(ctx, stale, domain.ItemAvailable); !errors.Is(err, store.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	// The concurrent transition survives untouched.
	got, err := s.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.State != domain.ItemReserved {
		t.Errorf("State: got %q, want RESERVED", got.State)
	}
	if got.ModerationReason != "" {
		t.Errorf("ModerationReason: got %q, want empty", got.ModerationReason)
	}

	// A matching prior state lands normally.
	got.State = domain.ItemAvailable
	if err := s.UpdateItem(ctx, got, domain.ItemReserved); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	// An unknown item is still not found, not a conflict.
	missing := *got
	missing.ID = "item-missing"
	if err := s.UpdateItem(ctx, &missing, domain.ItemAvailable); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFinalizeItemReassignsOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestMember(t, s, "mem-2")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemReserved)

	if err := s.FinalizeItem(ctx, "item-1", "mem-2"); err != nil {
		t.Fatalf("FinalizeItem: %v", err)
	}

	got, _ := s.GetItem(ctx, "item-1")
	if got.State != domain.ItemSwapped {
		t.Errorf("State: got %q, want SWAPPED", got.State)
	}
	if got.OwnerID != "mem-2" {
		t.Errorf("OwnerID: got %q, want mem-2", got.OwnerID)
	}
}

func TestAddViewCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemAvailable)

	err := s.AddViewCounts(ctx, map[string]int64{
		"item-1":  5,
		"missing": 3, // silently skipped
	})
	if err != nil {
		t.Fatalf("AddViewCounts: %v", err)
	}

	got, _ := s.GetItem(ctx, "item-1")
	if got.ViewCount != 5 {
		t.Errorf("ViewCount: got %d, want 5", got.ViewCount)
	}

	if err := s.AddViewCounts(ctx, map[string]int64{"item-1": 2}); err != nil {
		t.Fatalf("AddViewCounts again: %v", err)
	}
	got, _ = s.GetItem(ctx, "item-1")
	if got.ViewCount != 7 {
		t.Errorf("ViewCount: got %d, want 7", got.ViewCount)
	}
}

func TestCountItemsByState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestMember(t, s, "mem-1")
	insertTestItem(t, s, "item-1", "mem-1", 10, domain.ItemAvailable)
	insertTestItem(t, s, "item-2", "mem-1", 10, domain.ItemAvailable)
	insertTestItem(t, s, "item-3", "mem-1", 10, domain.ItemPendingReview)

	counts, err := s.CountItemsByState(ctx)
	if err != nil {
		t.Fatalf("CountItemsByState: %v", err)
	}
	if counts[domain.ItemAvailable] != 2 {
		t.Errorf("AVAILABLE: got %d, want 2", counts[domain.ItemAvailable])
	}
	if counts[domain.ItemPendingReview] != 1 {
		t.Errorf("PENDING_REVIEW: got %d, want 1", counts[domain.ItemPendingReview])
	}
}
