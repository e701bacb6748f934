package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against a temporary sqlite store. The cache is
// left nil; balance reads then always fold the ledger.
type testEnv struct {
	store      *sqlite.Store
	ledger     *LedgerService
	registry   *RegistryService
	swaps      *SwapService
	moderation *ModerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.New(slog.DiscardHandler)
	ledger := NewLedgerService(s, nil, logger)
	locks := NewEntityLocks()

	return &testEnv{
		store:      s,
		ledger:     ledger,
		registry:   NewRegistryService(s, nil, logger),
		swaps:      NewSwapService(s, ledger, locks, logger, 24*time.Hour),
		moderation: NewModerationService(s, locks, logger),
	}
}

// createTestMember registers a member directly in the store.
func createTestMember(t *testing.T, env *testEnv, email string, role domain.Role) *domain.Member {
	t.Helper()

	memberID, err := id.Generate("mem")
	require.NoError(t, err)

	member := &domain.Member{
		Entity:       domain.Entity{ID: memberID},
		Email:        email,
		PasswordHash: "unused",
		DisplayName:  "Test Member",
		Role:         role,
	}
	member.InitTimestamps()
	require.NoError(t, env.store.CreateMember(context.Background(), member))
	return member
}

// createTestItem inserts an item in the given state, bypassing review.
func createTestItem(t *testing.T, env *testEnv, ownerID string, points int64, state domain.ItemState) *domain.Item {
	t.Helper()

	itemID, err := id.Generate("item")
	require.NoError(t, err)

	item := &domain.Item{
		Entity:      domain.Entity{ID: itemID},
		OwnerID:     ownerID,
		Title:       "Test Item",
		Category:    "tops",
		Size:        "M",
		Condition:   domain.ConditionGood,
		Type:        domain.TypeClothing,
		PointsValue: points,
		State:       state,
	}
	item.InitTimestamps()
	require.NoError(t, env.store.CreateItem(context.Background(), item))
	return item
}

// grantPoints credits the member through the ledger service.
func grantPoints(t *testing.T, env *testEnv, memberID string, amount int64) {
	t.Helper()
	_, err := env.ledger.Credit(context.Background(), memberID, amount, "test grant")
	require.NoError(t, err)
}

// balance folds the member's ledger.
func balance(t *testing.T, env *testEnv, memberID string) int64 {
	t.Helper()
	b, err := env.ledger.Balance(context.Background(), memberID)
	require.NoError(t, err)
	return b
}

// itemState re-reads an item's current state from the store.
func itemState(t *testing.T, env *testEnv, itemID string) domain.ItemState {
	t.Helper()
	item, err := env.store.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	return item.State
}
