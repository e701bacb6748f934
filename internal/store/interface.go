// Package store defines the persistence interface for the ReWear server.
package store

import (
	"context"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
)

// ItemSort selects the browse ordering. All orders are descending with ID
// as tie-breaker so cursors stay stable.
type ItemSort string

// Browse sort orders.
const (
	SortNewest ItemSort = "newest"
	SortPoints ItemSort = "points"
	SortViews  ItemSort = "views"
)

// EntryFilter narrows a ledger history listing.
type EntryFilter struct {
	// Kind restricts to EARNED or SPENT entries. Empty means both.
	Kind domain.EntryKind
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	States    []domain.ItemState
	OwnerID   string
	Category  string
	Type      domain.ItemType
	Condition domain.Condition
	Featured  *bool
	// Search matches title and brand, case-insensitive substring.
	Search string
	Sort   ItemSort
}

// SettlementInput carries everything SettleSwap needs to commit an accepted
// swap in one transaction.
type SettlementInput struct {
	Swap          *domain.SwapRequest
	InitiatorItem *domain.Item
	RecipientItem *domain.Item
	// Reasons recorded on the ledger entries, e.g. "swap settlement".
	Reason string
}

// RedemptionInput carries everything RedeemItem needs to commit a point
// redemption in one transaction.
type RedemptionInput struct {
	Item     *domain.Item
	MemberID string
	Reason   string
}

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Members
	CreateMember(ctx context.Context, member *domain.Member) error
	GetMember(ctx context.Context, id string) (*domain.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*domain.Member, error)
	UpdateMember(ctx context.Context, member *domain.Member) error
	DeleteMember(ctx context.Context, id string) error
	ListMembers(ctx context.Context) ([]*domain.Member, error)
	CountMembers(ctx context.Context) (int, error)

	// Auth Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteAllMemberSessions(ctx context.Context, memberID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Items. UpdateItem is an optimistic full-row write: it lands only if
	// the row's state still equals fromState, returning ErrStateConflict
	// otherwise, so a stale read can never overwrite a concurrent
	// settlement's handover.
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item, fromState domain.ItemState) error
	ListItems(ctx context.Context, filter ItemFilter, params PaginationParams) (*PaginatedResult[*domain.Item], error)
	CountItemsByState(ctx context.Context) (map[domain.ItemState]int, error)
	AddViewCounts(ctx context.Context, counts map[string]int64) error

	// Item state transitions with compare-and-set semantics. Each returns
	// ErrStateConflict when the row is not in the expected source state.
	// ReleaseItem is the inverse of ReserveItem for callers that reserve
	// outside a settlement transaction; settlement itself reserves and
	// finalizes inside one transaction, releasing via rollback.
	ReserveItem(ctx context.Context, id string) error
	ReleaseItem(ctx context.Context, id string) error
	FinalizeItem(ctx context.Context, id, newOwnerID string) error

	// Swaps
	CreateSwap(ctx context.Context, swap *domain.SwapRequest) error
	GetSwap(ctx context.Context, id string) (*domain.SwapRequest, error)
	UpdateSwap(ctx context.Context, swap *domain.SwapRequest) error
	ListMemberSwaps(ctx context.Context, memberID string, params PaginationParams) (*PaginatedResult[*domain.SwapRequest], error)
	ListActiveSwapsForItem(ctx context.Context, itemID string) ([]*domain.SwapRequest, error)
	ListExpiredPendingSwaps(ctx context.Context, before time.Time) ([]*domain.SwapRequest, error)
	CountSwapsByState(ctx context.Context) (map[domain.SwapState]int, error)

	// Settlement commits all writes of an accepted swap atomically:
	// both item handovers, both (or one) ledger entries, and the swap's
	// COMPLETED transition. Typed failures: ErrStateConflict when either
	// item lost its reservation path, ErrInsufficientBalance when the
	// debtor cannot cover the differential.
	SettleSwap(ctx context.Context, in SettlementInput) error

	// RedeemItem commits a direct point redemption atomically: the item
	// handover and the redeemer's SPENT entry.
	RedeemItem(ctx context.Context, in RedemptionInput) error

	// Ledger
	RecordEntry(ctx context.Context, entry *domain.LedgerEntry) error
	GetBalance(ctx context.Context, memberID string) (int64, error)
	ListEntries(ctx context.Context, memberID string, filter EntryFilter, params PaginationParams) (*PaginatedResult[*domain.LedgerEntry], error)

	// Admin audit trail
	RecordAdminAction(ctx context.Context, action *domain.AdminAction) error
	ListAdminActions(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.AdminAction], error)
}
