package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store"
)

// SwapService coordinates the full swap lifecycle: request, response,
// cancellation, settlement, redemption, and the expiry sweep.
//
// Settlement discipline: decide-then-write sequences run under the shared
// entity lock registry (sorted acquisition, see locks.go) and commit through
// a single store transaction. The locks serialize within this process; the
// store's compare-and-set writes protect correctness even without them.
type SwapService struct {
	store      store.Store
	ledger     *LedgerService
	locks      *EntityLocks
	logger     *slog.Logger
	pendingTTL time.Duration
}

// NewSwapService creates a new swap service. locks must be the same
// registry handed to every other service mutating items.
func NewSwapService(st store.Store, ledger *LedgerService, locks *EntityLocks, logger *slog.Logger, pendingTTL time.Duration) *SwapService {
	return &SwapService{
		store:      st,
		ledger:     ledger,
		locks:      locks,
		logger:     logger,
		pendingTTL: pendingTTL,
	}
}

const (
	settlementReason = "swap settlement"
	redemptionReason = "point redemption"
)

// Request creates a PENDING swap matching the initiator's item against the
// recipient's. The recipient is derived from their item's ownership.
func (s *SwapService) Request(ctx context.Context, initiatorID, initiatorItemID, recipientItemID string) (*domain.SwapRequest, error) {
	if initiatorItemID == recipientItemID {
		return nil, errors.SelfSwap("cannot swap an item against itself")
	}

	unlock := s.locks.LockAll(initiatorItemID, recipientItemID)
	defer unlock()

	initiatorItem, err := s.getItem(ctx, initiatorItemID)
	if err != nil {
		return nil, err
	}
	recipientItem, err := s.getItem(ctx, recipientItemID)
	if err != nil {
		return nil, err
	}

	if initiatorItem.OwnerID != initiatorID {
		return nil, errors.Forbiddenf("item %s is not yours to offer", initiatorItemID)
	}
	if recipientItem.OwnerID == initiatorID {
		return nil, errors.ErrSelfSwap
	}
	if !initiatorItem.IsSwappable() {
		return nil, errors.NotSwappablef("item %s is not available for swapping", initiatorItemID)
	}
	if !recipientItem.IsSwappable() {
		return nil, errors.NotSwappablef("item %s is not available for swapping", recipientItemID)
	}

	// One active swap per item, on either side.
	for _, itemID := range []string{initiatorItemID, recipientItemID} {
		active, err := s.store.ListActiveSwapsForItem(ctx, itemID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "check active swaps")
		}
		if len(active) > 0 {
			return nil, errors.DuplicateActiveSwap("item " + itemID + " is already part of an active swap")
		}
	}

	swapID, err := id.Generate("swap")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate swap ID")
	}

	swap := &domain.SwapRequest{
		Entity:          domain.Entity{ID: swapID},
		InitiatorID:     initiatorID,
		InitiatorItemID: initiatorItemID,
		RecipientID:     recipientItem.OwnerID,
		RecipientItemID: recipientItemID,
		State:           domain.SwapPending,
		// Positive: the initiator owes points for the nicer item.
		PointsDiff: recipientItem.PointsValue - initiatorItem.PointsValue,
	}
	swap.InitTimestamps()

	if err := s.store.CreateSwap(ctx, swap); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create swap")
	}

	s.logger.Info("Swap requested",
		"swap_id", swap.ID,
		"initiator_id", initiatorID,
		"recipient_id", swap.RecipientID,
		"points_diff", swap.PointsDiff,
	)

	return swap, nil
}

// Respond lets the recipient accept or reject a PENDING swap.
// Accepting triggers settlement; the returned swap is COMPLETED on success.
func (s *SwapService) Respond(ctx context.Context, memberID, swapID string, accept bool) (*domain.SwapRequest, error) {
	swap, err := s.getSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}

	if swap.RecipientID != memberID {
		return nil, errors.Forbidden("only the recipient may respond to a swap")
	}
	if swap.State != domain.SwapPending {
		return nil, errors.ErrAlreadyResolved
	}

	if !accept {
		return s.resolve(ctx, swapID, domain.SwapRejected, "")
	}

	return s.settle(ctx, swap)
}

// settle runs the full settlement under entity locks. The typed settlement
// failures cancel the swap with the documented reason; storage failures
// leave it PENDING and surface as ENGINE_UNAVAILABLE so the caller retries.
func (s *SwapService) settle(ctx context.Context, swap *domain.SwapRequest) (*domain.SwapRequest, error) {
	unlock := s.locks.LockAll(
		swap.ID,
		swap.InitiatorItemID, swap.RecipientItemID,
		swap.InitiatorID, swap.RecipientID,
	)
	defer unlock()

	// Re-read under the lock; a concurrent resolution may have won.
	swap, err := s.getSwap(ctx, swap.ID)
	if err != nil {
		return nil, err
	}
	if swap.State != domain.SwapPending {
		return nil, errors.ErrAlreadyResolved
	}

	initiatorItem, err := s.getItem(ctx, swap.InitiatorItemID)
	if err != nil {
		return nil, err
	}
	recipientItem, err := s.getItem(ctx, swap.RecipientItemID)
	if err != nil {
		return nil, err
	}

	err = s.store.SettleSwap(ctx, store.SettlementInput{
		Swap:          swap,
		InitiatorItem: initiatorItem,
		RecipientItem: recipientItem,
		Reason:        settlementReason,
	})

	switch {
	case err == nil:
		s.ledger.InvalidateBalance(swap.InitiatorID)
		s.ledger.InvalidateBalance(swap.RecipientID)

		s.logger.Info("Swap settled",
			"swap_id", swap.ID,
			"points_diff", swap.PointsDiff,
		)
		return s.getSwap(ctx, swap.ID)

	case errors.Is(err, store.ErrStateConflict):
		if _, cerr := s.resolveLocked(ctx, swap.ID, domain.SwapCancelled, domain.CancelItemUnavailable); cerr != nil {
			s.logger.Error("Failed to cancel unsettleable swap", "swap_id", swap.ID, "error", cerr)
		}
		return nil, errors.NotSwappable("an item in this swap is no longer available")

	case errors.Is(err, store.ErrInsufficientBalance):
		if _, cerr := s.resolveLocked(ctx, swap.ID, domain.SwapCancelled, domain.CancelInsufficientBalance); cerr != nil {
			s.logger.Error("Failed to cancel unsettleable swap", "swap_id", swap.ID, "error", cerr)
		}
		return nil, errors.ErrInsufficientBalance

	default:
		s.logger.Error("Settlement failed", "swap_id", swap.ID, "error", err)
		return nil, errors.ErrEngineUnavailable.WithCause(err)
	}
}

// Cancel withdraws a PENDING swap. Initiator only.
func (s *SwapService) Cancel(ctx context.Context, memberID, swapID string) (*domain.SwapRequest, error) {
	swap, err := s.getSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}

	if swap.InitiatorID != memberID {
		return nil, errors.Forbidden("only the initiator may cancel a swap")
	}
	if swap.State != domain.SwapPending {
		return nil, errors.ErrAlreadyResolved
	}

	return s.resolve(ctx, swapID, domain.SwapCancelled, domain.CancelByInitiator)
}

// Get returns one swap for a participant (or an admin).
func (s *SwapService) Get(ctx context.Context, memberID, swapID string, isAdmin bool) (*domain.SwapRequest, error) {
	swap, err := s.getSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if !swap.Involves(memberID) && !isAdmin {
		return nil, errors.NotFoundf("swap %s not found", swapID)
	}
	return swap, nil
}

// MemberSwaps returns the member's swaps on either side, newest first.
func (s *SwapService) MemberSwaps(ctx context.Context, memberID string, params store.PaginationParams) (*store.PaginatedResult[*domain.SwapRequest], error) {
	result, err := s.store.ListMemberSwaps(ctx, memberID, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list member swaps")
	}
	return result, nil
}

// Redeem buys an item outright for its full point value. A degenerate
// settlement: one reservation, one debit, one handover.
func (s *SwapService) Redeem(ctx context.Context, memberID, itemID string) (*domain.Item, error) {
	unlock := s.locks.LockAll(itemID, memberID)
	defer unlock()

	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID == memberID {
		return nil, errors.SelfSwap("cannot redeem your own item")
	}
	if !item.IsSwappable() {
		return nil, errors.NotSwappablef("item %s is not available", itemID)
	}

	err = s.store.RedeemItem(ctx, store.RedemptionInput{
		Item:     item,
		MemberID: memberID,
		Reason:   redemptionReason,
	})

	switch {
	case err == nil:
		s.ledger.InvalidateBalance(memberID)
		s.ledger.InvalidateBalance(item.OwnerID)

		s.logger.Info("Item redeemed",
			"item_id", itemID,
			"member_id", memberID,
			"points", item.PointsValue,
		)
		return s.getItem(ctx, itemID)

	case errors.Is(err, store.ErrStateConflict):
		return nil, errors.ErrAlreadyReserved

	case errors.Is(err, store.ErrInsufficientBalance):
		return nil, errors.ErrInsufficientBalance

	default:
		s.logger.Error("Redemption failed", "item_id", itemID, "error", err)
		return nil, errors.ErrEngineUnavailable.WithCause(err)
	}
}

// SweepExpired cancels PENDING swaps older than the configured TTL.
// Returns the number of swaps cancelled.
func (s *SwapService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.pendingTTL)
	expired, err := s.store.ListExpiredPendingSwaps(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "list expired swaps")
	}

	cancelled := 0
	for _, swap := range expired {
		if _, err := s.resolve(ctx, swap.ID, domain.SwapCancelled, domain.CancelExpired); err != nil {
			// An acceptance racing the sweep is fine; the swap resolved.
			if errors.Is(err, errors.ErrAlreadyResolved) {
				continue
			}
			s.logger.Error("Failed to expire swap", "swap_id", swap.ID, "error", err)
			continue
		}
		cancelled++
	}

	if cancelled > 0 {
		s.logger.Info("Expired swaps swept", "cancelled", cancelled)
	}
	return cancelled, nil
}

// resolve moves a swap to a terminal state through the guarded store write.
func (s *SwapService) resolve(ctx context.Context, swapID string, state domain.SwapState, reason domain.CancelReason) (*domain.SwapRequest, error) {
	s.locks.Lock(swapID)
	defer s.locks.Unlock(swapID)
	return s.resolveLocked(ctx, swapID, state, reason)
}

// resolveLocked is resolve for callers already holding the swap's lock.
func (s *SwapService) resolveLocked(ctx context.Context, swapID string, state domain.SwapState, reason domain.CancelReason) (*domain.SwapRequest, error) {
	swap, err := s.getSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if !swap.Resolve(state, reason) {
		return nil, errors.ErrAlreadyResolved
	}

	if err := s.store.UpdateSwap(ctx, swap); err != nil {
		if errors.Is(err, store.ErrStateConflict) {
			return nil, errors.ErrAlreadyResolved
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "update swap")
	}
	return swap, nil
}

func (s *SwapService) getSwap(ctx context.Context, swapID string) (*domain.SwapRequest, error) {
	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("swap %s not found", swapID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get swap")
	}
	return swap, nil
}

func (s *SwapService) getItem(ctx context.Context, itemID string) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("item %s not found", itemID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get item")
	}
	return item, nil
}
