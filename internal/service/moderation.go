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

// ModerationService is the admin-only review surface for listed items.
// Every decision writes an audit row; rejections, flags and removals
// require a stated reason.
type ModerationService struct {
	store  store.Store
	locks  *EntityLocks
	logger *slog.Logger
}

// NewModerationService creates a new moderation service. locks must be the
// same registry handed to the swap service, or a decision could interleave
// with a settlement on the same item.
func NewModerationService(st store.Store, locks *EntityLocks, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		store:  st,
		locks:  locks,
		logger: logger,
	}
}

// Approve clears an item through review. Items land directly in the
// browsable pool: PENDING_REVIEW steps through APPROVED to AVAILABLE.
// Also lifts a flag, returning a FLAGGED item to circulation.
func (s *ModerationService) Approve(ctx context.Context, adminID, itemID string) (*domain.Item, error) {
	return s.moderate(ctx, adminID, itemID, domain.ActionApproveItem, "", func(item *domain.Item) error {
		switch item.State {
		case domain.ItemPendingReview, domain.ItemFlagged:
			item.TransitionTo(domain.ItemApproved)
			item.TransitionTo(domain.ItemAvailable)
			item.ModerationReason = ""
		default:
			return errors.Conflictf("item %s is %s, not awaiting review", item.ID, item.State)
		}
		return nil
	})
}

// Reject turns a PENDING_REVIEW item down. Terminal; requires a reason.
func (s *ModerationService) Reject(ctx context.Context, adminID, itemID, reason string) (*domain.Item, error) {
	if reason == "" {
		return nil, errors.Validation("a reason is required to reject an item")
	}
	return s.moderate(ctx, adminID, itemID, domain.ActionRejectItem, reason, func(item *domain.Item) error {
		if !item.TransitionTo(domain.ItemRejected) {
			return errors.Conflictf("item %s is %s and cannot be rejected", item.ID, item.State)
		}
		item.ModerationReason = reason
		return nil
	})
}

// Flag pulls an APPROVED or AVAILABLE item from circulation pending a
// second look. Requires a reason.
func (s *ModerationService) Flag(ctx context.Context, adminID, itemID, reason string) (*domain.Item, error) {
	if reason == "" {
		return nil, errors.Validation("a reason is required to flag an item")
	}
	return s.moderate(ctx, adminID, itemID, domain.ActionFlagItem, reason, func(item *domain.Item) error {
		// AVAILABLE items step back through APPROVED; RESERVED items are
		// mid-settlement and must resolve first.
		if item.State == domain.ItemAvailable {
			item.State = domain.ItemApproved
		}
		if !item.TransitionTo(domain.ItemFlagged) {
			return errors.Conflictf("item %s is %s and cannot be flagged", item.ID, item.State)
		}
		item.ModerationReason = reason
		return nil
	})
}

// Unflag returns a FLAGGED item to circulation.
func (s *ModerationService) Unflag(ctx context.Context, adminID, itemID string) (*domain.Item, error) {
	return s.moderate(ctx, adminID, itemID, domain.ActionUnflagItem, "", func(item *domain.Item) error {
		if item.State != domain.ItemFlagged {
			return errors.Conflictf("item %s is %s, not flagged", item.ID, item.State)
		}
		item.TransitionTo(domain.ItemApproved)
		item.TransitionTo(domain.ItemAvailable)
		item.ModerationReason = ""
		return nil
	})
}

// Remove takes an item out of the system for good. Any non-terminal state
// may be removed; requires a reason.
func (s *ModerationService) Remove(ctx context.Context, adminID, itemID, reason string) (*domain.Item, error) {
	if reason == "" {
		return nil, errors.Validation("a reason is required to remove an item")
	}
	return s.moderate(ctx, adminID, itemID, domain.ActionRemoveItem, reason, func(item *domain.Item) error {
		if !item.TransitionTo(domain.ItemRemoved) {
			return errors.Conflictf("item %s is already %s", item.ID, item.State)
		}
		item.ModerationReason = reason
		return nil
	})
}

// moderate is the shared decide-then-write path: lock the item, apply the
// mutation, persist, and append the audit record. The audit write shares
// fate with the item update only at the process level; a crash between the
// two loses the audit row, which the item's state still evidences.
func (s *ModerationService) moderate(ctx context.Context, adminID, itemID string, action domain.AdminActionType, reason string, mutate func(*domain.Item) error) (*domain.Item, error) {
	s.locks.Lock(itemID)
	defer s.locks.Unlock(itemID)

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("item %s not found", itemID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get item")
	}

	priorState := item.State
	if err := mutate(item); err != nil {
		return nil, err
	}

	// The write lands only if the item is still in the state the decision
	// was made against; a settlement committing in between loses nothing.
	if err := s.store.UpdateItem(ctx, item, priorState); err != nil {
		if errors.Is(err, store.ErrStateConflict) {
			return nil, errors.Conflictf("item %s changed state during review", itemID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "update item")
	}

	if err := s.audit(ctx, adminID, action, "item", itemID, reason); err != nil {
		s.logger.Error("Failed to record admin action",
			"action", action,
			"item_id", itemID,
			"error", err,
		)
	}

	s.logger.Info("Moderation action applied",
		"action", action,
		"item_id", itemID,
		"admin_id", adminID,
		"new_state", item.State,
	)
	return item, nil
}

func (s *ModerationService) audit(ctx context.Context, adminID string, action domain.AdminActionType, targetType, targetID, reason string) error {
	actionID, err := id.Generate("adm")
	if err != nil {
		return err
	}
	return s.store.RecordAdminAction(ctx, &domain.AdminAction{
		ID:         actionID,
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		CreatedAt:  time.Now(),
	})
}

// BanMember locks a member out of the exchange: their sessions are revoked
// and login refuses them until an admin lifts the ban. Their items and
// ledger are untouched. Requires a reason; admins cannot be banned.
func (s *ModerationService) BanMember(ctx context.Context, adminID, memberID, reason string) (*domain.Member, error) {
	if reason == "" {
		return nil, errors.Validation("a reason is required to ban a member")
	}

	s.locks.Lock(memberID)
	defer s.locks.Unlock(memberID)

	member, err := s.getMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.IsAdmin() {
		return nil, errors.Forbidden("admins cannot be banned")
	}
	if member.Banned {
		return nil, errors.Conflictf("member %s is already banned", memberID)
	}

	member.Banned = true
	member.BanReason = reason
	member.UpdatedAt = time.Now()
	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "update member")
	}

	// No session survives a ban; access tokens age out on their own.
	if err := s.store.DeleteAllMemberSessions(ctx, memberID); err != nil {
		s.logger.Error("Failed to revoke banned member's sessions", "member_id", memberID, "error", err)
	}

	if err := s.audit(ctx, adminID, domain.ActionBanMember, "member", memberID, reason); err != nil {
		s.logger.Error("Failed to record admin action",
			"action", domain.ActionBanMember,
			"member_id", memberID,
			"error", err,
		)
	}

	s.logger.Info("Member banned", "member_id", memberID, "admin_id", adminID)
	return member, nil
}

// UnbanMember lifts a ban, letting the member sign in again.
func (s *ModerationService) UnbanMember(ctx context.Context, adminID, memberID string) (*domain.Member, error) {
	s.locks.Lock(memberID)
	defer s.locks.Unlock(memberID)

	member, err := s.getMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.Banned {
		return nil, errors.Conflictf("member %s is not banned", memberID)
	}

	member.Banned = false
	member.BanReason = ""
	member.UpdatedAt = time.Now()
	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "update member")
	}

	if err := s.audit(ctx, adminID, domain.ActionUnbanMember, "member", memberID, ""); err != nil {
		s.logger.Error("Failed to record admin action",
			"action", domain.ActionUnbanMember,
			"member_id", memberID,
			"error", err,
		)
	}

	s.logger.Info("Member unbanned", "member_id", memberID, "admin_id", adminID)
	return member, nil
}

func (s *ModerationService) getMember(ctx context.Context, memberID string) (*domain.Member, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("member %s not found", memberID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get member")
	}
	return member, nil
}

// PendingReview lists items awaiting a first review decision.
func (s *ModerationService) PendingReview(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	return s.listByStates(ctx, params, domain.ItemPendingReview)
}

// Flagged lists items pulled from circulation.
func (s *ModerationService) Flagged(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	return s.listByStates(ctx, params, domain.ItemFlagged)
}

func (s *ModerationService) listByStates(ctx context.Context, params store.PaginationParams, states ...domain.ItemState) (*store.PaginatedResult[*domain.Item], error) {
	result, err := s.store.ListItems(ctx, store.ItemFilter{States: states}, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list items")
	}
	return result, nil
}

// Actions returns the moderation audit trail, newest first.
func (s *ModerationService) Actions(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.AdminAction], error) {
	result, err := s.store.ListAdminActions(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list admin actions")
	}
	return result, nil
}

// DashboardStats summarizes platform state for the admin overview.
type DashboardStats struct {
	Members       int            `json:"members"`
	ItemsByState  map[string]int `json:"items_by_state"`
	SwapsByState  map[string]int `json:"swaps_by_state"`
	PendingReview int            `json:"pending_review"`
	Flagged       int            `json:"flagged"`
}

// Dashboard aggregates the counters for the admin landing page.
func (s *ModerationService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	members, err := s.store.CountMembers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "count members")
	}
	items, err := s.store.CountItemsByState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "count items")
	}
	swaps, err := s.store.CountSwapsByState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "count swaps")
	}

	stats := &DashboardStats{
		Members:       members,
		ItemsByState:  make(map[string]int, len(items)),
		SwapsByState:  make(map[string]int, len(swaps)),
		PendingReview: items[domain.ItemPendingReview],
		Flagged:       items[domain.ItemFlagged],
	}
	for state, n := range items {
		stats.ItemsByState[string(state)] = n
	}
	for state, n := range swaps {
		stats.SwapsByState[string(state)] = n
	}
	return stats, nil
}
