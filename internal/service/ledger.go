// Package service contains the business logic of the exchange engine.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rewearapp/rewear-server/internal/cache"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store"
)

// LedgerService owns point movements and derived balances.
//
// The ledger is the single source of truth for points. The cache only
// shortcuts the fold for display and is invalidated on every write.
type LedgerService struct {
	store  store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewLedgerService creates a new ledger service. The cache may be nil.
func NewLedgerService(st store.Store, c *cache.Cache, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  st,
		cache:  c,
		logger: logger,
	}
}

// Balance returns the member's current balance.
func (s *LedgerService) Balance(ctx context.Context, memberID string) (int64, error) {
	if s.cache != nil {
		if balance, ok := s.cache.GetBalance(memberID); ok {
			return balance, nil
		}
	}

	balance, err := s.store.GetBalance(ctx, memberID)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "derive balance")
	}

	if s.cache != nil {
		s.cache.SetBalance(memberID, balance)
	}
	return balance, nil
}

// History returns the member's point movements, newest first.
func (s *LedgerService) History(ctx context.Context, memberID string, kind domain.EntryKind, params store.PaginationParams) (*store.PaginatedResult[*domain.LedgerEntry], error) {
	result, err := s.store.ListEntries(ctx, memberID, store.EntryFilter{Kind: kind}, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list ledger entries")
	}
	return result, nil
}

// Credit appends an EARNED entry for the member.
func (s *LedgerService) Credit(ctx context.Context, memberID string, amount int64, reason string) (*domain.LedgerEntry, error) {
	if amount < 0 {
		return nil, errors.Validationf("credit amount must be non-negative, got %d", amount)
	}
	return s.record(ctx, memberID, amount, reason, "")
}

// Debit appends a SPENT entry for the member. Fails with
// ErrInsufficientBalance when the balance cannot cover it.
func (s *LedgerService) Debit(ctx context.Context, memberID string, amount int64, reason string) (*domain.LedgerEntry, error) {
	if amount < 0 {
		return nil, errors.Validationf("debit amount must be non-negative, got %d", amount)
	}
	return s.record(ctx, memberID, -amount, reason, "")
}

func (s *LedgerService) record(ctx context.Context, memberID string, amount int64, reason, swapID string) (*domain.LedgerEntry, error) {
	entryID, err := id.Generate("led")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate entry ID")
	}

	entry := &domain.LedgerEntry{
		ID:            entryID,
		MemberID:      memberID,
		Amount:        amount,
		Kind:          domain.KindForAmount(amount),
		Reason:        reason,
		RelatedSwapID: swapID,
		CreatedAt:     time.Now(),
	}

	if err := s.store.RecordEntry(ctx, entry); err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrInsufficientBalance) {
			return nil, errors.ErrInsufficientBalance
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "record ledger entry")
	}

	s.InvalidateBalance(memberID)

	s.logger.Debug("Ledger entry recorded",
		"member_id", memberID,
		"amount", amount,
		"reason", reason,
	)

	return entry, nil
}

// InvalidateBalance drops the member's cached balance. Settlement calls this
// for both parties after its transaction commits.
func (s *LedgerService) InvalidateBalance(memberID string) {
	if s.cache != nil {
		s.cache.InvalidateBalance(memberID)
	}
}
