package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/store"
)

// MemberService exposes member profiles.
type MemberService struct {
	store  store.Store
	ledger *LedgerService
	logger *slog.Logger
}

// NewMemberService creates a new member service.
func NewMemberService(st store.Store, ledger *LedgerService, logger *slog.Logger) *MemberService {
	return &MemberService{store: st, ledger: ledger, logger: logger}
}

// Profile is a member together with their derived point balance.
type Profile struct {
	*domain.Member
	Balance int64 `json:"balance"`
}

// Get returns a member's profile with the current balance.
func (s *MemberService) Get(ctx context.Context, memberID string) (*Profile, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("member %s not found", memberID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get member")
	}

	balance, err := s.ledger.Balance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &Profile{Member: member, Balance: balance}, nil
}

// UpdateProfileInput carries the editable profile fields. Nil means keep.
type UpdateProfileInput struct {
	DisplayName *string
	FirstName   *string
	LastName    *string
}

// UpdateProfile applies partial profile edits.
func (s *MemberService) UpdateProfile(ctx context.Context, memberID string, in UpdateProfileInput) (*Profile, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("member %s not found", memberID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get member")
	}

	if in.DisplayName != nil {
		member.DisplayName = *in.DisplayName
	}
	if in.FirstName != nil {
		member.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		member.LastName = *in.LastName
	}
	member.UpdatedAt = time.Now()

	if err := s.store.UpdateMember(ctx, member); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "update member")
	}

	balance, err := s.ledger.Balance(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &Profile{Member: member, Balance: balance}, nil
}
