package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rewearapp/rewear-server/internal/auth"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store"
)

// signupBonusReason labels the welcome credit in members' ledger history.
const signupBonusReason = "signup bonus"

// AuthService handles registration, login, and refresh-token sessions.
type AuthService struct {
	store       store.Store
	tokens      *auth.TokenService
	ledger      *LedgerService
	logger      *slog.Logger
	signupBonus int64
}

// NewAuthService creates a new auth service. signupBonus is the point
// grant credited to every new member's ledger.
func NewAuthService(st store.Store, tokens *auth.TokenService, ledger *LedgerService, logger *slog.Logger, signupBonus int64) *AuthService {
	return &AuthService{
		store:       st,
		tokens:      tokens,
		ledger:      ledger,
		logger:      logger,
		signupBonus: signupBonus,
	}
}

// TokenPair is what a successful signup, login, or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SignupInput carries a validated registration request.
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
	FirstName   string
	LastName    string
}

// Signup registers a member, credits the signup bonus, and opens a session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.Member, *TokenPair, error) {
	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "hash password")
	}

	memberID, err := id.Generate("mem")
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "generate member ID")
	}

	member := &domain.Member{
		Entity:       domain.Entity{ID: memberID},
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: passwordHash,
		DisplayName:  in.DisplayName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleMember,
		LastLoginAt:  time.Now(),
	}
	member.InitTimestamps()

	if err := s.store.CreateMember(ctx, member); err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrAlreadyExists) {
			return nil, nil, errors.AlreadyExists("an account with this email already exists")
		}
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "create member")
	}

	if s.signupBonus > 0 {
		if _, err := s.ledger.Credit(ctx, member.ID, s.signupBonus, signupBonusReason); err != nil {
			// The account exists; the member just starts at zero.
			s.logger.Error("Failed to credit signup bonus", "member_id", member.ID, "error", err)
		}
	}

	pair, err := s.openSession(ctx, member)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Member registered", "member_id", member.ID)
	return member, pair, nil
}

// Login verifies credentials and opens a fresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Member, *TokenPair, error) {
	member, err := s.store.GetMemberByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			// Burn a verification anyway so the timing does not reveal
			// whether the email exists.
			_, _ = auth.VerifyPassword(auth.DummyHash, password)
			return nil, nil, errors.ErrInvalidCredentials
		}
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "lookup member")
	}

	ok, err := auth.VerifyPassword(member.PasswordHash, password)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "verify password")
	}
	if !ok {
		return nil, nil, errors.ErrInvalidCredentials
	}

	// Checked after the password so the error confirms nothing to guessers.
	if member.Banned {
		return nil, nil, errors.ErrAccountBanned
	}

	member.LastLoginAt = time.Now()
	member.UpdatedAt = member.LastLoginAt
	if err := s.store.UpdateMember(ctx, member); err != nil {
		s.logger.Warn("Failed to stamp last login", "member_id", member.ID, "error", err)
	}

	pair, err := s.openSession(ctx, member)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Member logged in", "member_id", member.ID)
	return member, pair, nil
}

// Refresh rotates a refresh token: the presented token is spent and a new
// pair is issued against the same session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "lookup session")
	}

	if session.IsExpired() {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, errors.ErrTokenExpired
	}

	member, err := s.store.GetMember(ctx, session.MemberID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "lookup member")
	}

	// A ban lands between refreshes; the session dies with it.
	if member.Banned {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, errors.ErrAccountBanned
	}

	accessToken, err := s.tokens.GenerateAccessToken(member)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate access token")
	}
	newRefresh, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate refresh token")
	}

	now := time.Now()
	session.RefreshTokenHash = auth.HashRefreshToken(newRefresh)
	session.ExpiresAt = now.Add(s.tokens.RefreshTokenDuration())
	session.LastUsedAt = now
	session.UpdatedAt = now
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "rotate session")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(s.tokens.AccessTokenDuration().Seconds()),
	}, nil
}

// Logout revokes the session holding this refresh token. Unknown tokens
// succeed silently; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, errors.CodeInternal, "lookup session")
	}
	if err := s.store.DeleteSession(ctx, session.ID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete session")
	}
	return nil
}

// LogoutAll revokes every session the member holds.
func (s *AuthService) LogoutAll(ctx context.Context, memberID string) error {
	if err := s.store.DeleteAllMemberSessions(ctx, memberID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete sessions")
	}
	return nil
}

// CleanupSessions deletes expired sessions. Returns the number removed.
func (s *AuthService) CleanupSessions(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "delete expired sessions")
	}
	if n > 0 {
		s.logger.Info("Expired sessions cleaned up", "deleted", n)
	}
	return n, nil
}

func (s *AuthService) openSession(ctx context.Context, member *domain.Member) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(member)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate access token")
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate refresh token")
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate session ID")
	}

	now := time.Now()
	session := &domain.Session{
		Entity:           domain.Entity{ID: sessionID},
		MemberID:         member.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokens.RefreshTokenDuration()),
		LastUsedAt:       now,
	}
	session.InitTimestamps()

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create session")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenDuration().Seconds()),
	}, nil
}
