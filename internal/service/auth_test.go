package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rewearapp/rewear-server/internal/auth"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignupBonus = 100

func newTestAuth(t *testing.T, env *testEnv) *AuthService {
	t.Helper()

	tokens, err := auth.NewTokenService(
		strings.Repeat("ab", 32),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	return NewAuthService(env.store, tokens, env.ledger, env.swaps.logger, testSignupBonus)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	member, pair, err := authSvc.Signup(ctx, SignupInput{
		Email:       "new@example.com",
		Password:    "correct horse battery staple",
		DisplayName: "New Member",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// The welcome grant is on the ledger, not a stored counter.
	assert.Equal(t, int64(testSignupBonus), balance(t, env, member.ID))

	// The access token carries the member's identity.
	claims, err := authSvc.tokens.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, member.ID, claims.MemberID)
	assert.False(t, claims.IsAdmin())
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	in := SignupInput{Email: "dup@example.com", Password: "password123"}
	_, _, err := authSvc.Signup(ctx, in)
	require.NoError(t, err)

	_, _, err = authSvc.Signup(ctx, in)
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	_, _, err := authSvc.Signup(ctx, SignupInput{Email: "m@example.com", Password: "password123"})
	require.NoError(t, err)

	member, pair, err := authSvc.Login(ctx, "m@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "m@example.com", member.Email)
	assert.NotEmpty(t, pair.AccessToken)

	_, _, err = authSvc.Login(ctx, "m@example.com", "wrong password")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	// Unknown emails get the same error as wrong passwords.
	_, _, err = authSvc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	_, pair, err := authSvc.Signup(ctx, SignupInput{Email: "m@example.com", Password: "password123"})
	require.NoError(t, err)

	rotated, err := authSvc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The spent token no longer refreshes.
	_, err = authSvc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	// The rotated one does.
	_, err = authSvc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	_, pair, err := authSvc.Signup(ctx, SignupInput{Email: "m@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, authSvc.Logout(ctx, pair.RefreshToken))

	_, err = authSvc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	// Logging out an already-revoked token is a no-op.
	assert.NoError(t, authSvc.Logout(ctx, pair.RefreshToken))
}

func TestLogoutAll(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	member, first, err := authSvc.Signup(ctx, SignupInput{Email: "m@example.com", Password: "password123"})
	require.NoError(t, err)
	_, second, err := authSvc.Login(ctx, "m@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, authSvc.LogoutAll(ctx, member.ID))

	_, err = authSvc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	_, err = authSvc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestBannedMemberCannotAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	authSvc := newTestAuth(t, env)
	ctx := context.Background()

	member, pair, err := authSvc.Signup(ctx, SignupInput{Email: "banned@example.com", Password: "password123"})
	require.NoError(t, err)

	admin := createTestMember(t, env, "admin@example.com", domain.RoleAdmin)
	_, err = env.moderation.BanMember(ctx, admin.ID, member.ID, "abusive listings")
	require.NoError(t, err)

	// Fresh logins are refused outright.
	_, _, err = authSvc.Login(ctx, "banned@example.com", "password123")
	assert.ErrorIs(t, err, errors.ErrAccountBanned)

	// The ban also revoked the session issued at signup.
	_, err = authSvc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

	// Lifting the ban restores access.
	_, err = env.moderation.UnbanMember(ctx, admin.ID, member.ID)
	require.NoError(t, err)
	_, _, err = authSvc.Login(ctx, "banned@example.com", "password123")
	require.NoError(t, err)
}
