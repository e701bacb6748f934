package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/id"
)

const (
	tokenIssuer   = "rewear-server"
	tokenAudience = "rewear-client"

	// Refresh tokens are opaque random strings, not PASETO tokens.
	refreshTokenBytes = 32
)

// TokenService issues and verifies PASETO v4.local access tokens and
// opaque refresh tokens.
type TokenService struct {
	key        paseto.V4SymmetricKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a token service from a hex-encoded 256-bit key.
func NewTokenService(keyHex string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	key, err := paseto.V4SymmetricKeyFromHex(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse PASETO key: %w", err)
	}

	return &TokenService{
		key:        key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// GenerateAccessToken issues an encrypted v4.local token carrying the
// member's identity and role.
func (s *TokenService) GenerateAccessToken(member *domain.Member) (string, error) {
	jti, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(member.ID)
	token.SetJti(jti)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.accessTTL))

	// Token.Set only fails on unserializable values, which these are not.
	for claim, value := range map[string]string{
		"member_id": member.ID,
		"email":     member.Email,
		"role":      string(member.Role),
	} {
		//nolint:errcheck
		_ = token.Set(claim, value)
	}

	return token.V4Encrypt(s.key, nil), nil
}

// VerifyAccessToken decrypts and validates an access token, returning its
// claims. Expired, tampered, or foreign tokens fail verification.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.MakeParser([]paseto.Rule{
		paseto.IssuedBy(tokenIssuer),
		paseto.ForAudience(tokenAudience),
		paseto.NotExpired(),
		paseto.ValidAt(time.Now()),
	})

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// GenerateRefreshToken returns a fresh random refresh token,
// base64-urlencoded. Its validity lives entirely in the session store.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// HashRefreshToken returns the SHA-256 digest of a refresh token, hex
// encoded. Sessions store only the digest, so a leaked database does not
// yield usable tokens.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTTL
}

// RefreshTokenDuration returns the configured refresh token lifetime.
func (s *TokenService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}
