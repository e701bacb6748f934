package auth

import (
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
)

// AccessClaims is the decrypted payload of a v4.local access token.
type AccessClaims struct {
	MemberID string `json:"member_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// IsAdmin reports whether the token was issued to an admin member.
func (c *AccessClaims) IsAdmin() bool {
	return domain.Role(c.Role) == domain.RoleAdmin
}
