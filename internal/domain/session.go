package domain

import "time"

// Session tracks a member's refresh-token session.
// The refresh token itself is never stored, only its hash.
type Session struct {
	Entity
	MemberID         string    `json:"member_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
}

// IsExpired returns true if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
