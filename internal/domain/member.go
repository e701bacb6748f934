package domain

import "time"

// Role determines what a member is allowed to do.
type Role string

const (
	// RoleAdmin grants access to the moderation gate.
	RoleAdmin Role = "admin"
	// RoleMember grants standard access.
	RoleMember Role = "member"
)

// Valid returns true for a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a registered participant in the exchange.
//
// A member's point balance is never stored here: it is always derived by
// folding the member's ledger entries. Anything that looks like a balance
// on the wire was computed at response time.
type Member struct {
	Entity
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	LastLoginAt  time.Time `json:"last_login_at"`

	// Banned members keep their ledger and items but cannot sign in or
	// act on the exchange until an admin lifts the ban.
	Banned    bool   `json:"banned"`
	BanReason string `json:"ban_reason,omitempty"`
}

// IsAdmin returns true if the member may use moderator operations.
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
