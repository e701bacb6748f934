package domain

import "time"

// EntryKind tags a ledger entry for history display.
//
// The tag is informational only: balance arithmetic always uses the signed
// Amount, never the kind.
type EntryKind string

// Ledger entry kinds.
const (
	// EntryEarned entries have non-negative amounts.
	EntryEarned EntryKind = "EARNED"
	// EntrySpent entries have non-positive amounts.
	EntrySpent EntryKind = "SPENT"
)

// Valid returns true for a known entry kind.
func (k EntryKind) Valid() bool {
	return k == EntryEarned || k == EntrySpent
}

// KindForAmount returns the kind matching the sign of amount.
func KindForAmount(amount int64) EntryKind {
	if amount < 0 {
		return EntrySpent
	}
	return EntryEarned
}

// LedgerEntry is an immutable record of a single point movement.
//
// Entries are append-only: they are never edited or deleted, which is why
// there is no Entity embed here. A member's balance is defined as the sum
// of their entries' amounts; no cached balance is ever authoritative.
type LedgerEntry struct {
	ID            string    `json:"id"`
	MemberID      string    `json:"member_id"`
	Amount        int64     `json:"amount"`
	Kind          EntryKind `json:"kind"`
	Reason        string    `json:"reason"`
	RelatedSwapID string    `json:"related_swap_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Consistent reports whether the kind tag matches the amount's sign.
// EARNED requires amount >= 0, SPENT requires amount <= 0.
func (e *LedgerEntry) Consistent() bool {
	switch e.Kind {
	case EntryEarned:
		return e.Amount >= 0
	case EntrySpent:
		return e.Amount <= 0
	}
	return false
}
