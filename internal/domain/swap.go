package domain

import "time"

// SwapState is the lifecycle state of a swap request.
type SwapState string

// Swap request states.
const (
	SwapPending   SwapState = "PENDING"
	SwapAccepted  SwapState = "ACCEPTED"
	SwapRejected  SwapState = "REJECTED"
	SwapCancelled SwapState = "CANCELLED"
	SwapCompleted SwapState = "COMPLETED"
)

// swapTransitions is the closed transition table for swap requests.
// ACCEPTED is transient: acceptance immediately attempts settlement, which
// ends in COMPLETED or CANCELLED before the swap is observable again.
var swapTransitions = map[SwapState][]SwapState{
	SwapPending:   {SwapAccepted, SwapRejected, SwapCancelled},
	SwapAccepted:  {SwapCompleted, SwapCancelled},
	SwapRejected:  {},
	SwapCancelled: {},
	SwapCompleted: {},
}

// Valid returns true for a known swap state.
func (s SwapState) Valid() bool {
	_, ok := swapTransitions[s]
	return ok
}

// IsTerminal returns true if no transition leaves this state.
func (s SwapState) IsTerminal() bool {
	return s == SwapRejected || s == SwapCancelled || s == SwapCompleted
}

// CanTransition reports whether moving from s to next is legal.
func (s SwapState) CanTransition(next SwapState) bool {
	for _, allowed := range swapTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CancelReason records why a swap ended in CANCELLED.
type CancelReason string

// Cancellation reasons.
const (
	// CancelByInitiator: the initiator withdrew the request while PENDING.
	CancelByInitiator CancelReason = "BY_INITIATOR"
	// CancelItemUnavailable: a reservation failed during settlement.
	CancelItemUnavailable CancelReason = "ITEM_NO_LONGER_AVAILABLE"
	// CancelInsufficientBalance: the debtor could not cover the points differential.
	CancelInsufficientBalance CancelReason = "INSUFFICIENT_BALANCE"
	// CancelExpired: the request sat unanswered past the configured TTL.
	CancelExpired CancelReason = "EXPIRED"
)

// SwapRequest matches one member's item against another's.
//
// Created once per request; immutable except for State, CancelReason and
// the audit timestamps. PointsDiff is fixed at creation time as
// recipientItem.PointsValue - initiatorItem.PointsValue: positive means the
// initiator owes points, negative means the recipient does.
type SwapRequest struct {
	Entity
	InitiatorID     string       `json:"initiator_id"`
	InitiatorItemID string       `json:"initiator_item_id"`
	RecipientID     string       `json:"recipient_id"`
	RecipientItemID string       `json:"recipient_item_id"`
	State           SwapState    `json:"state"`
	PointsDiff      int64        `json:"points_diff"`
	CancelReason    CancelReason `json:"cancel_reason,omitempty"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
}

// IsActive returns true while the swap still holds its items against
// other swap requests (the duplicate-active-swap guard).
func (sr *SwapRequest) IsActive() bool {
	return !sr.State.IsTerminal()
}

// Involves returns true if the member participates in this swap.
func (sr *SwapRequest) Involves(memberID string) bool {
	return sr.InitiatorID == memberID || sr.RecipientID == memberID
}

// Resolve moves the swap to a terminal state, stamping ResolvedAt.
// Returns false and leaves the swap untouched if the transition is illegal.
func (sr *SwapRequest) Resolve(next SwapState, reason CancelReason) bool {
	if !next.IsTerminal() || !sr.State.CanTransition(next) {
		return false
	}
	now := time.Now()
	sr.State = next
	sr.CancelReason = reason
	sr.ResolvedAt = &now
	sr.UpdatedAt = now
	return true
}
