package domain

import "time"

// AdminActionType identifies a moderation operation for the audit trail.
type AdminActionType string

const (
	ActionApproveItem AdminActionType = "APPROVE_ITEM"
	ActionRejectItem  AdminActionType = "REJECT_ITEM"
	ActionFlagItem    AdminActionType = "FLAG_ITEM"
	ActionUnflagItem  AdminActionType = "UNFLAG_ITEM"
	ActionRemoveItem  AdminActionType = "REMOVE_ITEM"

	ActionBanMember   AdminActionType = "BAN_MEMBER"
	ActionUnbanMember AdminActionType = "UNBAN_MEMBER"
)

// AdminAction is an append-only audit record of a moderation decision.
type AdminAction struct {
	ID         string          `json:"id"`
	AdminID    string          `json:"admin_id"`
	Action     AdminActionType `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Reason     string          `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
