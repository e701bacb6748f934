package domain

// ItemState is the lifecycle state of a listed item.
type ItemState string

// Item lifecycle states.
const (
	ItemDraft         ItemState = "DRAFT"
	ItemPendingReview ItemState = "PENDING_REVIEW"
	ItemApproved      ItemState = "APPROVED"
	ItemRejected      ItemState = "REJECTED"
	ItemFlagged       ItemState = "FLAGGED"
	ItemAvailable     ItemState = "AVAILABLE"
	ItemReserved      ItemState = "RESERVED"
	ItemSwapped       ItemState = "SWAPPED"
	ItemRemoved       ItemState = "REMOVED"
)

// itemTransitions is a closed transition table. A state maps to the set of
// states it may move to. REMOVED is additionally reachable from every
// non-terminal state via moderator removal (see CanTransition).
var itemTransitions = map[ItemState][]ItemState{
	ItemDraft:         {ItemPendingReview},
	ItemPendingReview: {ItemApproved, ItemRejected},
	ItemApproved:      {ItemFlagged, ItemAvailable},
	ItemAvailable:     {ItemReserved, ItemFlagged},
	ItemReserved:      {ItemAvailable, ItemSwapped},
	ItemFlagged:       {ItemApproved},
	ItemRejected:      {},
	ItemSwapped:       {},
	ItemRemoved:       {},
}

// Valid returns true for a known item state.
func (s ItemState) Valid() bool {
	_, ok := itemTransitions[s]
	return ok
}

// IsTerminal returns true if no transition leaves this state.
func (s ItemState) IsTerminal() bool {
	return s == ItemRejected || s == ItemSwapped || s == ItemRemoved
}

// CanTransition reports whether moving from s to next is legal.
// Any non-terminal state may move to REMOVED (moderator removal).
func (s ItemState) CanTransition(next ItemState) bool {
	if next == ItemRemoved {
		return !s.IsTerminal()
	}
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Condition describes the physical condition of an item.
type Condition string

// Item conditions, best to worst.
const (
	ConditionNew     Condition = "NEW"
	ConditionLikeNew Condition = "LIKE_NEW"
	ConditionGood    Condition = "GOOD"
	ConditionFair    Condition = "FAIR"
	ConditionPoor    Condition = "POOR"
)

// Valid returns true for a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// ItemType is the broad category of a listed item.
type ItemType string

// Item types.
const (
	TypeClothing    ItemType = "CLOTHING"
	TypeShoes       ItemType = "SHOES"
	TypeAccessories ItemType = "ACCESSORIES"
)

// Valid returns true for a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeClothing, TypeShoes, TypeAccessories:
		return true
	}
	return false
}

// Item is a physical good listed for exchange.
//
// Ownership belongs exclusively to the creating member until a completed
// swap (or redemption) reassigns it. The descriptive attributes are opaque
// to the engine; only PointsValue and State drive behavior.
type Item struct {
	Entity
	OwnerID          string    `json:"owner_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	Size             string    `json:"size,omitempty"`
	Condition        Condition `json:"condition"`
	Type             ItemType  `json:"item_type"`
	Brand            string    `json:"brand,omitempty"`
	Color            string    `json:"color,omitempty"`
	Material         string    `json:"material,omitempty"`
	PointsValue      int64     `json:"points_value"`
	State            ItemState `json:"state"`
	Featured         bool      `json:"featured"`
	ViewCount        int64     `json:"view_count"`
	ImageURLs        []string  `json:"image_urls,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	ModerationReason string    `json:"moderation_reason,omitempty"`
}

// IsSwappable returns true only when the item may enter a swap or redemption.
func (i *Item) IsSwappable() bool {
	return i.State == ItemAvailable && !i.IsDeleted()
}

// TransitionTo moves the item to the next state if the transition is legal.
// Returns false and leaves the item untouched otherwise.
func (i *Item) TransitionTo(next ItemState) bool {
	if !i.State.CanTransition(next) {
		return false
	}
	i.State = next
	i.Touch()
	return true
}
