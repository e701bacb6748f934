package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

func (s *Server) registerSwapRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "requestSwap",
		Method:      http.MethodPost,
		Path:        "/api/v1/swaps",
		Summary:     "Request a swap",
		Description: "Offers one of your items against another member's item. The recipient is derived from item ownership.",
		Tags:        []string{"Swaps"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRequestSwap)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMySwaps",
		Method:      http.MethodGet,
		Path:        "/api/v1/swaps",
		Summary:     "List my swaps",
		Description: "Returns swaps you initiated or received, newest first.",
		Tags:        []string{"Swaps"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMySwaps)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSwap",
		Method:      http.MethodGet,
		Path:        "/api/v1/swaps/{id}",
		Summary:     "Get swap details",
		Description: "Returns one swap. Only participants and admins may see it.",
		Tags:        []string{"Swaps"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSwap)

	huma.Register(s.api, huma.Operation{
		OperationID: "respondToSwap",
		Method:      http.MethodPost,
		Path:        "/api/v1/swaps/{id}/respond",
		Summary:     "Accept or reject a swap",
		Description: "Recipient only. Accepting settles the swap atomically: both items change hands and the points differential moves on the ledger.",
		Tags:        []string{"Swaps"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRespondToSwap)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelSwap",
		Method:      http.MethodPost,
		Path:        "/api/v1/swaps/{id}/cancel",
		Summary:     "Cancel a swap request",
		Description: "Initiator only; the swap must still be pending.",
		Tags:        []string{"Swaps"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCancelSwap)
}

// === DTOs ===

// RequestSwapRequest is the request body for creating a swap.
type RequestSwapRequest struct {
	OfferedItemID   string `json:"offered_item_id" validate:"required" doc:"Your item to offer"`
	RequestedItemID string `json:"requested_item_id" validate:"required" doc:"The item you want"`
}

// RequestSwapInput wraps the swap request for Huma.
type RequestSwapInput struct {
	Body RequestSwapRequest
}

// SwapIDInput identifies a swap by path parameter.
type SwapIDInput struct {
	ID string `path:"id" doc:"Swap ID"`
}

// RespondToSwapRequest is the request body for a swap response.
type RespondToSwapRequest struct {
	Accept bool `json:"accept" doc:"True to accept and settle, false to reject"`
}

// RespondToSwapInput wraps the response request for Huma.
type RespondToSwapInput struct {
	ID   string `path:"id" doc:"Swap ID"`
	Body RespondToSwapRequest
}

// ListSwapsInput carries swap listing query parameters.
type ListSwapsInput struct {
	Cursor string `query:"cursor" doc:"Pagination cursor"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=200" doc:"Items per page (default 50)"`
}

// SwapResponse contains swap information in API responses.
type SwapResponse struct {
	ID              string     `json:"id" doc:"Swap ID"`
	InitiatorID     string     `json:"initiator_id" doc:"Initiating member"`
	InitiatorItemID string     `json:"initiator_item_id" doc:"Item offered by the initiator"`
	RecipientID     string     `json:"recipient_id" doc:"Receiving member"`
	RecipientItemID string     `json:"recipient_item_id" doc:"Item requested from the recipient"`
	State           string     `json:"state" doc:"Swap lifecycle state"`
	PointsDiff      int64      `json:"points_diff" doc:"Points the initiator owes (negative: is owed)"`
	CancelReason    string     `json:"cancel_reason,omitempty" doc:"Why the swap was cancelled"`
	CreatedAt       time.Time  `json:"created_at" doc:"Creation timestamp"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" doc:"Terminal resolution timestamp"`
}

// SwapOutput wraps a single swap for Huma.
type SwapOutput struct {
	Body SwapResponse
}

// SwapListResponse is a paginated swap listing.
type SwapListResponse struct {
	Items      []SwapResponse `json:"items" doc:"Swaps on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
}

// SwapListOutput wraps a swap listing for Huma.
type SwapListOutput struct {
	Body SwapListResponse
}

// === Handlers ===

func (s *Server) handleRequestSwap(ctx context.Context, input *RequestSwapInput) (*SwapOutput, error) {
	memberID, err := s.RequireActiveMember(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	swap, err := s.services.Swap.Request(ctx, memberID, input.Body.OfferedItemID, input.Body.RequestedItemID)
	if err != nil {
		return nil, err
	}

	return &SwapOutput{Body: mapSwapResponse(swap)}, nil
}

func (s *Server) handleListMySwaps(ctx context.Context, input *ListSwapsInput) (*SwapListOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	result, err := s.services.Swap.MemberSwaps(ctx, memberID, paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &SwapListOutput{Body: mapSwapList(result)}, nil
}

func (s *Server) handleGetSwap(ctx context.Context, input *SwapIDInput) (*SwapOutput, error) {
	claims, err := GetClaims(ctx)
	if err != nil {
		return nil, err
	}

	swap, err := s.services.Swap.Get(ctx, claims.MemberID, input.ID, claims.IsAdmin())
	if err != nil {
		return nil, err
	}

	return &SwapOutput{Body: mapSwapResponse(swap)}, nil
}

func (s *Server) handleRespondToSwap(ctx context.Context, input *RespondToSwapInput) (*SwapOutput, error) {
	memberID, err := s.RequireActiveMember(ctx)
	if err != nil {
		return nil, err
	}

	swap, err := s.services.Swap.Respond(ctx, memberID, input.ID, input.Body.Accept)
	if err != nil {
		return nil, err
	}

	return &SwapOutput{Body: mapSwapResponse(swap)}, nil
}

func (s *Server) handleCancelSwap(ctx context.Context, input *SwapIDInput) (*SwapOutput, error) {
	memberID, err := s.RequireActiveMember(ctx)
	if err != nil {
		return nil, err
	}

	swap, err := s.services.Swap.Cancel(ctx, memberID, input.ID)
	if err != nil {
		return nil, err
	}

	return &SwapOutput{Body: mapSwapResponse(swap)}, nil
}

// === Helpers ===

func mapSwapResponse(swap *domain.SwapRequest) SwapResponse {
	return SwapResponse{
		ID:              swap.ID,
		InitiatorID:     swap.InitiatorID,
		InitiatorItemID: swap.InitiatorItemID,
		RecipientID:     swap.RecipientID,
		RecipientItemID: swap.RecipientItemID,
		State:           string(swap.State),
		PointsDiff:      swap.PointsDiff,
		CancelReason:    string(swap.CancelReason),
		CreatedAt:       swap.CreatedAt,
		ResolvedAt:      swap.ResolvedAt,
	}
}

func mapSwapList(result *store.PaginatedResult[*domain.SwapRequest]) SwapListResponse {
	items := make([]SwapResponse, 0, len(result.Items))
	for _, swap := range result.Items {
		items = append(items, mapSwapResponse(swap))
	}
	return SwapListResponse{
		Items:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}
}
