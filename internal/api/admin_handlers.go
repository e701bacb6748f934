package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/service"
	"github.com/rewearapp/rewear-server/internal/store"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/dashboard",
		Summary:     "Admin dashboard",
		Description: "Returns aggregate platform counters for the moderation overview.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPendingItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/items/pending",
		Summary:     "List items awaiting review",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListPendingItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFlaggedItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/items/flagged",
		Summary:     "List flagged items",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFlaggedItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "approveItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/items/{id}/approve",
		Summary:     "Approve an item",
		Description: "Clears an item through review (or lifts a flag) into the browsable pool.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleApproveItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "rejectItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/items/{id}/reject",
		Summary:     "Reject an item",
		Description: "Turns down a pending listing. A reason is required.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRejectItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "flagItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/items/{id}/flag",
		Summary:     "Flag an item",
		Description: "Pulls an item from circulation pending a second look. A reason is required.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFlagItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "unflagItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/items/{id}/unflag",
		Summary:     "Unflag an item",
		Description: "Returns a flagged item to circulation.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnflagItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/items/{id}/remove",
		Summary:     "Remove an item",
		Description: "Takes an item out of the system for good. A reason is required.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "banMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/members/{id}/ban",
		Summary:     "Ban a member",
		Description: "Locks a member out of the exchange and revokes their sessions. A reason is required.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBanMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "unbanMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/members/{id}/unban",
		Summary:     "Unban a member",
		Description: "Lifts a ban, letting the member sign in again.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnbanMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAdminActions",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/actions",
		Summary:     "List moderation actions",
		Description: "Returns the append-only moderation audit trail, newest first.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListAdminActions)
}

// === DTOs ===

// ModerationRequest is the request body for decisions that need a reason.
type ModerationRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500" doc:"Why this decision was made"`
}

// ModerationInput wraps a reasoned moderation request for Huma.
type ModerationInput struct {
	ID   string `path:"id" doc:"Item ID"`
	Body ModerationRequest
}

// MemberModerationInput wraps a reasoned member-level decision for Huma.
type MemberModerationInput struct {
	ID   string `path:"id" doc:"Member ID"`
	Body ModerationRequest
}

// MemberIDInput identifies a member by path parameter.
type MemberIDInput struct {
	ID string `path:"id" doc:"Member ID"`
}

// MemberOutput wraps a single member for Huma.
type MemberOutput struct {
	Body MemberResponse
}

// AdminListInput carries admin listing query parameters.
type AdminListInput struct {
	Cursor string `query:"cursor" doc:"Pagination cursor"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=200" doc:"Items per page (default 50)"`
}

// DashboardOutput wraps the dashboard counters for Huma.
type DashboardOutput struct {
	Body service.DashboardStats
}

// AdminActionResponse contains one audit record.
type AdminActionResponse struct {
	ID         string    `json:"id" doc:"Action ID"`
	AdminID    string    `json:"admin_id" doc:"Acting admin"`
	Action     string    `json:"action" doc:"Moderation operation"`
	TargetType string    `json:"target_type" doc:"Kind of entity acted on"`
	TargetID   string    `json:"target_id" doc:"Entity acted on"`
	Reason     string    `json:"reason,omitempty" doc:"Stated reason"`
	CreatedAt  time.Time `json:"created_at" doc:"When the action happened"`
}

// AdminActionListResponse is a paginated audit listing.
type AdminActionListResponse struct {
	Items      []AdminActionResponse `json:"items" doc:"Actions on this page"`
	NextCursor string                `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool                  `json:"has_more" doc:"Whether more pages exist"`
}

// AdminActionListOutput wraps an audit listing for Huma.
type AdminActionListOutput struct {
	Body AdminActionListResponse
}

// === Handlers ===

func (s *Server) handleAdminDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	stats, err := s.services.Moderation.Dashboard(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardOutput{Body: *stats}, nil
}

func (s *Server) handleListPendingItems(ctx context.Context, input *AdminListInput) (*ItemListOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Moderation.PendingReview(ctx, paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &ItemListOutput{Body: mapItemList(result)}, nil
}

func (s *Server) handleListFlaggedItems(ctx context.Context, input *AdminListInput) (*ItemListOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Moderation.Flagged(ctx, paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &ItemListOutput{Body: mapItemList(result)}, nil
}

func (s *Server) handleApproveItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Moderation.Approve(ctx, adminID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleRejectItem(ctx context.Context, input *ModerationInput) (*ItemOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	item, err := s.services.Moderation.Reject(ctx, adminID, input.ID, input.Body.Reason)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleFlagItem(ctx context.Context, input *ModerationInput) (*ItemOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	item, err := s.services.Moderation.Flag(ctx, adminID, input.ID, input.Body.Reason)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleUnflagItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Moderation.Unflag(ctx, adminID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleRemoveItem(ctx context.Context, input *ModerationInput) (*ItemOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	item, err := s.services.Moderation.Remove(ctx, adminID, input.ID, input.Body.Reason)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleListAdminActions(ctx context.Context, input *AdminListInput) (*AdminActionListOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Moderation.Actions(ctx, paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &AdminActionListOutput{Body: mapAdminActionList(result)}, nil
}

func (s *Server) handleBanMember(ctx context.Context, input *MemberModerationInput) (*MemberOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	member, err := s.services.Moderation.BanMember(ctx, adminID, input.ID, input.Body.Reason)
	if err != nil {
		return nil, err
	}

	return &MemberOutput{Body: mapMemberResponse(member)}, nil
}

func (s *Server) handleUnbanMember(ctx context.Context, input *MemberIDInput) (*MemberOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.services.Moderation.UnbanMember(ctx, adminID, input.ID)
	if err != nil {
		return nil, err
	}

	return &MemberOutput{Body: mapMemberResponse(member)}, nil
}

// === Helpers ===

func mapAdminActionList(result *store.PaginatedResult[*domain.AdminAction]) AdminActionListResponse {
	items := make([]AdminActionResponse, 0, len(result.Items))
	for _, action := range result.Items {
		items = append(items, AdminActionResponse{
			ID:         action.ID,
			AdminID:    action.AdminID,
			Action:     string(action.Action),
			TargetType: action.TargetType,
			TargetID:   action.TargetID,
			Reason:     action.Reason,
			CreatedAt:  action.CreatedAt,
		})
	}
	return AdminActionListResponse{
		Items:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}
}
