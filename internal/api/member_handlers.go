package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rewearapp/rewear-server/internal/service"
)

func (s *Server) registerMemberRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentMember",
		Method:      http.MethodGet,
		Path:        "/api/v1/members/me",
		Summary:     "Get my profile",
		Description: "Returns the authenticated member's profile with the current point balance.",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentMember",
		Method:      http.MethodPatch,
		Path:        "/api/v1/members/me",
		Summary:     "Update my profile",
		Description: "Applies partial edits to the authenticated member's profile.",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/members/me/items",
		Summary:     "List my items",
		Description: "Returns all of the authenticated member's listings, in any state.",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyItems)
}

// === DTOs ===

// ProfileResponse is a member profile with the derived balance.
type ProfileResponse struct {
	MemberResponse
	Balance int64 `json:"balance" doc:"Current point balance, derived from the ledger"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// UpdateProfileRequest carries partial profile edits. Absent fields keep
// their current value.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100" doc:"Public display name"`
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=100" doc:"First name"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=100" doc:"Last name"`
}

// UpdateProfileInput wraps the update request for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// ListMyItemsInput carries listing query parameters.
type ListMyItemsInput struct {
	Cursor string `query:"cursor" doc:"Pagination cursor"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=200" doc:"Items per page (default 50)"`
}

// === Handlers ===

func (s *Server) handleGetCurrentMember(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Member.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapProfileResponse(profile)}, nil
}

func (s *Server) handleUpdateCurrentMember(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	memberID, err := s.RequireActiveMember(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	profile, err := s.services.Member.UpdateProfile(ctx, memberID, service.UpdateProfileInput{
		DisplayName: input.Body.DisplayName,
		FirstName:   input.Body.FirstName,
		LastName:    input.Body.LastName,
	})
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapProfileResponse(profile)}, nil
}

func (s *Server) handleListMyItems(ctx context.Context, input *ListMyItemsInput) (*ItemListOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	result, err := s.services.Registry.MemberItems(ctx, memberID, paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &ItemListOutput{Body: mapItemList(result)}, nil
}

// === Helpers ===

func mapProfileResponse(profile *service.Profile) ProfileResponse {
	return ProfileResponse{
		MemberResponse: mapMemberResponse(profile.Member),
		Balance:        profile.Balance,
	}
}
