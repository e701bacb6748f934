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

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/items",
		Summary:     "List a new item",
		Description: "Creates a listing. Items enter moderation review before they become browsable.",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "browseItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "Browse available items",
		Description: "Returns AVAILABLE items with optional filters, search and sorting.",
		Tags:        []string{"Items"},
	}, s.handleBrowseItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item details",
		Description: "Returns one item. Hidden items are only visible to their owner and admins.",
		Tags:        []string{"Items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "redeemItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/items/{id}/redeem",
		Summary:     "Redeem an item with points",
		Description: "Buys an item outright for its full point value.",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRedeemItem)
}

// === DTOs ===

// CreateItemRequest is the request body for listing an item.
type CreateItemRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200" doc:"Item title"`
	Description string   `json:"description" validate:"omitempty,max=2000" required:"false" doc:"Item description"`
	Category    string   `json:"category" validate:"required,min=1,max=100" doc:"Category (tops, outerwear, ...)"`
	Size        string   `json:"size" validate:"omitempty,max=20" required:"false" doc:"Size label"`
	Condition   string   `json:"condition" validate:"required,oneof=NEW LIKE_NEW GOOD FAIR POOR" doc:"Item condition"`
	Type        string   `json:"type" validate:"required,oneof=CLOTHING SHOES ACCESSORIES" doc:"Item type"`
	Brand       string   `json:"brand" validate:"omitempty,max=100" required:"false" doc:"Brand name"`
	Color       string   `json:"color" validate:"omitempty,max=50" required:"false" doc:"Primary color"`
	Material    string   `json:"material" validate:"omitempty,max=100" required:"false" doc:"Material"`
	PointsValue int64    `json:"points_value" validate:"required,gt=0" doc:"Point value of the item"`
	ImageURLs   []string `json:"image_urls" validate:"omitempty,max=10,dive,url" required:"false" doc:"Item photos"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50" required:"false" doc:"Free-form tags"`
}

// CreateItemInput wraps the create request for Huma.
type CreateItemInput struct {
	Body CreateItemRequest
}

// BrowseItemsInput carries the browse query parameters.
type BrowseItemsInput struct {
	Category  string `query:"category" doc:"Filter by category"`
	Type      string `query:"type" doc:"Filter by item type"`
	Condition string `query:"condition" doc:"Filter by condition"`
	Search    string `query:"q" validate:"omitempty,max=200" doc:"Search in title and description"`
	Sort      string `query:"sort" validate:"omitempty,oneof=newest points views" doc:"Sort order (default newest)"`
	Cursor    string `query:"cursor" doc:"Pagination cursor"`
	Limit     int    `query:"limit" validate:"omitempty,gte=1,lte=200" doc:"Items per page (default 50)"`
}

// ItemIDInput identifies an item by path parameter.
type ItemIDInput struct {
	ID string `path:"id" doc:"Item ID"`
}

// ItemResponse contains item information in API responses.
type ItemResponse struct {
	ID          string    `json:"id" doc:"Item ID"`
	OwnerID     string    `json:"owner_id" doc:"Owning member ID"`
	Title       string    `json:"title" doc:"Item title"`
	Description string    `json:"description,omitempty" doc:"Item description"`
	Category    string    `json:"category" doc:"Category"`
	Size        string    `json:"size,omitempty" doc:"Size label"`
	Condition   string    `json:"condition" doc:"Item condition"`
	Type        string    `json:"type" doc:"Item type"`
	Brand       string    `json:"brand,omitempty" doc:"Brand name"`
	Color       string    `json:"color,omitempty" doc:"Primary color"`
	Material    string    `json:"material,omitempty" doc:"Material"`
	PointsValue int64     `json:"points_value" doc:"Point value"`
	State       string    `json:"state" doc:"Lifecycle state"`
	ImageURLs   []string  `json:"image_urls,omitempty" doc:"Item photos"`
	Tags        []string  `json:"tags,omitempty" doc:"Free-form tags"`
	ViewCount   int64     `json:"view_count" doc:"Detail view count"`
	Featured    bool      `json:"featured" doc:"Shown on the featured carousel"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// ItemOutput wraps a single item for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// ItemListResponse is a paginated item listing.
type ItemListResponse struct {
	Items      []ItemResponse `json:"items" doc:"Items on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
}

// ItemListOutput wraps an item listing for Huma.
type ItemListOutput struct {
	Body ItemListResponse
}

// === Handlers ===

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	memberID, err := s.RequireActiveMember(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	item, err := s.services.Registry.CreateItem(ctx, memberID, service.CreateItemInput{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Category:    input.Body.Category,
		Size:        input.Body.Size,
		Condition:   domain.Condition(input.Body.Condition),
		Type:        domain.ItemType(input.Body.Type),
		Brand:       input.Body.Brand,
		Color:       input.Body.Color,
		Material:    input.Body.Material,
		PointsValue: input.Body.PointsValue,
		ImageURLs:   input.Body.ImageURLs,
		Tags:        input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleBrowseItems(ctx context.Context, input *BrowseItemsInput) (*ItemListOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	result, err := s.services.Registry.Browse(ctx, service.BrowseInput{
		Category:  input.Category,
		Type:      domain.ItemType(input.Type),
		Condition: domain.Condition(input.Condition),
		Search:    input.Search,
		Sort:      parseItemSort(input.Sort),
	}, paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &ItemListOutput{Body: mapItemList(result)}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	// Browsing anonymously is fine; visibility narrows to public states.
	viewerID := ""
	isAdmin := false
	if claims, err := GetClaims(ctx); err == nil {
		viewerID = claims.MemberID
		isAdmin = claims.IsAdmin()
	}

	item, err := s.services.Registry.GetItem(ctx, input.ID, viewerID, isAdmin, true)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

func (s *Server) handleRedeemItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	memberID, err := s.RequireActiveMember(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Swap.Redeem(ctx, memberID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: mapItemResponse(item)}, nil
}

// === Helpers ===

func parseItemSort(sort string) store.ItemSort {
	switch sort {
	case "points":
		return store.SortPoints
	case "views":
		return store.SortViews
	default:
		return store.SortNewest
	}
}

func paginationParams(cursor string, limit int) store.PaginationParams {
	params := store.PaginationParams{Cursor: cursor, Limit: limit}
	params.Validate()
	return params
}

func mapItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Size:        item.Size,
		Condition:   string(item.Condition),
		Type:        string(item.Type),
		Brand:       item.Brand,
		Color:       item.Color,
		Material:    item.Material,
		PointsValue: item.PointsValue,
		State:       string(item.State),
		ImageURLs:   item.ImageURLs,
		Tags:        item.Tags,
		ViewCount:   item.ViewCount,
		Featured:    item.Featured,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func mapItemList(result *store.PaginatedResult[*domain.Item]) ItemListResponse {
	items := make([]ItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapItemResponse(item))
	}
	return ItemListResponse{
		Items:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}
}
