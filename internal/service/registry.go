package service

import (
	"context"
	"log/slog"

	"github.com/rewearapp/rewear-server/internal/cache"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/id"
	"github.com/rewearapp/rewear-server/internal/store"
)

// RegistryService owns the item lifecycle outside of moderation and
// settlement: listing creation, browsing, and detail views.
type RegistryService struct {
	store  store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewRegistryService creates a new registry service. The cache may be nil;
// view counting is then skipped.
func NewRegistryService(st store.Store, c *cache.Cache, logger *slog.Logger) *RegistryService {
	return &RegistryService{
		store:  st,
		cache:  c,
		logger: logger,
	}
}

// CreateItemInput holds the listing attributes a member submits.
type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	Size        string
	Condition   domain.Condition
	Type        domain.ItemType
	Brand       string
	Color       string
	Material    string
	PointsValue int64
	ImageURLs   []string
	Tags        []string
}

// CreateItem lists a new item for the member. Listings enter PENDING_REVIEW
// directly; only a moderator can make them visible.
func (s *RegistryService) CreateItem(ctx context.Context, ownerID string, in CreateItemInput) (*domain.Item, error) {
	if !in.Condition.Valid() {
		return nil, errors.Validationf("unknown condition %q", in.Condition)
	}
	if !in.Type.Valid() {
		return nil, errors.Validationf("unknown item type %q", in.Type)
	}
	if in.PointsValue <= 0 {
		return nil, errors.Validationf("points value must be positive, got %d", in.PointsValue)
	}

	itemID, err := id.Generate("item")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate item ID")
	}

	item := &domain.Item{
		Entity:      domain.Entity{ID: itemID},
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Size:        in.Size,
		Condition:   in.Condition,
		Type:        in.Type,
		Brand:       in.Brand,
		Color:       in.Color,
		Material:    in.Material,
		PointsValue: in.PointsValue,
		State:       domain.ItemPendingReview,
		ImageURLs:   in.ImageURLs,
		Tags:        in.Tags,
	}
	item.InitTimestamps()

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create item")
	}

	s.logger.Info("Item listed",
		"item_id", item.ID,
		"owner_id", ownerID,
		"points_value", item.PointsValue,
	)

	return item, nil
}

// BrowseInput narrows the public browse listing.
type BrowseInput struct {
	Category  string
	Type      domain.ItemType
	Condition domain.Condition
	Search    string
	Sort      store.ItemSort
	Featured  *bool
}

// Browse returns publicly visible items: AVAILABLE only.
func (s *RegistryService) Browse(ctx context.Context, in BrowseInput, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	filter := store.ItemFilter{
		States:    []domain.ItemState{domain.ItemAvailable},
		Category:  in.Category,
		Type:      in.Type,
		Condition: in.Condition,
		Search:    in.Search,
		Sort:      in.Sort,
		Featured:  in.Featured,
	}

	result, err := s.store.ListItems(ctx, filter, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "browse items")
	}
	return result, nil
}

// GetItem returns one item. Non-owners only see publicly visible states;
// owners and admins see everything. countView buffers a view-counter
// increment for public detail views.
func (s *RegistryService) GetItem(ctx context.Context, itemID, viewerID string, isAdmin, countView bool) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(mapStoreErr(err), errors.ErrNotFound) {
			return nil, errors.NotFoundf("item %s not found", itemID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get item")
	}

	if item.OwnerID != viewerID && !isAdmin && !publiclyVisible(item.State) {
		// Hidden items look absent rather than forbidden.
		return nil, errors.NotFoundf("item %s not found", itemID)
	}

	if countView && s.cache != nil && item.OwnerID != viewerID {
		s.cache.IncView(item.ID)
	}

	return item, nil
}

// publiclyVisible reports whether non-owners may see an item in this state.
// RESERVED and SWAPPED stay visible so swap partners can inspect them.
func publiclyVisible(state domain.ItemState) bool {
	switch state {
	case domain.ItemAvailable, domain.ItemReserved, domain.ItemSwapped:
		return true
	}
	return false
}

// MemberItems returns all of the member's own listings, any state.
func (s *RegistryService) MemberItems(ctx context.Context, memberID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	result, err := s.store.ListItems(ctx, store.ItemFilter{OwnerID: memberID}, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list member items")
	}
	return result, nil
}

// FlushViews drains buffered view counts into the store. Called by the
// background flush job.
func (s *RegistryService) FlushViews(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}

	counts, err := s.cache.DrainViews()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "drain view counters")
	}
	if len(counts) == 0 {
		return 0, nil
	}

	if err := s.store.AddViewCounts(ctx, counts); err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "flush view counters")
	}
	return len(counts), nil
}
