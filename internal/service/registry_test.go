package service

import (
	"context"
	"testing"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemEntersReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createTestMember(t, env, "owner@example.com", domain.RoleMember)

	item, err := env.registry.CreateItem(ctx, owner.ID, CreateItemInput{
		Title:       "Denim Jacket",
		Description: "Lightly worn",
		Category:    "outerwear",
		Size:        "L",
		Condition:   domain.ConditionLikeNew,
		Type:        domain.TypeClothing,
		PointsValue: 40,
		Tags:        []string{"denim"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ItemPendingReview, item.State)
	assert.Equal(t, owner.ID, item.OwnerID)
	assert.False(t, item.IsSwappable())
}

func TestCreateItemValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createTestMember(t, env, "owner@example.com", domain.RoleMember)

	cases := []struct {
		name string
		in   CreateItemInput
	}{
		{"bad condition", CreateItemInput{Condition: "MINT", Type: domain.TypeClothing, PointsValue: 10}},
		{"bad type", CreateItemInput{Condition: domain.ConditionGood, Type: "HATS", PointsValue: 10}},
		{"zero points", CreateItemInput{Condition: domain.ConditionGood, Type: domain.TypeClothing, PointsValue: 0}},
		{"negative points", CreateItemInput{Condition: domain.ConditionGood, Type: domain.TypeClothing, PointsValue: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.registry.CreateItem(ctx, owner.ID, tc.in)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestBrowseOnlyAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createTestMember(t, env, "owner@example.com", domain.RoleMember)
	available := createTestItem(t, env, owner.ID, 10, domain.ItemAvailable)
	createTestItem(t, env, owner.ID, 10, domain.ItemPendingReview)
	createTestItem(t, env, owner.ID, 10, domain.ItemFlagged)
	createTestItem(t, env, owner.ID, 10, domain.ItemRemoved)

	result, err := env.registry.Browse(ctx, BrowseInput{}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, available.ID, result.Items[0].ID)
}

func TestGetItemVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createTestMember(t, env, "owner@example.com", domain.RoleMember)
	stranger := createTestMember(t, env, "stranger@example.com", domain.RoleMember)
	hidden := createTestItem(t, env, owner.ID, 10, domain.ItemPendingReview)
	visible := createTestItem(t, env, owner.ID, 10, domain.ItemAvailable)

	// Owners see their own hidden listings; strangers get a 404, not a 403.
	_, err := env.registry.GetItem(ctx, hidden.ID, owner.ID, false, false)
	assert.NoError(t, err)
	_, err = env.registry.GetItem(ctx, hidden.ID, stranger.ID, false, false)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = env.registry.GetItem(ctx, hidden.ID, stranger.ID, true, false)
	assert.NoError(t, err)

	_, err = env.registry.GetItem(ctx, visible.ID, stranger.ID, false, false)
	assert.NoError(t, err)
}

func TestMemberItemsAllStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createTestMember(t, env, "owner@example.com", domain.RoleMember)
	other := createTestMember(t, env, "other@example.com", domain.RoleMember)
	createTestItem(t, env, owner.ID, 10, domain.ItemDraft)
	createTestItem(t, env, owner.ID, 10, domain.ItemAvailable)
	createTestItem(t, env, owner.ID, 10, domain.ItemRejected)
	createTestItem(t, env, other.ID, 10, domain.ItemAvailable)

	result, err := env.registry.MemberItems(ctx, owner.ID, store.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
}
