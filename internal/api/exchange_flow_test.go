package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listApprovedItem creates an item over HTTP and approves it as admin,
// returning the item ID.
func (ts *testServer) listApprovedItem(t *testing.T, ownerToken, adminToken string, points int64) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/items",
		"Authorization: Bearer "+ownerToken,
		map[string]any{
			"title":        "Wool Coat",
			"category":     "outerwear",
			"condition":    "GOOD",
			"type":         "CLOTHING",
			"points_value": points,
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	item := decodeEnvelope[ItemResponse](t, resp.Body.Bytes())
	require.Equal(t, "PENDING_REVIEW", item.Data.State)

	appResp := ts.api.Post("/api/v1/admin/items/"+item.Data.ID+"/approve",
		"Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, appResp.Code, appResp.Body.String())
	approved := decodeEnvelope[ItemResponse](t, appResp.Body.Bytes())
	require.Equal(t, "AVAILABLE", approved.Data.State)

	return item.Data.ID
}

func TestExchangeFlowEndToEnd(t *testing.T) {
	ts := setupTestServer(t)

	xToken, xID := ts.signupMember(t, "x@example.com")
	yToken, _ := ts.signupMember(t, "y@example.com")
	_, adminID := ts.signupMember(t, "admin@example.com")
	adminToken := ts.promoteToAdmin(t, adminID)

	shirtID := ts.listApprovedItem(t, xToken, adminToken, 10)
	jacketID := ts.listApprovedItem(t, yToken, adminToken, 15)

	// The approved jacket is browsable without authentication.
	browseResp := ts.api.Get("/api/v1/items")
	require.Equal(t, http.StatusOK, browseResp.Code)
	browse := decodeEnvelope[ItemListResponse](t, browseResp.Body.Bytes())
	assert.Len(t, browse.Data.Items, 2)

	// X offers the shirt for the jacket.
	swapResp := ts.api.Post("/api/v1/swaps",
		"Authorization: Bearer "+xToken,
		map[string]any{
			"offered_item_id":   shirtID,
			"requested_item_id": jacketID,
		})
	require.Equal(t, http.StatusOK, swapResp.Code, swapResp.Body.String())
	swap := decodeEnvelope[SwapResponse](t, swapResp.Body.Bytes())
	assert.Equal(t, "PENDING", swap.Data.State)
	assert.Equal(t, int64(5), swap.Data.PointsDiff)

	// Only the recipient may accept; the initiator gets a 403.
	selfResp := ts.api.Post("/api/v1/swaps/"+swap.Data.ID+"/respond",
		"Authorization: Bearer "+xToken,
		map[string]any{"accept": true})
	assert.Equal(t, http.StatusForbidden, selfResp.Code)

	// Y accepts; settlement completes the swap.
	acceptResp := ts.api.Post("/api/v1/swaps/"+swap.Data.ID+"/respond",
		"Authorization: Bearer "+yToken,
		map[string]any{"accept": true})
	require.Equal(t, http.StatusOK, acceptResp.Code, acceptResp.Body.String())
	settled := decodeEnvelope[SwapResponse](t, acceptResp.Body.Bytes())
	assert.Equal(t, "COMPLETED", settled.Data.State)

	// X paid the 5 point differential out of the signup bonus.
	balResp := ts.api.Get("/api/v1/points/balance", "Authorization: Bearer "+xToken)
	bal := decodeEnvelope[BalanceResponse](t, balResp.Body.Bytes())
	assert.Equal(t, int64(testSignupBonus-5), bal.Data.Balance)

	// The jacket now belongs to X and is out of circulation.
	itemResp := ts.api.Get("/api/v1/items/"+jacketID, "Authorization: Bearer "+xToken)
	require.Equal(t, http.StatusOK, itemResp.Code)
	jacket := decodeEnvelope[ItemResponse](t, itemResp.Body.Bytes())
	assert.Equal(t, "SWAPPED", jacket.Data.State)
	assert.Equal(t, xID, jacket.Data.OwnerID)
}

func TestRedeemFlow(t *testing.T) {
	ts := setupTestServer(t)

	ownerToken, _ := ts.signupMember(t, "owner@example.com")
	buyerToken, _ := ts.signupMember(t, "buyer@example.com")
	_, adminID := ts.signupMember(t, "admin@example.com")
	adminToken := ts.promoteToAdmin(t, adminID)

	itemID := ts.listApprovedItem(t, ownerToken, adminToken, 40)

	resp := ts.api.Post("/api/v1/items/"+itemID+"/redeem",
		"Authorization: Bearer "+buyerToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	item := decodeEnvelope[ItemResponse](t, resp.Body.Bytes())
	assert.Equal(t, "SWAPPED", item.Data.State)

	balResp := ts.api.Get("/api/v1/points/balance", "Authorization: Bearer "+buyerToken)
	bal := decodeEnvelope[BalanceResponse](t, balResp.Body.Bytes())
	assert.Equal(t, int64(testSignupBonus-40), bal.Data.Balance)

	// A too-expensive item fails with 402 and changes nothing.
	pricyID := ts.listApprovedItem(t, ownerToken, adminToken, 500)
	poorResp := ts.api.Post("/api/v1/items/"+pricyID+"/redeem",
		"Authorization: Bearer "+buyerToken)
	assert.Equal(t, http.StatusPaymentRequired, poorResp.Code)
}

func TestAdminRoutesForbiddenForMembers(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signupMember(t, "member@example.com")

	resp := ts.api.Get("/api/v1/admin/dashboard", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/admin/items/item_x/remove",
		"Authorization: Bearer "+token,
		map[string]any{"reason": "nope"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestModerationFlow(t *testing.T) {
	ts := setupTestServer(t)

	ownerToken, _ := ts.signupMember(t, "owner@example.com")
	_, adminID := ts.signupMember(t, "admin@example.com")
	adminToken := ts.promoteToAdmin(t, adminID)

	resp := ts.api.Post("/api/v1/items",
		"Authorization: Bearer "+ownerToken,
		map[string]any{
			"title":        "Suspicious Sneakers",
			"category":     "footwear",
			"condition":    "FAIR",
			"type":         "SHOES",
			"points_value": 20,
		})
	require.Equal(t, http.StatusOK, resp.Code)
	item := decodeEnvelope[ItemResponse](t, resp.Body.Bytes())

	// The pending queue shows it.
	queueResp := ts.api.Get("/api/v1/admin/items/pending", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, queueResp.Code)
	queue := decodeEnvelope[ItemListResponse](t, queueResp.Body.Bytes())
	require.Len(t, queue.Data.Items, 1)

	// Rejecting without a reason is a validation error.
	noReasonResp := ts.api.Post("/api/v1/admin/items/"+item.Data.ID+"/reject",
		"Authorization: Bearer "+adminToken,
		map[string]any{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, noReasonResp.Code)

	rejectResp := ts.api.Post("/api/v1/admin/items/"+item.Data.ID+"/reject",
		"Authorization: Bearer "+adminToken,
		map[string]any{"reason": "counterfeit brand"})
	require.Equal(t, http.StatusOK, rejectResp.Code)
	rejected := decodeEnvelope[ItemResponse](t, rejectResp.Body.Bytes())
	assert.Equal(t, "REJECTED", rejected.Data.State)

	// The audit trail recorded the decision.
	auditResp := ts.api.Get("/api/v1/admin/actions", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, auditResp.Code)
	audit := decodeEnvelope[AdminActionListResponse](t, auditResp.Body.Bytes())
	require.NotEmpty(t, audit.Data.Items)
	assert.Equal(t, "REJECT_ITEM", audit.Data.Items[0].Action)
	assert.Equal(t, "counterfeit brand", audit.Data.Items[0].Reason)
}

func TestBannedMemberLockedOutOfExchange(t *testing.T) {
	ts := setupTestServer(t)

	memberToken, memberID := ts.signupMember(t, "target@example.com")
	_, adminID := ts.signupMember(t, "admin@example.com")
	adminToken := ts.promoteToAdmin(t, adminID)

	banResp := ts.api.Post("/api/v1/admin/members/"+memberID+"/ban",
		"Authorization: Bearer "+adminToken,
		map[string]any{"reason": "counterfeit listings"})
	require.Equal(t, http.StatusOK, banResp.Code, banResp.Body.String())
	banned := decodeEnvelope[MemberResponse](t, banResp.Body.Bytes())
	require.True(t, banned.Data.Banned)

	// A still-valid access token no longer opens state-changing routes.
	itemResp := ts.api.Post("/api/v1/items",
		"Authorization: Bearer "+memberToken,
		map[string]any{
			"title":        "Wool Coat",
			"category":     "outerwear",
			"condition":    "GOOD",
			"type":         "CLOTHING",
			"points_value": 10,
		})
	require.Equal(t, http.StatusForbidden, itemResp.Code, itemResp.Body.String())

	loginResp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "target@example.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusForbidden, loginResp.Code, loginResp.Body.String())

	unbanResp := ts.api.Post("/api/v1/admin/members/"+memberID+"/unban",
		"Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, unbanResp.Code, unbanResp.Body.String())

	retryLogin := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "target@example.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, retryLogin.Code, retryLogin.Body.String())
}
