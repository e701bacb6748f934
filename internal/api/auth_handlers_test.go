package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupFlow(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":        "new@example.com",
		"password":     "TestPassword123!",
		"display_name": "New Member",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "member", envelope.Data.Member.Role)

	// The signup bonus shows up on the points endpoint.
	balResp := ts.api.Get("/api/v1/points/balance",
		"Authorization: Bearer "+envelope.Data.AccessToken)
	require.Equal(t, http.StatusOK, balResp.Code)
	balEnvelope := decodeEnvelope[BalanceResponse](t, balResp.Body.Bytes())
	assert.Equal(t, int64(testSignupBonus), balEnvelope.Data.Balance)

	// And as an EARNED entry in the history.
	histResp := ts.api.Get("/api/v1/points/history",
		"Authorization: Bearer "+envelope.Data.AccessToken)
	require.Equal(t, http.StatusOK, histResp.Code)
	histEnvelope := decodeEnvelope[LedgerHistoryResponse](t, histResp.Body.Bytes())
	require.Len(t, histEnvelope.Data.Items, 1)
	assert.Equal(t, "EARNED", histEnvelope.Data.Items[0].Kind)
}

func TestSignupValidation(t *testing.T) {
	ts := setupTestServer(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"password": "TestPassword123!", "display_name": "X"}},
		{"bad email", map[string]any{"email": "not-an-email", "password": "TestPassword123!", "display_name": "X"}},
		{"short password", map[string]any{"email": "a@example.com", "password": "short", "display_name": "X"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/signup", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
		})
	}
}

func TestSignupDuplicateEmailConflict(t *testing.T) {
	ts := setupTestServer(t)
	ts.signupMember(t, "dup@example.com")

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":        "dup@example.com",
		"password":     "TestPassword123!",
		"display_name": "Someone Else",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestLoginAndRefresh(t *testing.T) {
	ts := setupTestServer(t)
	ts.signupMember(t, "m@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "m@example.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	// Wrong password is a 401, indistinguishable from unknown email.
	badResp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "m@example.com",
		"password": "WrongPassword!",
	})
	assert.Equal(t, http.StatusUnauthorized, badResp.Code)

	// Refresh rotates the token; the spent one stops working.
	refResp := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": envelope.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refResp.Code)

	replayResp := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": envelope.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, replayResp.Code)
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":        "m@example.com",
		"password":     "TestPassword123!",
		"display_name": "M",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	outResp := ts.api.Post("/api/v1/auth/logout", map[string]any{
		"refresh_token": envelope.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, outResp.Code)

	refResp := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": envelope.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, refResp.Code)
}
