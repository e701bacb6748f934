package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/rewearapp/rewear-server/internal/auth"
	"github.com/rewearapp/rewear-server/internal/service"
	"github.com/rewearapp/rewear-server/internal/store/sqlite"
)

// testEnvelope mirrors the versioned response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

const testSignupBonus = 100

// setupTestServer creates a test server backed by a temporary sqlite store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.DiscardHandler)

	tokens, err := auth.NewTokenService(
		strings.Repeat("cd", 32),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	ledger := service.NewLedgerService(st, nil, logger)
	locks := service.NewEntityLocks()
	services := &Services{
		Auth:       service.NewAuthService(st, tokens, ledger, logger, testSignupBonus),
		Member:     service.NewMemberService(st, ledger, logger),
		Registry:   service.NewRegistryService(st, nil, logger),
		Ledger:     ledger,
		Swap:       service.NewSwapService(st, ledger, locks, logger, 7*24*time.Hour),
		Moderation: service.NewModerationService(st, locks, logger),
	}

	s := NewServer(st, services, tokens, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// signupMember registers a member over HTTP and returns the access token
// and member ID.
func (ts *testServer) signupMember(t *testing.T, email string) (token, memberID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":        email,
		"password":     "TestPassword123!",
		"display_name": "Test Member",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Signup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	return envelope.Data.AccessToken, envelope.Data.Member.ID
}

// promoteToAdmin flips a member's role directly in the store, then returns a
// fresh token carrying the admin role.
func (ts *testServer) promoteToAdmin(t *testing.T, memberID string) string {
	t.Helper()

	member, err := ts.store.GetMember(t.Context(), memberID)
	require.NoError(t, err)
	member.Role = "admin"
	require.NoError(t, ts.store.UpdateMember(t.Context(), member))

	token, err := ts.tokens.GenerateAccessToken(member)
	require.NoError(t, err)
	return token
}

// decodeEnvelope unmarshals a response body into a typed envelope.
func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	require.True(t, envelope.Success)
	require.Equal(t, EnvelopeVersion, envelope.Version)
	require.Equal(t, "healthy", envelope.Data.Status)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ts := setupTestServer(t)

	for _, route := range []string{
		"/api/v1/members/me",
		"/api/v1/points/balance",
		"/api/v1/swaps",
	} {
		resp := ts.api.Get(route)
		require.Equal(t, http.StatusUnauthorized, resp.Code, "route %s", route)
	}
}
