package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

func (s *Server) registerPointsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBalance",
		Method:      http.MethodGet,
		Path:        "/api/v1/points/balance",
		Summary:     "Get my point balance",
		Description: "Returns the balance derived from the authenticated member's ledger.",
		Tags:        []string{"Points"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBalance)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLedgerEntries",
		Method:      http.MethodGet,
		Path:        "/api/v1/points/history",
		Summary:     "List my point movements",
		Description: "Returns the authenticated member's ledger entries, newest first.",
		Tags:        []string{"Points"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListLedgerEntries)
}

// === DTOs ===

// BalanceResponse contains the derived point balance.
type BalanceResponse struct {
	Balance int64 `json:"balance" doc:"Current point balance"`
}

// BalanceOutput wraps a balance for Huma.
type BalanceOutput struct {
	Body BalanceResponse
}

// LedgerHistoryInput carries ledger listing query parameters.
type LedgerHistoryInput struct {
	Kind   string `query:"kind" validate:"omitempty,oneof=EARNED SPENT" doc:"Restrict to EARNED or SPENT entries"`
	Cursor string `query:"cursor" doc:"Pagination cursor"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=200" doc:"Entries per page (default 50)"`
}

// LedgerEntryResponse contains one point movement.
type LedgerEntryResponse struct {
	ID            string    `json:"id" doc:"Entry ID"`
	Amount        int64     `json:"amount" doc:"Signed point amount"`
	Kind          string    `json:"kind" doc:"EARNED or SPENT"`
	Reason        string    `json:"reason" doc:"Human-readable reason"`
	RelatedSwapID string    `json:"related_swap_id,omitempty" doc:"Swap that produced this movement"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation timestamp"`
}

// LedgerHistoryResponse is a paginated ledger listing.
type LedgerHistoryResponse struct {
	Items      []LedgerEntryResponse `json:"items" doc:"Entries on this page"`
	NextCursor string                `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool                  `json:"has_more" doc:"Whether more pages exist"`
}

// LedgerHistoryOutput wraps a ledger listing for Huma.
type LedgerHistoryOutput struct {
	Body LedgerHistoryResponse
}

// === Handlers ===

func (s *Server) handleGetBalance(ctx context.Context, _ *struct{}) (*BalanceOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.services.Ledger.Balance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &BalanceOutput{Body: BalanceResponse{Balance: balance}}, nil
}

func (s *Server) handleListLedgerEntries(ctx context.Context, input *LedgerHistoryInput) (*LedgerHistoryOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	result, err := s.services.Ledger.History(ctx, memberID, domain.EntryKind(input.Kind), paginationParams(input.Cursor, input.Limit))
	if err != nil {
		return nil, err
	}

	return &LedgerHistoryOutput{Body: mapLedgerHistory(result)}, nil
}

// === Helpers ===

func mapLedgerHistory(result *store.PaginatedResult[*domain.LedgerEntry]) LedgerHistoryResponse {
	items := make([]LedgerEntryResponse, 0, len(result.Items))
	for _, entry := range result.Items {
		items = append(items, LedgerEntryResponse{
			ID:            entry.ID,
			Amount:        entry.Amount,
			Kind:          string(entry.Kind),
			Reason:        entry.Reason,
			RelatedSwapID: entry.RelatedSwapID,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return LedgerHistoryResponse{
		Items:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}
}
