package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

// swapColumns is the ordered list of columns selected in swap queries.
// Must match the scan order in scanSwap.
const swapColumns = `id, created_at, updated_at, deleted_at,
	initiator_id, initiator_item_id, recipient_id, recipient_item_id,
	state, points_diff, cancel_reason, resolved_at`

// scanSwap scans a sql.Row (or sql.Rows via its Scan method) into a domain.SwapRequest.
func scanSwap(scanner interface{ Scan(dest ...any) error }) (*domain.SwapRequest, error) {
	var sr domain.SwapRequest

	var (
		createdAt    string
		updatedAt    string
		deletedAt    sql.NullString
		state        string
		cancelReason string
		resolvedAt   sql.NullString
	)

	err := scanner.Scan(
		&sr.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&sr.InitiatorID,
		&sr.InitiatorItemID,
		&sr.RecipientID,
		&sr.RecipientItemID,
		&state,
		&sr.PointsDiff,
		&cancelReason,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	sr.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sr.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	sr.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}
	sr.ResolvedAt, err = parseNullableTime(resolvedAt)
	if err != nil {
		return nil, err
	}

	sr.State = domain.SwapState(state)
	sr.CancelReason = domain.CancelReason(cancelReason)

	return &sr, nil
}

// CreateSwap inserts a new swap request into the database.
func (s *Store) CreateSwap(ctx context.Context, swap *domain.SwapRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO swap_requests (
			id, created_at, updated_at, deleted_at,
			initiator_id, initiator_item_id, recipient_id, recipient_item_id,
			state, points_diff, cancel_reason, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		swap.ID,
		formatTime(swap.CreatedAt),
		formatTime(swap.UpdatedAt),
		nullTimeString(swap.DeletedAt),
		swap.InitiatorID,
		swap.InitiatorItemID,
		swap.RecipientID,
		swap.RecipientItemID,
		string(swap.State),
		swap.PointsDiff,
		string(swap.CancelReason),
		nullTimeString(swap.ResolvedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetSwap retrieves a swap request by ID.
// Returns store.ErrNotFound if the swap does not exist.
func (s *Store) GetSwap(ctx context.Context, id string) (*domain.SwapRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests WHERE id = ? AND deleted_at IS NULL`, id)

	sr, err := scanSwap(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// UpdateSwap writes the swap's mutable fields, guarded so that a swap
// already in a terminal state can never be rewritten.
// Returns store.ErrStateConflict if the row was resolved concurrently.
func (s *Store) UpdateSwap(ctx context.Context, swap *domain.SwapRequest) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE swap_requests SET
			updated_at = ?,
			state = ?,
			cancel_reason = ?,
			resolved_at = ?
		WHERE id = ? AND deleted_at IS NULL
		AND state NOT IN ('REJECTED', 'CANCELLED', 'COMPLETED')`,
		formatTime(swap.UpdatedAt),
		string(swap.State),
		string(swap.CancelReason),
		nullTimeString(swap.ResolvedAt),
		swap.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing row from lost race.
		var exists int
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM swap_requests WHERE id = ? AND deleted_at IS NULL`, swap.ID).Scan(&exists)
		if checkErr == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if checkErr != nil {
			return checkErr
		}
		return store.ErrStateConflict
	}
	return nil
}

// ListMemberSwaps returns a paginated list of the member's swaps, newest first.
// Both initiated and received swaps are included.
func (s *Store) ListMemberSwaps(ctx context.Context, memberID string, params store.PaginationParams) (*store.PaginatedResult[*domain.SwapRequest], error) {
	params.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM swap_requests
		WHERE deleted_at IS NULL AND (initiator_id = ? OR recipient_id = ?)`,
		memberID, memberID).Scan(&total); err != nil {
		return nil, err
	}

	args := []any{memberID, memberID}
	cursorClause := ""
	if params.Cursor != "" {
		decoded, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
		parts := strings.SplitN(decoded, "|", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cursor format")
		}
		cursorClause = " AND (created_at < ? OR (created_at = ? AND id < ?))"
		args = append(args, parts[0], parts[0], parts[1])
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests
		WHERE deleted_at IS NULL AND (initiator_id = ? OR recipient_id = ?)`+cursorClause+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, append(args, params.Limit+1)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []*domain.SwapRequest
	for rows.Next() {
		sr, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(swaps) > params.Limit
	if hasMore {
		swaps = swaps[:params.Limit]
	}

	var nextCursor string
	if hasMore && len(swaps) > 0 {
		last := swaps[len(swaps)-1]
		nextCursor = store.EncodeCursor(formatTime(last.CreatedAt) + "|" + last.ID)
	}

	return &store.PaginatedResult[*domain.SwapRequest]{
		Items:      swaps,
		Total:      total,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}

// ListActiveSwapsForItem returns non-terminal swaps that hold the item on
// either side. Used for the duplicate-active-swap guard.
func (s *Store) ListActiveSwapsForItem(ctx context.Context, itemID string) ([]*domain.SwapRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests
		WHERE deleted_at IS NULL
		AND (initiator_item_id = ? OR recipient_item_id = ?)
		AND state IN ('PENDING', 'ACCEPTED')
		ORDER BY created_at ASC`, itemID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []*domain.SwapRequest
	for rows.Next() {
		sr, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, sr)
	}
	return swaps, rows.Err()
}

// ListExpiredPendingSwaps returns PENDING swaps created before the cutoff.
func (s *Store) ListExpiredPendingSwaps(ctx context.Context, before time.Time) ([]*domain.SwapRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+swapColumns+` FROM swap_requests
		WHERE deleted_at IS NULL AND state = 'PENDING' AND created_at < ?
		ORDER BY created_at ASC`, formatTime(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []*domain.SwapRequest
	for rows.Next() {
		sr, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, sr)
	}
	return swaps, rows.Err()
}

// CountSwapsByState returns swap counts grouped by state.
func (s *Store) CountSwapsByState(ctx context.Context) (map[domain.SwapState]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM swap_requests WHERE deleted_at IS NULL GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.SwapState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[domain.SwapState(state)] = n
	}
	return counts, rows.Err()
}
