package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

// entryColumns is the ordered list of columns selected in ledger queries.
// Must match the scan order in scanEntry.
const entryColumns = `id, member_id, amount, kind, reason, related_swap_id, created_at`

// scanEntry scans a sql.Row (or sql.Rows via its Scan method) into a domain.LedgerEntry.
func scanEntry(scanner interface{ Scan(dest ...any) error }) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry

	var (
		kind      string
		createdAt string
	)

	err := scanner.Scan(
		&e.ID,
		&e.MemberID,
		&e.Amount,
		&kind,
		&e.Reason,
		&e.RelatedSwapID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	e.Kind = domain.EntryKind(kind)

	return &e, nil
}

// queryer abstracts *sql.DB and *sql.Tx for reads inside and outside transactions.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// balanceTx sums a member's entries. The sum over an empty set is zero.
func balanceTx(ctx context.Context, q queryer, memberID string) (int64, error) {
	var balance int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE member_id = ?`,
		memberID).Scan(&balance)
	return balance, err
}

// recordEntryTx appends one ledger entry. For debits it re-checks the derived
// balance inside the same transaction, so the never-negative invariant holds
// under the single-writer guarantee of the enclosing tx.
func recordEntryTx(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	if !entry.Consistent() {
		return store.ErrInvalidInput.WithMessage(
			fmt.Sprintf("entry kind %s does not match amount %d", entry.Kind, entry.Amount))
	}

	if entry.Amount < 0 {
		balance, err := balanceTx(ctx, tx, entry.MemberID)
		if err != nil {
			return err
		}
		if balance+entry.Amount < 0 {
			return store.ErrInsufficientBalance
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (
			id, member_id, amount, kind, reason, related_swap_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.MemberID,
		entry.Amount,
		string(entry.Kind),
		entry.Reason,
		entry.RelatedSwapID,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// RecordEntry appends a ledger entry, refusing any debit that would take the
// member's balance below zero.
func (s *Store) RecordEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := recordEntryTx(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBalance derives the member's balance by summing their entries.
// A member with no entries has balance zero.
func (s *Store) GetBalance(ctx context.Context, memberID string) (int64, error) {
	return balanceTx(ctx, s.db, memberID)
}

// ListEntries returns a paginated list of the member's entries, newest first.
func (s *Store) ListEntries(ctx context.Context, memberID string, filter store.EntryFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.LedgerEntry], error) {
	params.Validate()

	kindClause := ""
	countArgs := []any{memberID}
	if filter.Kind != "" {
		kindClause = " AND kind = ?"
		countArgs = append(countArgs, filter.Kind)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE member_id = ?`+kindClause, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	args := append([]any{}, countArgs...)
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
		`SELECT `+entryColumns+` FROM ledger_entries
		WHERE member_id = ?`+kindClause+cursorClause+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, append(args, params.Limit+1)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(entries) > params.Limit
	if hasMore {
		entries = entries[:params.Limit]
	}

	var nextCursor string
	if hasMore && len(entries) > 0 {
		last := entries[len(entries)-1]
		nextCursor = store.EncodeCursor(formatTime(last.CreatedAt) + "|" + last.ID)
	}

	return &store.PaginatedResult[*domain.LedgerEntry]{
		Items:      entries,
		Total:      total,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}
