package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

// actionColumns is the ordered list of columns selected in admin action queries.
// Must match the scan order in scanAdminAction.
const actionColumns = `id, admin_id, action, target_type, target_id, reason, created_at`

// scanAdminAction scans a sql.Row (or sql.Rows via its Scan method) into a domain.AdminAction.
func scanAdminAction(scanner interface{ Scan(dest ...any) error }) (*domain.AdminAction, error) {
	var a domain.AdminAction

	var (
		action    string
		createdAt string
	)

	err := scanner.Scan(
		&a.ID,
		&a.AdminID,
		&action,
		&a.TargetType,
		&a.TargetID,
		&a.Reason,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	a.Action = domain.AdminActionType(action)

	return &a, nil
}

// RecordAdminAction appends a moderation decision to the audit trail.
func (s *Store) RecordAdminAction(ctx context.Context, action *domain.AdminAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_actions (
			id, admin_id, action, target_type, target_id, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		action.ID,
		action.AdminID,
		string(action.Action),
		action.TargetType,
		action.TargetID,
		action.Reason,
		formatTime(action.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ListAdminActions returns a paginated list of audit records, newest first.
func (s *Store) ListAdminActions(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.AdminAction], error) {
	params.Validate()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_actions`).Scan(&total); err != nil {
		return nil, err
	}

	var args []any
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
		cursorClause = "WHERE (created_at < ? OR (created_at = ? AND id < ?))"
		args = append(args, parts[0], parts[0], parts[1])
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actionColumns+` FROM admin_actions `+cursorClause+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, append(args, params.Limit+1)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*domain.AdminAction
	for rows.Next() {
		a, err := scanAdminAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(actions) > params.Limit
	if hasMore {
		actions = actions[:params.Limit]
	}

	var nextCursor string
	if hasMore && len(actions) > 0 {
		last := actions[len(actions)-1]
		nextCursor = store.EncodeCursor(formatTime(last.CreatedAt) + "|" + last.ID)
	}

	return &store.PaginatedResult[*domain.AdminAction]{
		Items:      actions,
		Total:      total,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}
