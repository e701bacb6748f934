package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

// itemColumns is the ordered list of columns selected in item queries.
// Must match the scan order in scanItem.
const itemColumns = `id, created_at, updated_at, deleted_at, owner_id, title,
	description, category, size, condition, item_type, brand, color, material,
	points_value, state, featured, view_count, image_urls, tags, moderation_reason`

// scanItem scans a sql.Row (or sql.Rows via its Scan method) into a domain.Item.
func scanItem(scanner interface{ Scan(dest ...any) error }) (*domain.Item, error) {
	var it domain.Item

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
		condition string
		itemType  string
		state     string
		featured  int
		imageURLs string
		tags      string
	)

	err := scanner.Scan(
		&it.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&it.OwnerID,
		&it.Title,
		&it.Description,
		&it.Category,
		&it.Size,
		&condition,
		&itemType,
		&it.Brand,
		&it.Color,
		&it.Material,
		&it.PointsValue,
		&state,
		&featured,
		&it.ViewCount,
		&imageURLs,
		&tags,
		&it.ModerationReason,
	)
	if err != nil {
		return nil, err
	}

	it.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	it.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	it.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	it.Condition = domain.Condition(condition)
	it.Type = domain.ItemType(itemType)
	it.State = domain.ItemState(state)
	it.Featured = featured != 0

	if err := json.Unmarshal([]byte(imageURLs), &it.ImageURLs); err != nil {
		return nil, fmt.Errorf("parse image_urls: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}

	return &it, nil
}

// marshalStrings encodes a string slice as a JSON array, "[]" when empty.
func marshalStrings(vals []string) (string, error) {
	if len(vals) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateItem inserts a new item into the database.
func (s *Store) CreateItem(ctx context.Context, item *domain.Item) error {
	imageURLs, err := marshalStrings(item.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image_urls: %w", err)
	}
	tags, err := marshalStrings(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (
			id, created_at, updated_at, deleted_at, owner_id, title,
			description, category, size, condition, item_type, brand, color, material,
			points_value, state, featured, view_count, image_urls, tags, moderation_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
		nullTimeString(item.DeletedAt),
		item.OwnerID,
		item.Title,
		item.Description,
		item.Category,
		item.Size,
		string(item.Condition),
		string(item.Type),
		item.Brand,
		item.Color,
		item.Material,
		item.PointsValue,
		string(item.State),
		boolToInt(item.Featured),
		item.ViewCount,
		imageURLs,
		tags,
		item.ModerationReason,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetItem retrieves an item by ID, excluding soft-deleted records.
// Returns store.ErrNotFound if the item does not exist.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND deleted_at IS NULL`, id)

	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateItem performs a full row update on an existing item, guarded by a
// compare-and-set on the item's state. Returns store.ErrNotFound if the
// item does not exist or is soft-deleted, and store.ErrStateConflict if
// its state no longer equals fromState.
func (s *Store) UpdateItem(ctx context.Context, item *domain.Item, fromState domain.ItemState) error {
	imageURLs, err := marshalStrings(item.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image_urls: %w", err)
	}
	tags, err := marshalStrings(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET
			updated_at = ?,
			deleted_at = ?,
			owner_id = ?,
			title = ?,
			description = ?,
			category = ?,
			size = ?,
			condition = ?,
			item_type = ?,
			brand = ?,
			color = ?,
			material = ?,
			points_value = ?,
			state = ?,
			featured = ?,
			image_urls = ?,
			tags = ?,
			moderation_reason = ?
		WHERE id = ? AND deleted_at IS NULL AND state = ?`,
		formatTime(item.UpdatedAt),
		nullTimeString(item.DeletedAt),
		item.OwnerID,
		item.Title,
		item.Description,
		item.Category,
		item.Size,
		string(item.Condition),
		string(item.Type),
		item.Brand,
		item.Color,
		item.Material,
		item.PointsValue,
		string(item.State),
		boolToInt(item.Featured),
		imageURLs,
		tags,
		item.ModerationReason,
		item.ID,
		string(fromState),
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from one that moved on.
		if _, err := s.GetItem(ctx, item.ID); err != nil {
			return err
		}
		return store.ErrStateConflict
	}
	return nil
}

// ListItems returns a paginated list of non-deleted items, newest first.
// The filter narrows by state, owner, category, type, condition and featured.
func (s *Store) ListItems(ctx context.Context, filter store.ItemFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	params.Validate()

	where := []string{"deleted_at IS NULL"}
	var args []any

	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, st := range filter.States {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "state IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Type != "" {
		where = append(where, "item_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Condition != "" {
		where = append(where, "condition = ?")
		args = append(args, string(filter.Condition))
	}
	if filter.Featured != nil {
		where = append(where, "featured = ?")
		args = append(args, boolToInt(*filter.Featured))
	}
	if filter.Search != "" {
		where = append(where, "(title LIKE ? OR brand LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	// Sort column drives both the ORDER BY and the cursor comparison.
	sortCol := "created_at"
	numericSort := false
	switch filter.Sort {
	case store.SortPoints:
		sortCol, numericSort = "points_value", true
	case store.SortViews:
		sortCol, numericSort = "view_count", true
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, err
	}

	// Decode cursor: format is "<sort value>|id".
	queryArgs := args
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
		var sortVal any = parts[0]
		if numericSort {
			sortVal, err = strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid cursor value: %w", err)
			}
		}
		cursorClause = fmt.Sprintf(" AND (%s < ? OR (%s = ? AND id < ?))", sortCol, sortCol)
		queryArgs = append(queryArgs, sortVal, sortVal, parts[1])
	}

	// Fetch limit+1 rows to determine hasMore.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+whereClause+cursorClause+`
		ORDER BY `+sortCol+` DESC, id DESC
		LIMIT ?`, append(queryArgs, params.Limit+1)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > params.Limit
	if hasMore {
		items = items[:params.Limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		lastVal := formatTime(last.CreatedAt)
		switch filter.Sort {
		case store.SortPoints:
			lastVal = strconv.FormatInt(last.PointsValue, 10)
		case store.SortViews:
			lastVal = strconv.FormatInt(last.ViewCount, 10)
		}
		nextCursor = store.EncodeCursor(lastVal + "|" + last.ID)
	}

	return &store.PaginatedResult[*domain.Item]{
		Items:      items,
		Total:      total,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}

// CountItemsByState returns item counts grouped by state, excluding deleted rows.
func (s *Store) CountItemsByState(ctx context.Context) (map[domain.ItemState]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM items WHERE deleted_at IS NULL GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ItemState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[domain.ItemState(state)] = n
	}
	return counts, rows.Err()
}

// AddViewCounts adds the buffered view counts to their items in one transaction.
// Missing items are skipped silently; views on a removed item are not an error.
func (s *Store) AddViewCounts(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, n := range counts {
		if n <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET view_count = view_count + ? WHERE id = ?`, n, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// execer abstracts *sql.DB and *sql.Tx for the compare-and-set transitions.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// reserveItemTx moves an item AVAILABLE -> RESERVED with a compare-and-set.
// Returns store.ErrStateConflict if the item was not AVAILABLE.
func reserveItemTx(ctx context.Context, e execer, id string) error {
	return casItemState(ctx, e, id, domain.ItemAvailable, domain.ItemReserved, "")
}

// releaseItemTx moves an item RESERVED -> AVAILABLE with a compare-and-set.
func releaseItemTx(ctx context.Context, e execer, id string) error {
	return casItemState(ctx, e, id, domain.ItemReserved, domain.ItemAvailable, "")
}

// finalizeItemTx moves an item RESERVED -> SWAPPED and reassigns its owner.
func finalizeItemTx(ctx context.Context, e execer, id, newOwnerID string) error {
	return casItemState(ctx, e, id, domain.ItemReserved, domain.ItemSwapped, newOwnerID)
}

// casItemState performs the guarded state write. The WHERE clause carries the
// expected source state, so a concurrent writer that got there first leaves
// zero affected rows.
func casItemState(ctx context.Context, e execer, id string, from, to domain.ItemState, newOwnerID string) error {
	now := formatTime(time.Now())

	var result sql.Result
	var err error
	if newOwnerID != "" {
		result, err = e.ExecContext(ctx, `
			UPDATE items SET state = ?, owner_id = ?, updated_at = ?
			WHERE id = ? AND state = ? AND deleted_at IS NULL`,
			string(to), newOwnerID, now, id, string(from))
	} else {
		result, err = e.ExecContext(ctx, `
			UPDATE items SET state = ?, updated_at = ?
			WHERE id = ? AND state = ? AND deleted_at IS NULL`,
			string(to), now, id, string(from))
	}
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrStateConflict
	}
	return nil
}

// ReserveItem atomically moves an item AVAILABLE -> RESERVED.
// Returns store.ErrStateConflict if another reservation won.
func (s *Store) ReserveItem(ctx context.Context, id string) error {
	return reserveItemTx(ctx, s.db, id)
}

// ReleaseItem atomically moves an item RESERVED -> AVAILABLE. Settlement
// never calls it (a failed settlement rolls its reservation back with the
// transaction); it exists for callers that reserve outside one.
func (s *Store) ReleaseItem(ctx context.Context, id string) error {
	return releaseItemTx(ctx, s.db, id)
}

// FinalizeItem atomically moves an item RESERVED -> SWAPPED and hands it to
// its new owner.
func (s *Store) FinalizeItem(ctx context.Context, id, newOwnerID string) error {
	return finalizeItemTx(ctx, s.db, id, newOwnerID)
}
