package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

// memberColumns is the ordered list of columns selected in member queries.
// Must match the scan order in scanMember.
const memberColumns = `id, created_at, updated_at, deleted_at, email,
	password_hash, display_name, first_name, last_name, role, last_login_at,
	banned, ban_reason`

// scanMember scans a sql.Row (or sql.Rows via its Scan method) into a domain.Member.
func scanMember(scanner interface{ Scan(dest ...any) error }) (*domain.Member, error) {
	var m domain.Member

	var (
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
		role        string
		lastLoginAt string
		banned      int
	)

	err := scanner.Scan(
		&m.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&m.Email,
		&m.PasswordHash,
		&m.DisplayName,
		&m.FirstName,
		&m.LastName,
		&role,
		&lastLoginAt,
		&banned,
		&m.BanReason,
	)
	if err != nil {
		return nil, err
	}

	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	m.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	m.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}
	m.LastLoginAt, err = parseTime(lastLoginAt)
	if err != nil {
		return nil, err
	}

	m.Role = domain.Role(role)
	m.Banned = banned != 0

	return &m, nil
}

// CreateMember inserts a new member into the database.
// Returns store.ErrAlreadyExists if the email is already registered.
func (s *Store) CreateMember(ctx context.Context, member *domain.Member) error {
	emailLower := strings.ToLower(strings.TrimSpace(member.Email))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (
			id, created_at, updated_at, deleted_at, email, email_lower,
			password_hash, display_name, first_name, last_name, role,
			last_login_at, banned, ban_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		formatTime(member.CreatedAt),
		formatTime(member.UpdatedAt),
		nullTimeString(member.DeletedAt),
		member.Email,
		emailLower,
		member.PasswordHash,
		member.DisplayName,
		member.FirstName,
		member.LastName,
		string(member.Role),
		formatTime(member.LastLoginAt),
		boolToInt(member.Banned),
		member.BanReason,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetMember retrieves a member by ID, excluding soft-deleted records.
// Returns store.ErrNotFound if the member does not exist.
func (s *Store) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ? AND deleted_at IS NULL`, id)

	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMemberByEmail retrieves a member by lowercased email, excluding soft-deleted records.
// Returns store.ErrNotFound if the member does not exist.
func (s *Store) GetMemberByEmail(ctx context.Context, email string) (*domain.Member, error) {
	lower := strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE email_lower = ? AND deleted_at IS NULL`, lower)

	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMember performs a full row update on an existing member.
// Returns store.ErrNotFound if the member does not exist or is soft-deleted.
func (s *Store) UpdateMember(ctx context.Context, member *domain.Member) error {
	emailLower := strings.ToLower(strings.TrimSpace(member.Email))

	result, err := s.db.ExecContext(ctx, `
		UPDATE members SET
			updated_at = ?,
			email = ?,
			email_lower = ?,
			password_hash = ?,
			display_name = ?,
			first_name = ?,
			last_name = ?,
			role = ?,
			last_login_at = ?,
			banned = ?,
			ban_reason = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(member.UpdatedAt),
		member.Email,
		emailLower,
		member.PasswordHash,
		member.DisplayName,
		member.FirstName,
		member.LastName,
		string(member.Role),
		formatTime(member.LastLoginAt),
		boolToInt(member.Banned),
		member.BanReason,
		member.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMember performs a soft delete by setting deleted_at and updated_at.
// Returns store.ErrNotFound if the member does not exist or is already deleted.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx, `
		UPDATE members SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListMembers returns all non-deleted members.
func (s *Store) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE deleted_at IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// CountMembers returns the number of non-deleted members.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE deleted_at IS NULL`).Scan(&n)
	return n, err
}
