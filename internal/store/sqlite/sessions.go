package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/store"
)

// sessionColumns is the ordered list of columns selected in session queries.
// Must match the scan order in scanSession.
const sessionColumns = `id, created_at, updated_at, deleted_at,
	member_id, refresh_token_hash, expires_at, last_used_at`

// scanSession scans a sql.Row (or sql.Rows via its Scan method) into a domain.Session.
func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var sess domain.Session

	var (
		createdAt  string
		updatedAt  string
		deletedAt  sql.NullString
		expiresAt  string
		lastUsedAt string
	)

	err := scanner.Scan(
		&sess.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&sess.MemberID,
		&sess.RefreshTokenHash,
		&expiresAt,
		&lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	sess.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sess.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	sess.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	sess.LastUsedAt, err = parseTime(lastUsedAt)
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

// CreateSession inserts a new session into the database.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, created_at, updated_at, deleted_at,
			member_id, refresh_token_hash, expires_at, last_used_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		nullTimeString(session.DeletedAt),
		session.MemberID,
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		formatTime(session.LastUsedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetSession retrieves a session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND deleted_at IS NULL`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSessionByRefreshToken retrieves a session by its refresh token hash.
// Returns store.ErrNotFound if no session matches.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		WHERE refresh_token_hash = ? AND deleted_at IS NULL`, tokenHash)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateSession performs a full row update on an existing session.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			updated_at = ?,
			refresh_token_hash = ?,
			expires_at = ?,
			last_used_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(session.UpdatedAt),
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		formatTime(session.LastUsedAt),
		session.ID,
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

// DeleteSession removes a session row entirely.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
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

// DeleteAllMemberSessions removes all sessions belonging to a member.
func (s *Store) DeleteAllMemberSessions(ctx context.Context, memberID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE member_id = ?`, memberID)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry and returns the count.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
