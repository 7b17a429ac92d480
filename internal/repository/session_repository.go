package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/exam-seating/internal/model"
)

// SessionRepo persists login sessions keyed by the token's jti.
type SessionRepo struct{ DB Execer }

func NewSessionRepo(db Execer) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, role, subject, expires_at) VALUES (?,?,?,?)",
		s.ID, string(s.Role), s.Subject, s.ExpiresAt.UTC())
	return err
}

// Get loads a session whether or not it is still active.
func (r *SessionRepo) Get(ctx context.Context, id string) (model.Session, error) {
	var (
		s         model.Session
		role      string
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, role, subject, expires_at, revoked_at, created_at FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &role, &s.Subject, &s.ExpiresAt, &revokedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, ErrSessionNotFound
		}
		return s, err
	}
	s.Role = model.Role(role)
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return s, nil
}

// Revoke marks a session as revoked.  Revoking twice is not an error.
func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL",
		id)
	return err
}

// DeleteStale drops sessions that expired, or were revoked, before cutoff.
func (r *SessionRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)",
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
