package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

type SessionRepository struct{ db *sql.DB }

func NewSessionRepository(db *sql.DB) *SessionRepository { return &SessionRepository{db: db} }

// EnsureSchema bikin tabel sessions kalau belum ada
func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS dashboard_sessions (
  id         TEXT PRIMARY KEY,
  username   TEXT NOT NULL,
  token      TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save insert/update session
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	const q = `
INSERT INTO dashboard_sessions (id, username, token, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
 username = EXCLUDED.username,
 token = EXCLUDED.token;`

	username := s.Username
	if strings.TrimSpace(username) == "" {
		username = "-"
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, username, s.Token, created)
	return err
}

// Get by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	const q = `SELECT id, username, token, created_at FROM dashboard_sessions WHERE id=$1 LIMIT 1;`
	var s session.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Username, &s.Token, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) ClearToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dashboard_sessions SET token='' WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_sessions WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}
