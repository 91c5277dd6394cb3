package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rpedro/seatlock/internal/model"
)

// SessionRepo provides read/write access to sessions. The catalog
// generator that creates sessions and their seats is an external
// collaborator (out of scope); this repository exists so the core can
// read a session's price at confirmation time and so tests can seed one.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo bound to db.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle for callers that need to open their
// own transaction spanning multiple repositories, mirroring this
// codebase's existing handler/repository transaction idiom.
func (r *SessionRepo) DB() *sql.DB { return r.db }

// Create inserts a new session. id must already be populated by the
// caller (uuid).
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (id, movie_id, room, price, starts_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.MovieID, s.Room, s.Price, s.StartsAt)
	return err
}

// GetByID fetches a session by id.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT id, movie_id, room, price, starts_at, created_at, updated_at
	           FROM sessions WHERE id = ?`
	var s model.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieID, &s.Room, &s.Price, &s.StartsAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
