package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpedro/seatlock/internal/model"
)

// ReservationRepo provides the reservation-side operations named by the
// spec's Reservation Repository contract: createReservationsInOneTransaction,
// findReservationWithSeatAndSession, conditionalConfirm, cancelExpired,
// and listExpiredPending.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so the Reserve/Confirm actions can
// open one transaction spanning this repository and SeatRepo/SaleRepo,
// the same BeginTx/commit/defer-rollback idiom this codebase already
// uses in its handlers.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateManyTx inserts one PENDING reservation per seat id, all within
// tx, implementing "createReservationsInOneTransaction": all rows commit
// together or none do.
func (r *ReservationRepo) CreateManyTx(ctx context.Context, tx *sql.Tx, userID string, seatIDs []string, expiresAt time.Time) ([]model.Reservation, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	const q = `INSERT INTO reservations (id, user_id, seat_id, status, expires_at) VALUES (?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	out := make([]model.Reservation, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		res := model.Reservation{
			ID:        uuid.NewString(),
			UserID:    userID,
			SeatID:    seatID,
			Status:    model.ReservationPending,
			ExpiresAt: expiresAt,
		}
		if _, err := stmt.ExecContext(ctx, res.ID, res.UserID, res.SeatID, string(res.Status), res.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// ReservationDetail is a reservation joined with its seat and session,
// as needed by the Confirm-Payment Action.
type ReservationDetail struct {
	Reservation model.Reservation
	Seat        model.Seat
	Session     model.Session
}

// FindWithSeatAndSession loads a reservation joined with its seat and
// session.
func (r *ReservationRepo) FindWithSeatAndSession(ctx context.Context, id string) (*ReservationDetail, error) {
	const q = `
	SELECT
		r.id, r.user_id, r.seat_id, r.status, r.expires_at, r.created_at, r.updated_at,
		s.id, s.session_id, s.row, s.number, s.status,
		se.id, se.movie_id, se.room, se.price, se.starts_at, se.created_at, se.updated_at
	FROM reservations r
	JOIN seats s ON s.id = r.seat_id
	JOIN sessions se ON se.id = s.session_id
	WHERE r.id = ?`

	var d ReservationDetail
	var resStatus, seatStatus string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.Reservation.ID, &d.Reservation.UserID, &d.Reservation.SeatID, &resStatus, &d.Reservation.ExpiresAt, &d.Reservation.CreatedAt, &d.Reservation.UpdatedAt,
		&d.Seat.ID, &d.Seat.SessionID, &d.Seat.Row, &d.Seat.Number, &seatStatus,
		&d.Session.ID, &d.Session.MovieID, &d.Session.Room, &d.Session.Price, &d.Session.StartsAt, &d.Session.CreatedAt, &d.Session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Reservation.Status = model.ReservationStatus(resStatus)
	d.Seat.Status = model.SeatStatus(seatStatus)
	return &d, nil
}

// ConditionalConfirmTx executes `UPDATE reservations SET status=CONFIRMED
// WHERE id=? AND status=PENDING AND expires_at >= ?` and returns the
// affected row count.
func (r *ReservationRepo) ConditionalConfirmTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) (int64, error) {
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ? AND expires_at >= ?`
	res, err := tx.ExecContext(ctx, q, string(model.ReservationConfirmed), id, string(model.ReservationPending), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkCancelled unconditionally flips a single reservation to CANCELLED,
// used by the Confirm-Payment Action when it discovers a reservation past
// its expiresAt (step 3 of the spec's Confirm-Payment algorithm).
func (r *ReservationRepo) MarkCancelled(ctx context.Context, id string) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, q, string(model.ReservationCancelled), id, string(model.ReservationPending))
	return err
}

// CancelExpired executes `UPDATE reservations SET status=CANCELLED WHERE
// id IN (...) AND status=PENDING AND expires_at < ?` and returns the
// affected row count, used by the Expiration Reaper.
func (r *ReservationRepo) CancelExpired(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	q := `UPDATE reservations SET status = ? WHERE id IN (` + placeholders + `) AND status = ? AND expires_at < ?`
	args := make([]interface{}, 0, len(ids)+3)
	args = append(args, string(model.ReservationCancelled))
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, string(model.ReservationPending), now)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpiredCandidate is the narrow view of a Reservation the reaper needs
// per listExpiredPending.
type ExpiredCandidate struct {
	ID     string
	SeatID string
	UserID string
}

// ListExpiredPending returns every PENDING reservation whose expiresAt
// has passed.
func (r *ReservationRepo) ListExpiredPending(ctx context.Context, now time.Time) ([]ExpiredCandidate, error) {
	const q = `SELECT id, seat_id, user_id FROM reservations WHERE status = ? AND expires_at < ?`
	rows, err := r.db.QueryContext(ctx, q, string(model.ReservationPending), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExpiredCandidate
	for rows.Next() {
		var c ExpiredCandidate
		if err := rows.Scan(&c.ID, &c.SeatID, &c.UserID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
