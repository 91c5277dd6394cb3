package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rpedro/seatlock/internal/model"
)

// SeatRepo provides the seat-side operations the spec names under the
// Reservation Repository contract: seatsByIds and conditionalSellSeat.
// Status transitions only ever move AVAILABLE -> SOLD; LOCKED is never
// written here, see model.Seat.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo bound to db.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle, mirroring SessionRepo.DB.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// CreateBulk inserts multiple seats for a session in a single statement.
// Seeded by the external catalog generator in production; used directly
// by tests here.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (id, session_id, row, number, status) VALUES `)
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, s.ID, s.SessionID, s.Row, s.Number, string(status))
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// ByID fetches a single seat.
func (r *SeatRepo) ByID(ctx context.Context, id string) (*model.Seat, error) {
	const q = `SELECT id, session_id, row, number, status FROM seats WHERE id = ?`
	var s model.Seat
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.SessionID, &s.Row, &s.Number, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Status = model.SeatStatus(status)
	return &s, nil
}

// SeatsByIDs loads every seat whose id is in ids, in no particular order.
// Callers needing a specific order must re-sort; the Reserve Action
// re-derives its own sorted order from ids directly rather than from the
// result of this call.
func (r *SeatRepo) SeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	q := `SELECT id, session_id, row, number, status FROM seats WHERE id IN (` + placeholders + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		var status string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Row, &s.Number, &status); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ConditionalSellSeat executes `UPDATE seats SET status=SOLD WHERE id=?
// AND status=AVAILABLE` and returns the affected row count — the proof
// that this call, and not a concurrent one, performed the transition.
func (r *SeatRepo) ConditionalSellSeat(ctx context.Context, tx *sql.Tx, seatID string) (int64, error) {
	const q = `UPDATE seats SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(model.SeatSold), seatID, string(model.SeatAvailable))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SeatView is the presentation-layer status of a seat: its persisted
// status, with LOCKED substituted for AVAILABLE when the lock-store key
// for that seat is present.
type SeatView struct {
	Seat   model.Seat
	Status model.SeatStatus
}

// ComputeSeatView implements the "LOCKED as a computed view" design
// note: it zips DB AVAILABLE seats with a batched lock-store read,
// without ever writing LOCKED to the database. lockValues must be the
// result of a lock.Service.GetMany call over the same seat ids, in the
// same order.
func ComputeSeatView(seats []model.Seat, lockValues []string) []SeatView {
	views := make([]SeatView, len(seats))
	for i, s := range seats {
		status := s.Status
		if status == model.SeatAvailable && i < len(lockValues) && lockValues[i] != "" {
			status = model.SeatLocked
		}
		views[i] = SeatView{Seat: s, Status: status}
	}
	return views
}
