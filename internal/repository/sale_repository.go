package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rpedro/seatlock/internal/model"
)

// SaleRepo provides createSale, implemented per the resolved Open
// Question as an upsert keyed on reservation_id so a retried Confirm
// never fails on the unique constraint.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo constructs a SaleRepo bound to db.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// UpsertTx creates the Sale row for a just-confirmed reservation, or is a
// no-op if one already exists for reservationID — making re-execution of
// Confirm-Payment after a transient failure safe.
func (r *SaleRepo) UpsertTx(ctx context.Context, tx *sql.Tx, reservationID, amount string, method model.PaymentMethod) error {
	const q = `
	INSERT INTO sales (id, reservation_id, amount, payment_method)
	VALUES (?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE amount = amount`
	_, err := tx.ExecContext(ctx, q, uuid.NewString(), reservationID, amount, string(method))
	return err
}

// ByReservationID fetches the Sale for a reservation, used by tests to
// verify the invariant that a CONFIRMED reservation has exactly one Sale.
func (r *SaleRepo) ByReservationID(ctx context.Context, reservationID string) (*model.Sale, error) {
	const q = `SELECT id, reservation_id, amount, payment_method, created_at FROM sales WHERE reservation_id = ?`
	var s model.Sale
	var method string
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(&s.ID, &s.ReservationID, &s.Amount, &method, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.PaymentMethod = model.PaymentMethod(method)
	return &s, nil
}
