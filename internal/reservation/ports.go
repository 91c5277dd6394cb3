package reservation

import (
	"context"
	"database/sql"
	"time"

	"github.com/rpedro/seatlock/internal/idempotency"
	"github.com/rpedro/seatlock/internal/model"
	"github.com/rpedro/seatlock/internal/repository"
)

// LockService is the coordination-store capability the actions compose
// with the repository capability below. Satisfied by *lock.Service.
type LockService interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
	ReleaseAll(ctx context.Context, keys ...string) error
	GetMany(ctx context.Context, keys []string) ([]string, error)
}

// IdempotencyGate is the idempotency capability. Satisfied by
// *idempotency.Store.
type IdempotencyGate interface {
	Claim(ctx context.Context, cacheKey string, ttl time.Duration) (idempotency.ClaimResult, error)
	Get(ctx context.Context, cacheKey string) (string, bool, error)
	Store(ctx context.Context, cacheKey, response string, ttl time.Duration) error
	Abandon(ctx context.Context, cacheKey string) error
}

// EventPublisher is the bus capability. Satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// SeatStore is the seat-side database capability.
type SeatStore interface {
	DB() *sql.DB
	SeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error)
	ConditionalSellSeat(ctx context.Context, tx *sql.Tx, seatID string) (int64, error)
}

// ReservationStore is the reservation-side database capability.
type ReservationStore interface {
	DB() *sql.DB
	CreateManyTx(ctx context.Context, tx *sql.Tx, userID string, seatIDs []string, expiresAt time.Time) ([]model.Reservation, error)
	FindWithSeatAndSession(ctx context.Context, id string) (*repository.ReservationDetail, error)
	ConditionalConfirmTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) (int64, error)
	MarkCancelled(ctx context.Context, id string) error
}

// SaleStore is the sale-side database capability.
type SaleStore interface {
	UpsertTx(ctx context.Context, tx *sql.Tx, reservationID, amount string, method model.PaymentMethod) error
}
