package reservation

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rpedro/seatlock/internal/idempotency"
	"github.com/rpedro/seatlock/internal/model"
	"github.com/rpedro/seatlock/internal/repository"
)

type mockLocks struct{ mock.Mock }

func (m *mockLocks) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, owner, ttl)
	return args.Bool(0), args.Error(1)
}
func (m *mockLocks) Release(ctx context.Context, key, owner string) error {
	return m.Called(ctx, key, owner).Error(0)
}
func (m *mockLocks) ReleaseAll(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}
func (m *mockLocks) GetMany(ctx context.Context, keys []string) ([]string, error) {
	args := m.Called(ctx, keys)
	vals, _ := args.Get(0).([]string)
	return vals, args.Error(1)
}

type mockIdempotency struct{ mock.Mock }

func (m *mockIdempotency) Claim(ctx context.Context, cacheKey string, ttl time.Duration) (idempotency.ClaimResult, error) {
	args := m.Called(ctx, cacheKey, ttl)
	res, _ := args.Get(0).(idempotency.ClaimResult)
	return res, args.Error(1)
}
func (m *mockIdempotency) Get(ctx context.Context, cacheKey string) (string, bool, error) {
	args := m.Called(ctx, cacheKey)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *mockIdempotency) Store(ctx context.Context, cacheKey, response string, ttl time.Duration) error {
	return m.Called(ctx, cacheKey, response, ttl).Error(0)
}
func (m *mockIdempotency) Abandon(ctx context.Context, cacheKey string) error {
	return m.Called(ctx, cacheKey).Error(0)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

type mockSeats struct {
	mock.Mock
	db *sql.DB
}

func (m *mockSeats) DB() *sql.DB { return m.db }
func (m *mockSeats) SeatsByIDs(ctx context.Context, ids []string) ([]model.Seat, error) {
	args := m.Called(ctx, ids)
	seats, _ := args.Get(0).([]model.Seat)
	return seats, args.Error(1)
}
func (m *mockSeats) ConditionalSellSeat(ctx context.Context, tx *sql.Tx, seatID string) (int64, error) {
	args := m.Called(ctx, seatID)
	return args.Get(0).(int64), args.Error(1)
}

type mockReservations struct {
	mock.Mock
	db *sql.DB
}

func (m *mockReservations) DB() *sql.DB { return m.db }
func (m *mockReservations) CreateManyTx(ctx context.Context, tx *sql.Tx, userID string, seatIDs []string, expiresAt time.Time) ([]model.Reservation, error) {
	args := m.Called(ctx, userID, seatIDs, expiresAt)
	res, _ := args.Get(0).([]model.Reservation)
	return res, args.Error(1)
}
func (m *mockReservations) FindWithSeatAndSession(ctx context.Context, id string) (*repository.ReservationDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*repository.ReservationDetail)
	return d, args.Error(1)
}
func (m *mockReservations) ConditionalConfirmTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) (int64, error) {
	args := m.Called(ctx, id, now)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockReservations) MarkCancelled(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockSales struct{ mock.Mock }

func (m *mockSales) UpsertTx(ctx context.Context, tx *sql.Tx, reservationID, amount string, method model.PaymentMethod) error {
	return m.Called(ctx, reservationID, amount, method).Error(0)
}
