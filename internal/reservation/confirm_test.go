package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpedro/seatlock/internal/model"
	"github.com/rpedro/seatlock/internal/repository"
)

func newConfirmer(t *testing.T) (*Confirmer, *mockLocks, *mockSeats, *mockReservations, *mockSales, *mockEvents, sqlmock.Sqlmock) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	locks := &mockLocks{}
	seats := &mockSeats{db: db}
	reservations := &mockReservations{db: db}
	sales := &mockSales{}
	events := &mockEvents{}

	c := &Confirmer{
		Locks:        locks,
		Seats:        seats,
		Reservations: reservations,
		Sales:        sales,
		Events:       events,
	}
	return c, locks, seats, reservations, sales, events, dbMock
}

func pendingDetail() *repository.ReservationDetail {
	return &repository.ReservationDetail{
		Reservation: model.Reservation{
			ID: "r1", UserID: "u1", SeatID: "s1",
			Status:    model.ReservationPending,
			ExpiresAt: time.Now().Add(5 * time.Minute),
		},
		Seat:    model.Seat{ID: "s1", Row: "A", Number: 1, Status: model.SeatAvailable},
		Session: model.Session{ID: "sess1", Price: "25.00"},
	}
}

func TestConfirmPayment_Success(t *testing.T) {
	c, locks, seats, reservations, sales, events, dbMock := newConfirmer(t)
	ctx := context.Background()

	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(pendingDetail(), nil)

	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	reservations.On("ConditionalConfirmTx", ctx, "r1", mock.Anything).Return(int64(1), nil)
	seats.On("ConditionalSellSeat", ctx, "s1").Return(int64(1), nil)
	sales.On("UpsertTx", ctx, "r1", "25.00", model.PaymentCreditCard).Return(nil)
	events.On("Publish", ctx, "payment.confirmed", mock.Anything).Return(nil)
	locks.On("Release", ctx, "lock:seat:s1", "u1").Return(nil)

	err := c.ConfirmPayment(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestConfirmPayment_AlreadyPaid_ReturnsConflict(t *testing.T) {
	c, _, _, reservations, _, _, _ := newConfirmer(t)
	ctx := context.Background()

	detail := pendingDetail()
	detail.Reservation.Status = model.ReservationConfirmed
	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(detail, nil)

	err := c.ConfirmPayment(ctx, "r1")
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ConflictKind, actionErr.Kind)
}

func TestConfirmPayment_Expired_MarksCancelledAndReturnsBadRequest(t *testing.T) {
	c, _, _, reservations, _, _, _ := newConfirmer(t)
	ctx := context.Background()

	detail := pendingDetail()
	detail.Reservation.ExpiresAt = time.Now().Add(-time.Minute)
	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(detail, nil)
	reservations.On("MarkCancelled", ctx, "r1").Return(nil)

	err := c.ConfirmPayment(ctx, "r1")
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, BadRequestKind, actionErr.Kind)
	reservations.AssertCalled(t, "MarkCancelled", ctx, "r1")
}

func TestConfirmPayment_LostConditionalConfirmRace_ReloadsAndReportsConflict(t *testing.T) {
	c, _, _, reservations, _, _, dbMock := newConfirmer(t)
	ctx := context.Background()

	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(pendingDetail(), nil).Once()

	dbMock.ExpectBegin()

	reservations.On("ConditionalConfirmTx", ctx, "r1", mock.Anything).Return(int64(0), nil)

	reloaded := pendingDetail()
	reloaded.Reservation.Status = model.ReservationConfirmed
	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(reloaded, nil).Once()

	err := c.ConfirmPayment(ctx, "r1")
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ConflictKind, actionErr.Kind)
}

func TestConfirmPayment_SeatAlreadySold_ReturnsConflict(t *testing.T) {
	c, _, seats, reservations, _, _, dbMock := newConfirmer(t)
	ctx := context.Background()

	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(pendingDetail(), nil)
	dbMock.ExpectBegin()
	reservations.On("ConditionalConfirmTx", ctx, "r1", mock.Anything).Return(int64(1), nil)
	seats.On("ConditionalSellSeat", ctx, "s1").Return(int64(0), nil)

	err := c.ConfirmPayment(ctx, "r1")
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ConflictKind, actionErr.Kind)
}

func TestConfirmPayment_Cancelled_ReturnsBadRequest(t *testing.T) {
	c, _, _, reservations, _, _, _ := newConfirmer(t)
	ctx := context.Background()

	detail := pendingDetail()
	detail.Reservation.Status = model.ReservationCancelled
	reservations.On("FindWithSeatAndSession", ctx, "r1").Return(detail, nil)

	err := c.ConfirmPayment(ctx, "r1")
	require.Error(t, err)
	var actionErr *Error
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, BadRequestKind, actionErr.Kind)
}
