package reservation

import (
	"context"
	"log"
	"time"

	"github.com/rpedro/seatlock/internal/events"
	"github.com/rpedro/seatlock/internal/lock"
	"github.com/rpedro/seatlock/internal/model"
	"github.com/rpedro/seatlock/internal/repository"
)

// Confirmer is the Confirm-Payment Action: it composes the Reservation
// Repository, the Lock Service and the Event Publisher.
type Confirmer struct {
	Locks        LockService
	Seats        SeatStore
	Reservations ReservationStore
	Sales        SaleStore
	Events       EventPublisher
}

// ConfirmPayment implements the §4.6 algorithm. Conditional updates over
// status-filtered WHERE clauses, not external locks, are what make the
// two writes here linearizable against a concurrent reaper or a
// concurrent double-confirm.
func (c *Confirmer) ConfirmPayment(ctx context.Context, reservationID string) error {
	detail, err := c.Reservations.FindWithSeatAndSession(ctx, reservationID)
	if err != nil {
		if err == repository.ErrNotFound {
			return NotFound("reservation not found")
		}
		return InternalErr("failed to load reservation", err)
	}

	switch detail.Reservation.Status {
	case model.ReservationConfirmed:
		return Conflict("already paid")
	case model.ReservationCancelled:
		return BadRequest("cancelled or expired")
	}

	now := time.Now().UTC()
	if now.After(detail.Reservation.ExpiresAt) {
		if err := c.Reservations.MarkCancelled(ctx, reservationID); err != nil {
			return InternalErr("failed to cancel expired reservation", err)
		}
		return BadRequest("reservation expired")
	}

	tx, err := c.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return InternalErr("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	affected, err := c.Reservations.ConditionalConfirmTx(ctx, tx, reservationID, now)
	if err != nil {
		return InternalErr("conditional confirm failed", err)
	}
	if affected == 0 {
		reloaded, err := c.Reservations.FindWithSeatAndSession(ctx, reservationID)
		if err != nil {
			return InternalErr("failed to reload reservation after contention", err)
		}
		switch reloaded.Reservation.Status {
		case model.ReservationConfirmed:
			return Conflict("already paid")
		case model.ReservationCancelled:
			return BadRequest("cancelled or expired")
		default:
			return Conflict("reservation could not be confirmed")
		}
	}

	sellAffected, err := c.Seats.ConditionalSellSeat(ctx, tx, detail.Seat.ID)
	if err != nil {
		return InternalErr("conditional seat sale failed", err)
	}
	if sellAffected == 0 {
		return Conflict("seat already sold")
	}

	if err := c.Sales.UpsertTx(ctx, tx, reservationID, detail.Session.Price, model.PaymentCreditCard); err != nil {
		return InternalErr("failed to record sale", err)
	}

	if err := tx.Commit(); err != nil {
		return InternalErr("failed to commit transaction", err)
	}
	committed = true

	if c.Events != nil {
		evt := events.PaymentConfirmed{
			ReservationID: reservationID,
			UserID:        detail.Reservation.UserID,
			SeatID:        detail.Seat.ID,
			Amount:        detail.Session.Price,
			Timestamp:     now.Format(time.RFC3339),
		}
		if err := c.Events.Publish(ctx, events.RoutingPaymentConfirmed, evt); err != nil {
			log.Printf("confirm: failed to publish payment.confirmed for %s: %v", reservationID, err)
		}
	}

	if c.Locks != nil {
		// Best-effort: the DB already reflects SOLD, so a failure here is
		// non-fatal. The lock will simply expire on its own TTL.
		if err := c.Locks.Release(ctx, lock.SeatKey(detail.Seat.ID), detail.Reservation.UserID); err != nil {
			log.Printf("confirm: failed to release lock for seat %s: %v", detail.Seat.ID, err)
		}
	}

	return nil
}
