package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/rpedro/seatlock/internal/events"
	"github.com/rpedro/seatlock/internal/idempotency"
	"github.com/rpedro/seatlock/internal/lock"
	"github.com/rpedro/seatlock/internal/model"
)

// ReserveInput is the Reserve Action's request shape.
type ReserveInput struct {
	UserID         string
	SeatIDs        []string
	IdempotencyKey string
}

// ReserveOutput is the Reserve Action's response shape, also what gets
// cached verbatim by the idempotency gate.
type ReserveOutput struct {
	Message          string   `json:"message"`
	ReservationIDs   []string `json:"reservationIds"`
	ExpiresAt        string   `json:"expiresAt"`
	ExpiresInSeconds int      `json:"expiresInSeconds"`
}

// Reserver is the Reserve Action: it composes the Lock Service, the
// Idempotency Store, the Reservation Repository and the Event Publisher.
// It is the only place in the codebase that holds all four capabilities
// at once.
type Reserver struct {
	Locks        LockService
	Idempotency  IdempotencyGate
	Seats        SeatStore
	Reservations ReservationStore
	Events       EventPublisher

	SeatLockTTL        time.Duration
	ReservationHoldTTL time.Duration
	IdempotencyTTL     time.Duration
	IdempotencyPollMax int
	IdempotencyPollEvery time.Duration
}

// Reserve implements the §4.5 algorithm: idempotency gate, deterministic
// seat-id ordering, a DB pre-check, sorted lock acquisition with full
// rollback on first failure, a one-transaction reservation insert, one
// reservation.created publish per reservation, and idempotent response
// caching.
func (r *Reserver) Reserve(ctx context.Context, in ReserveInput) (*ReserveOutput, error) {
	if len(in.SeatIDs) == 0 {
		return nil, BadRequest("seatIds must be non-empty")
	}

	// 1. Idempotency gate.
	cacheKey, hasKey := "", false
	if r.Idempotency != nil {
		cacheKey, hasKey = idempotency.Key(in.UserID, in.IdempotencyKey)
	}
	if hasKey {
		out, err := r.gateIdempotency(ctx, cacheKey)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
		// First writer: fall through and do the work; if it fails, the
		// Abandon call below deletes the processing marker.
	}

	out, err := r.doReserve(ctx, in)
	if hasKey {
		if err != nil {
			_ = r.Idempotency.Abandon(ctx, cacheKey)
			return nil, err
		}
		body, _ := json.Marshal(out)
		_ = r.Idempotency.Store(ctx, cacheKey, string(body), r.IdempotencyTTL)
		return out, nil
	}
	return out, err
}

// gateIdempotency returns a non-nil output when the caller should return
// immediately (a cache hit, or a completed response observed while
// polling a pending claim), or a Conflict/Internal error. A nil output
// and nil error means the caller is the first writer and must proceed.
func (r *Reserver) gateIdempotency(ctx context.Context, cacheKey string) (*ReserveOutput, error) {
	claim, err := r.Idempotency.Claim(ctx, cacheKey, r.IdempotencyTTL)
	if err != nil {
		return nil, InternalErr("idempotency claim failed", err)
	}
	if claim.Hit {
		return decodeOutput(claim.Response)
	}
	if claim.FirstWriter {
		return nil, nil
	}
	// Pending: poll.
	for i := 0; i < r.IdempotencyPollMax; i++ {
		select {
		case <-ctx.Done():
			return nil, InternalErr("idempotency poll cancelled", ctx.Err())
		case <-time.After(r.IdempotencyPollEvery):
		}
		body, ok, err := r.Idempotency.Get(ctx, cacheKey)
		if err != nil {
			return nil, InternalErr("idempotency poll failed", err)
		}
		if ok {
			return decodeOutput(body)
		}
	}
	return nil, Conflict("request in progress, retry")
}

func decodeOutput(body string) (*ReserveOutput, error) {
	var out ReserveOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, InternalErr("idempotency cache decode failed", err)
	}
	return &out, nil
}

func (r *Reserver) doReserve(ctx context.Context, in ReserveInput) (*ReserveOutput, error) {
	// 2. Deterministic ordering — global, independent of caller order, so
	// every concurrent caller acquires locks in the same sequence and
	// AB/BA deadlocks cannot occur.
	seatIDs := append([]string(nil), in.SeatIDs...)
	sort.Strings(seatIDs)

	// 3. Pre-check against the database.
	seats, err := r.Seats.SeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, InternalErr("failed to load seats", err)
	}
	bySeat := make(map[string]model.Seat, len(seats))
	for _, s := range seats {
		bySeat[s.ID] = s
	}
	var missing []string
	var unavailable []string
	for _, id := range seatIDs {
		s, ok := bySeat[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if s.Status != model.SeatAvailable {
			unavailable = append(unavailable, s.Label())
		}
	}
	if len(missing) > 0 {
		return nil, NotFound(fmt.Sprintf("seats not found: %v", missing))
	}
	if len(unavailable) > 0 {
		return nil, Conflict(fmt.Sprintf("seats not available: %v", unavailable))
	}

	// 4. Lock acquisition in sorted order, with full rollback on the
	// first failure.
	acquired := make([]string, 0, len(seatIDs))
	rollback := func() {
		if len(acquired) == 0 {
			return
		}
		for _, id := range acquired {
			_ = r.Locks.Release(context.Background(), lock.SeatKey(id), in.UserID)
		}
	}
	for _, id := range seatIDs {
		ok, err := r.Locks.Acquire(ctx, lock.SeatKey(id), in.UserID, r.SeatLockTTL)
		if err != nil {
			rollback()
			return nil, InternalErr("lock acquisition failed", err)
		}
		if !ok {
			rollback()
			return nil, Conflict(fmt.Sprintf("seat %s is locked by another user", bySeat[id].Label()))
		}
		acquired = append(acquired, id)
	}

	// 5. Persist, all-or-nothing, in one transaction.
	now := time.Now().UTC()
	expiresAt := now.Add(r.ReservationHoldTTL)
	tx, err := r.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		rollback()
		return nil, InternalErr("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	reservations, err := r.Reservations.CreateManyTx(ctx, tx, in.UserID, seatIDs, expiresAt)
	if err != nil {
		rollback()
		return nil, InternalErr("failed to create reservations", err)
	}
	if err := tx.Commit(); err != nil {
		rollback()
		return nil, InternalErr("failed to commit transaction", err)
	}
	committed = true

	// 6. Publish — one reservation.created per reservation.
	ids := make([]string, 0, len(reservations))
	for _, res := range reservations {
		ids = append(ids, res.ID)
		evt := events.ReservationCreated{
			ID:        res.ID,
			UserID:    res.UserID,
			SeatID:    res.SeatID,
			Status:    string(res.Status),
			ExpiresAt: res.ExpiresAt.Format(time.RFC3339),
		}
		if r.Events != nil {
			if err := r.Events.Publish(ctx, events.RoutingReservationCreated, evt); err != nil {
				// Publishing is fire-and-forget per the spec; the reservation
				// already committed, so a publish failure is logged, not
				// surfaced to the caller.
				log.Printf("reserve: failed to publish reservation.created for %s: %v", res.ID, err)
			}
		}
	}

	// 7. Record response.
	return &ReserveOutput{
		Message:          "reservation created",
		ReservationIDs:   ids,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
		ExpiresInSeconds: int(r.ReservationHoldTTL / time.Second),
	}, nil
}

