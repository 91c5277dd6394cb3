// Package reaper runs the Expiration Reaper: a periodic, leader-elected
// job that cancels expired PENDING reservations, releases their seat
// locks, and emits reservation.expired/seat.released. It schedules
// itself with go-co-op/gocron/v2, the same scheduling library this
// codebase's lineage uses for its daily movie-status job, generalized
// here from a once-a-day DailyJob to a sub-minute DurationJob.
package reaper

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/rpedro/seatlock/internal/events"
	"github.com/rpedro/seatlock/internal/lock"
	"github.com/rpedro/seatlock/internal/repository"
)

// Reaper owns the scheduler and its three collaborators: the Lock
// Service (for the leader election and for releasing reaped seats), the
// Reservation Repository, and the Event Publisher.
type Reaper struct {
	Locks        *lock.Service
	Reservations *repository.ReservationRepo
	Events       *events.Publisher

	Period    time.Duration
	LeaderTTL time.Duration

	scheduler gocron.Scheduler
}

// Start schedules the reaper's tick and begins running it in the
// background. Call Stop to shut it down.
func (r *Reaper) Start(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	r.scheduler = s

	_, err = s.NewJob(
		gocron.DurationJob(r.Period),
		gocron.NewTask(func() { r.tick(ctx) }),
	)
	if err != nil {
		return err
	}
	s.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for the current tick to finish.
func (r *Reaper) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}

// tick is one run of the §4.7 algorithm. Leader election bounds the
// number of replicas doing work to approximately one; the conditional
// cancelExpired update is the actual serializer, so a second replica
// racing in is harmless — it will simply cancel zero rows.
func (r *Reaper) tick(ctx context.Context) {
	token := randomToken()
	ok, err := r.Locks.Acquire(ctx, lock.ReaperKey, token, r.LeaderTTL)
	if err != nil {
		log.Printf("reaper: leader acquire failed: %v", err)
		return
	}
	if !ok {
		return
	}
	defer func() {
		if err := r.Locks.Release(ctx, lock.ReaperKey, token); err != nil {
			log.Printf("reaper: leader release failed: %v", err)
		}
	}()

	now := time.Now().UTC()
	candidates, err := r.Reservations.ListExpiredPending(ctx, now)
	if err != nil {
		log.Printf("reaper: listExpiredPending failed: %v", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	affected, err := r.Reservations.CancelExpired(ctx, ids, now)
	if err != nil {
		log.Printf("reaper: cancelExpired failed: %v", err)
		return
	}
	if affected == 0 {
		// Another leader already handled this batch between our list and
		// our update.
		return
	}

	for _, c := range candidates {
		if err := r.Locks.ReleaseAll(ctx, lock.SeatKey(c.SeatID)); err != nil {
			log.Printf("reaper: failed to release lock for seat %s: %v", c.SeatID, err)
		}
		ts := now.Format(time.RFC3339)
		if r.Events == nil {
			continue
		}
		if err := r.Events.Publish(ctx, events.RoutingReservationExpired, events.ReservationExpired{
			ReservationID: c.ID,
			SeatID:        c.SeatID,
			UserID:        c.UserID,
			Reason:        "TIMEOUT",
			Timestamp:     ts,
		}); err != nil {
			log.Printf("reaper: failed to publish reservation.expired for %s: %v", c.ID, err)
		}
		if err := r.Events.Publish(ctx, events.RoutingSeatReleased, events.SeatReleased{
			SeatID:        c.SeatID,
			ReservationID: c.ID,
			UserID:        c.UserID,
			Reason:        "RESERVATION_EXPIRED",
			Timestamp:     ts,
		}); err != nil {
			log.Printf("reaper: failed to publish seat.released for %s: %v", c.ID, err)
		}
	}
}
