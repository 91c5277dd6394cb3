package model

import "time"

// ReservationStatus enumerates the lifecycle of a Reservation. A
// Reservation transitions exactly once, out of PENDING, into either
// CONFIRMED (by payment) or CANCELLED (by expiration or a late confirm
// attempt). Both are terminal.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation is one user's claim on one Seat. Multi-seat requests create
// one Reservation row per seat rather than a single grouped order — see
// the group-reservation open question.
//
// Fields:
//  ID        – text primary key (uuid).
//  UserID    – the requesting user.
//  SeatID    – the seat being claimed.
//  Status    – PENDING | CONFIRMED | CANCELLED.
//  ExpiresAt – PENDING reservations past this instant are reclaimable.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        string            // reservations.id
	UserID    string            // reservations.user_id
	SeatID    string            // reservations.seat_id
	Status    ReservationStatus // reservations.status
	ExpiresAt time.Time         // reservations.expires_at
	CreatedAt time.Time         // reservations.created_at
	UpdatedAt time.Time         // reservations.updated_at
}
