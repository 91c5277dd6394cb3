package model

import "strconv"

// SeatStatus enumerates the persisted states of a seat. LOCKED exists in
// the schema for compatibility but is never written by this core — it is
// a view computed by zipping an AVAILABLE seat with the lock service, see
// repository.ComputeSeatView.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatLocked    SeatStatus = "LOCKED"
	SeatSold      SeatStatus = "SOLD"
)

// Seat is one bookable position within a Session. (SessionID, Row, Number)
// is unique. Status transitions AVAILABLE→SOLD only; it never reverts.
//
// Fields:
//  ID        – text primary key (uuid).
//  SessionID – owning session.
//  Row       – row label, e.g. "C".
//  Number    – seat number within the row.
//  Status    – AVAILABLE | LOCKED | SOLD (LOCKED is computed, see above).
type Seat struct {
	ID        string     // seats.id
	SessionID string     // seats.session_id
	Row       string     // seats.row
	Number    int        // seats.number
	Status    SeatStatus // seats.status
}

// Label renders the seat's human-facing identity, e.g. "C7".
func (s Seat) Label() string {
	return s.Row + strconv.Itoa(s.Number)
}
