// Package repository provides the database operations backing the
// reservation core: status-conditioned updates over Session/Seat/
// Reservation/Sale, executed as raw SQL with explicit transactions.
package repository

import "errors"

// ErrNotFound is returned when a lookup by id yields no rows. Handlers in
// internal/reservation translate this into the NotFound error kind.
var ErrNotFound = errors.New("not found")
