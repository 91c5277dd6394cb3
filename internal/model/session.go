package model

import "time"

// Session is a single showing of a movie in a room, at a fixed price.
// Seats belong to exactly one Session.
//
// Fields:
//  ID        – text primary key (uuid).
//  MovieID   – identifier of the movie being shown.
//  Room      – room/screen identifier.
//  Price     – ticket price for every seat in this session, at the time
//              of confirmation this becomes the Sale amount.
//  StartsAt  – must be ≥ now at creation time.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Session struct {
	ID        string    // sessions.id
	MovieID   string    // sessions.movie_id
	Room      string    // sessions.room
	Price     string    // sessions.price, numeric(10,2) as decimal string
	StartsAt  time.Time // sessions.starts_at
	CreatedAt time.Time // sessions.created_at
	UpdatedAt time.Time // sessions.updated_at
}
