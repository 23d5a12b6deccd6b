package model

import "time"

// Show represents a single scheduled screening of a movie.  Seat
// occupancy for a show lives in the occupied_seats table and is
// surfaced here as a map from seat label to the holder's user id;
// a label present in the map means the seat is sold or reserved,
// an absent label means the seat is free.
//
// Fields:
//  ID             – primary key identifier.
//  MovieRef       – external catalog reference of the movie being shown.
//  StartsAt       – when the screening begins (UTC).
//  BasePriceCents – base ticket price in cents before tier surcharges.
//  Venue          – free-form venue/screen label.
//  OccupiedSeats  – seat label → user id of the holder.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Show struct {
	ID             uint64            // shows.id
	MovieRef       string            // shows.movie_ref
	StartsAt       time.Time         // shows.starts_at
	BasePriceCents uint32            // shows.base_price_cents
	Venue          string            // shows.venue
	OccupiedSeats  map[string]string // occupied_seats rows for this show
	CreatedAt      time.Time         // shows.created_at
	UpdatedAt      time.Time         // shows.updated_at
}
