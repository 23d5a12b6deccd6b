// Package repository contains data access logic for the booking core.
// This file holds show catalog reads. Shows are created by an external
// admin layer; this core only reads them and never deletes one, so
// bookings can always resolve their show by id.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"time"         // time for schedule fields
)

// ShowRecord mirrors the schema of the shows table. Business logic
// should use model.Show, which adds the occupancy map loaded from
// occupied_seats.
type ShowRecord struct {
	ID             uint64
	MovieRef       string
	StartsAt       time.Time
	BasePriceCents uint32
	Venue          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ShowRepo manages read access to shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*ShowRecord, error) {
	const q = `SELECT id, movie_ref, starts_at, base_price_cents, venue, created_at, updated_at
	           FROM shows WHERE id = ?`
	var s ShowRecord
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieRef, &s.StartsAt, &s.BasePriceCents, &s.Venue, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListUpcoming returns shows that have not yet started, ordered by
// start time ascending.  It is the read surface the browse endpoints
// consume; occupancy is intentionally not loaded here.
func (r *ShowRepo) ListUpcoming(ctx context.Context, now time.Time) ([]ShowRecord, error) {
	const q = `SELECT id, movie_ref, starts_at, base_price_cents, venue, created_at, updated_at
	           FROM shows WHERE starts_at > ? ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shows := make([]ShowRecord, 0)
	for rows.Next() {
		var s ShowRecord
		if err := rows.Scan(&s.ID, &s.MovieRef, &s.StartsAt, &s.BasePriceCents, &s.Venue, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shows, nil
}
