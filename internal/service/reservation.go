package service

import (
	"context"
	"log"
	"time"

	"github.com/cinefy/cinefy-server/internal/model"
	"github.com/cinefy/cinefy-server/internal/pricing"
	"github.com/cinefy/cinefy-server/internal/queue"
	"github.com/cinefy/cinefy-server/internal/repository"
)

// ReservationService runs the direct booking path: check, price, claim
// and record in one effectively-atomic step. From the caller's view
// either a booking exists and its seats are claimed, or nothing
// happened at all.
type ReservationService struct {
	shows    ShowStore
	bookings BookingStore
	notifier Notifier
}

// NewReservationService constructs a ReservationService. All
// dependencies must be non-nil.
func NewReservationService(shows ShowStore, bookings BookingStore, notifier Notifier) *ReservationService {
	if shows == nil || bookings == nil || notifier == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{shows: shows, bookings: bookings, notifier: notifier}
}

// Reserve claims the given seats for the user on the show and appends
// the booking to the ledger. The total is always recomputed here from
// the tier table; any amount a client declares is ignored. On the
// direct path a committed claim is treated as payment-equivalent, so
// the booking is created with IsPaid set and no payment reference.
//
// Errors: repository.ErrShowNotFound, repository.ErrInvalidRequest,
// pricing.ErrInvalidSeatIdentifier, repository.ErrSeatConflict. On any
// of them no seat claim and no booking persists.
func (s *ReservationService) Reserve(ctx context.Context, userID string, showID uint64, seats []string) (*model.Booking, error) {
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	cleaned, err := validateSeats(seats)
	if err != nil {
		return nil, err
	}
	total, err := pricing.TotalCents(cleaned, show.BasePriceCents)
	if err != nil {
		return nil, err
	}
	prices, err := seatPrices(cleaned, show.BasePriceCents)
	if err != nil {
		return nil, err
	}
	booking := &model.Booking{
		UserID:      userID,
		ShowID:      showID,
		Seats:       cleaned,
		AmountCents: total,
		IsPaid:      true,
	}
	if err := s.bookings.CreateWithSeats(ctx, booking, prices); err != nil {
		return nil, err
	}
	s.notifyConfirmed(ctx, show, booking)
	return booking, nil
}

// ListBookings returns the user's ledger entries, newest first.
func (s *ReservationService) ListBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// notifyConfirmed dispatches the confirmation event. Best effort: a
// failed publish is logged and swallowed, it never affects the booking.
func (s *ReservationService) notifyConfirmed(ctx context.Context, show *repository.ShowRecord, b *model.Booking) {
	ev := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ShowID:      b.ShowID,
		MovieRef:    show.MovieRef,
		StartsAt:    show.StartsAt.UTC().Format(time.RFC3339),
		Venue:       show.Venue,
		Seats:       b.Seats,
		AmountCents: b.AmountCents,
		Paid:        b.IsPaid,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.notifier.BookingConfirmed(ctx, ev); err != nil {
		log.Printf("reservation: booking %d confirmation notify failed: %v", b.ID, err)
	}
}
