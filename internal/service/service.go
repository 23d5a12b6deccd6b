// Package service implements the reservation core: the direct booking
// transaction and the payment-gated checkout workflow. Services depend
// on small store interfaces rather than concrete repositories so the
// race-sensitive flows can be exercised in tests against in-memory
// implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinefy/cinefy-server/internal/model"
	"github.com/cinefy/cinefy-server/internal/pricing"
	"github.com/cinefy/cinefy-server/internal/queue"
	"github.com/cinefy/cinefy-server/internal/repository"
)

// ShowStore provides read access to the show catalog.
type ShowStore interface {
	GetByID(ctx context.Context, id uint64) (*repository.ShowRecord, error)
}

// Inventory exposes read-only views of the occupancy map. All writes
// go through BookingStore.CreateWithSeats, which claims seats and
// appends the booking in one transaction.
type Inventory interface {
	Occupied(ctx context.Context, showID uint64) ([]string, error)
	CheckAvailability(ctx context.Context, showID uint64, seats []string) (bool, error)
}

// BookingStore is the append-only booking ledger together with the
// atomic claim-and-record operation.
type BookingStore interface {
	CreateWithSeats(ctx context.Context, b *model.Booking, seatPrices map[string]uint32) error
	GetByPaymentRef(ctx context.Context, paymentRef string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
}

// CheckoutStore persists checkout attempt state transitions.
type CheckoutStore interface {
	Create(ctx context.Context, a *model.CheckoutAttempt) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.CheckoutAttempt, error)
	MarkConfirmed(ctx context.Context, sessionID string, bookingID uint64, chargedCents uint32) error
	MarkFailed(ctx context.Context, sessionID string) error
	MarkConflicted(ctx context.Context, sessionID string, chargedCents uint32) error
	ListConflicted(ctx context.Context) ([]model.CheckoutAttempt, error)
}

// Notifier dispatches domain events. Implementations must be safe to
// call on the request path; failures are logged by the caller and never
// fail the surrounding operation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PaymentConflict(ctx context.Context, ev queue.PaymentConflictEvent) error
}

// BrokerNotifier implements Notifier on top of the RabbitMQ publisher.
type BrokerNotifier struct{}

// BookingConfirmed publishes to the booking.confirmed queue.
func (BrokerNotifier) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	return queue.PublishBookingConfirmed(ctx, ev)
}

// PaymentConflict publishes to the payment.conflict queue.
func (BrokerNotifier) PaymentConflict(ctx context.Context, ev queue.PaymentConflictEvent) error {
	return queue.PublishPaymentConflict(ctx, ev)
}

// validateSeats normalizes a requested seat set and rejects invalid
// requests: the set must be non-empty, every label must parse against
// the tier table, and no label may appear twice. Labels are upper-cased
// so "g3" and "G3" address the same seat.
func validateSeats(seats []string) ([]string, error) {
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: seat set must not be empty", repository.ErrInvalidRequest)
	}
	cleaned := make([]string, 0, len(seats))
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		label := strings.ToUpper(strings.TrimSpace(s))
		if _, _, err := pricing.ParseSeat(label); err != nil {
			return nil, err
		}
		if _, ok := seen[label]; ok {
			return nil, fmt.Errorf("%w: duplicate seat %s", repository.ErrInvalidRequest, label)
		}
		seen[label] = struct{}{}
		cleaned = append(cleaned, label)
	}
	return cleaned, nil
}

// seatPrices computes the authoritative per-seat prices for a seat set
// given the show's base price.
func seatPrices(seats []string, baseCents uint32) (map[string]uint32, error) {
	prices := make(map[string]uint32, len(seats))
	for _, s := range seats {
		p, err := pricing.SeatPriceCents(s, baseCents)
		if err != nil {
			return nil, err
		}
		prices[s] = p
	}
	return prices, nil
}
