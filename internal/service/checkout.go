package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cinefy/cinefy-server/internal/model"
	"github.com/cinefy/cinefy-server/internal/payment"
	"github.com/cinefy/cinefy-server/internal/pricing"
	"github.com/cinefy/cinefy-server/internal/queue"
	"github.com/cinefy/cinefy-server/internal/repository"
)

// CheckoutService runs the payment-gated reservation workflow. Seats
// are deliberately NOT claimed while the customer pays: StartCheckout
// only probes availability and hands the seat snapshot to the payment
// provider as session metadata, and VerifyPayment settles the outcome
// against current inventory once the provider has been paid. The race
// window this opens is accepted and handled by the CONFLICTED state.
type CheckoutService struct {
	shows      ShowStore
	inventory  Inventory
	bookings   BookingStore
	checkouts  CheckoutStore
	provider   payment.Provider
	notifier   Notifier
	successURL string
	cancelURL  string
}

// NewCheckoutService constructs a CheckoutService. All dependencies
// must be non-nil.
func NewCheckoutService(shows ShowStore, inventory Inventory, bookings BookingStore, checkouts CheckoutStore, provider payment.Provider, notifier Notifier, successURL, cancelURL string) *CheckoutService {
	if shows == nil || inventory == nil || bookings == nil || checkouts == nil || provider == nil || notifier == nil {
		panic("nil dependency passed to NewCheckoutService")
	}
	return &CheckoutService{
		shows:      shows,
		inventory:  inventory,
		bookings:   bookings,
		checkouts:  checkouts,
		provider:   provider,
		notifier:   notifier,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// StartCheckout validates the request, re-checks availability without
// claiming anything, computes the authoritative total and creates a
// provider payment session carrying the seat snapshot as metadata. The
// only local write is the checkout attempt row; the occupancy map is
// untouched, so the seats stay free for other customers while this one
// pays. It returns the hosted payment page URL.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID string, showID uint64, seats []string, customerEmail string) (string, error) {
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return "", err
	}
	cleaned, err := validateSeats(seats)
	if err != nil {
		return "", err
	}
	free, err := s.inventory.CheckAvailability(ctx, showID, cleaned)
	if err != nil {
		return "", err
	}
	if !free {
		return "", repository.ErrSeatConflict
	}
	total, err := pricing.TotalCents(cleaned, show.BasePriceCents)
	if err != nil {
		return "", err
	}
	seatsJSON, err := json.Marshal(cleaned)
	if err != nil {
		return "", err
	}
	items, err := lineItems(show, cleaned)
	if err != nil {
		return "", err
	}
	sess, err := s.provider.CreateSession(ctx, payment.SessionRequest{
		Metadata: map[string]string{
			payment.MetaShowID: strconv.FormatUint(showID, 10),
			payment.MetaUserID: userID,
			payment.MetaSeats:  string(seatsJSON),
		},
		LineItems:      items,
		SuccessURL:     s.successURL,
		CancelURL:      s.cancelURL,
		CustomerEmail:  customerEmail,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	attempt := &model.CheckoutAttempt{
		SessionID:   sess.ID,
		UserID:      userID,
		ShowID:      showID,
		Seats:       cleaned,
		AmountCents: total,
	}
	if err := s.checkouts.Create(ctx, attempt); err != nil {
		return "", err
	}
	return sess.URL, nil
}

// VerifyPayment settles a checkout attempt against the provider's
// authoritative session state. It is idempotent: verifying an already
// confirmed session returns the same booking without touching the
// occupancy map again. When the provider was paid but the seats were
// claimed in the meantime, the attempt transitions to CONFLICTED, the
// collected amount is recorded durably and a payment.conflict event is
// published for the out-of-band refund process; no booking is created.
func (s *CheckoutService) VerifyPayment(ctx context.Context, sessionID string) (*model.Booking, error) {
	attempt, err := s.checkouts.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch attempt.State {
	case model.CheckoutConfirmed:
		return s.bookings.GetByPaymentRef(ctx, sessionID)
	case model.CheckoutConflicted:
		return nil, repository.ErrPostPaymentConflict
	}

	sess, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		if err := s.checkouts.MarkFailed(ctx, sessionID); err != nil {
			log.Printf("checkout: mark %s failed: %v", sessionID, err)
		}
		return nil, repository.ErrPaymentNotCompleted
	}

	// Only the provider-stored metadata is trusted from here on.
	showID, userID, seats, err := decodeMetadata(sess.Metadata)
	if err != nil {
		return nil, err
	}
	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	prices, err := seatPrices(seats, show.BasePriceCents)
	if err != nil {
		return nil, err
	}
	charged := uint32(sess.AmountTotalCents)
	ref := sessionID
	booking := &model.Booking{
		UserID:      userID,
		ShowID:      showID,
		Seats:       seats,
		AmountCents: charged,
		PaymentRef:  &ref,
		IsPaid:      true,
	}
	if err := s.bookings.CreateWithSeats(ctx, booking, prices); err != nil {
		if errors.Is(err, repository.ErrSeatConflict) {
			return s.settleConflict(ctx, attempt, sess, charged)
		}
		return nil, err
	}
	if err := s.checkouts.MarkConfirmed(ctx, sessionID, booking.ID, charged); err != nil {
		log.Printf("checkout: mark %s confirmed: %v", sessionID, err)
	}
	s.notifyConfirmed(ctx, show, booking)
	return booking, nil
}

// PendingRefunds returns the user's conflicted checkout attempts:
// money was collected but the seats could not be claimed, so a refund
// is owed. Entries stay listed until the out-of-band refund process
// resolves them.
func (s *CheckoutService) PendingRefunds(ctx context.Context, userID string) ([]model.CheckoutAttempt, error) {
	all, err := s.checkouts.ListConflicted(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]model.CheckoutAttempt, 0)
	for _, a := range all {
		if a.UserID == userID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

// settleConflict distinguishes a verify racing itself from a genuine
// post-payment conflict. If a booking already carries this session as
// its payment reference, another verify call won the race and the
// session is settled; otherwise somebody else took the seats after the
// customer paid.
func (s *CheckoutService) settleConflict(ctx context.Context, attempt *model.CheckoutAttempt, sess *payment.Session, charged uint32) (*model.Booking, error) {
	existing, err := s.bookings.GetByPaymentRef(ctx, attempt.SessionID)
	if err == nil {
		if mErr := s.checkouts.MarkConfirmed(ctx, attempt.SessionID, existing.ID, charged); mErr != nil {
			log.Printf("checkout: mark %s confirmed: %v", attempt.SessionID, mErr)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrBookingNotFound) {
		return nil, err
	}
	if mErr := s.checkouts.MarkConflicted(ctx, attempt.SessionID, charged); mErr != nil {
		return nil, fmt.Errorf("record payment conflict for %s: %w", attempt.SessionID, mErr)
	}
	ev := queue.PaymentConflictEvent{
		SessionID:    attempt.SessionID,
		UserID:       attempt.UserID,
		ShowID:       attempt.ShowID,
		Seats:        attempt.Seats,
		ChargedCents: charged,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if nErr := s.notifier.PaymentConflict(ctx, ev); nErr != nil {
		log.Printf("checkout: payment conflict notify for %s failed: %v", attempt.SessionID, nErr)
	}
	return nil, repository.ErrPostPaymentConflict
}

func (s *CheckoutService) notifyConfirmed(ctx context.Context, show *repository.ShowRecord, b *model.Booking) {
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
		log.Printf("checkout: booking %d confirmation notify failed: %v", b.ID, err)
	}
}

// decodeMetadata parses the provider-stored session metadata back into
// typed values. A failure here is a data bug, not user error.
func decodeMetadata(md map[string]string) (uint64, string, []string, error) {
	showID, err := strconv.ParseUint(md[payment.MetaShowID], 10, 64)
	if err != nil || showID == 0 {
		return 0, "", nil, fmt.Errorf("checkout metadata: bad show id %q", md[payment.MetaShowID])
	}
	userID := md[payment.MetaUserID]
	if userID == "" {
		return 0, "", nil, errors.New("checkout metadata: missing user id")
	}
	var seats []string
	if err := json.Unmarshal([]byte(md[payment.MetaSeats]), &seats); err != nil {
		return 0, "", nil, fmt.Errorf("checkout metadata: bad seats: %w", err)
	}
	if len(seats) == 0 {
		return 0, "", nil, errors.New("checkout metadata: empty seat set")
	}
	return showID, userID, seats, nil
}

// lineItems builds one billable entry per seat plus the convenience
// fee. Per-seat items use the same tier table as the booking total, so
// the amount the provider collects always equals the server-computed
// total.
func lineItems(show *repository.ShowRecord, seats []string) ([]payment.LineItem, error) {
	items := make([]payment.LineItem, 0, len(seats)+1)
	for _, seat := range seats {
		tier, err := pricing.TierFor(seat)
		if err != nil {
			return nil, err
		}
		price, err := pricing.SeatPriceCents(seat, show.BasePriceCents)
		if err != nil {
			return nil, err
		}
		items = append(items, payment.LineItem{
			Name:            fmt.Sprintf("%s - %s Ticket", show.MovieRef, tier),
			Description:     fmt.Sprintf("Showtime: %s | Seat: %s", show.StartsAt.UTC().Format(time.RFC3339), seat),
			UnitAmountCents: int64(price),
			Quantity:        1,
		})
	}
	items = append(items, payment.LineItem{
		Name:            "Convenience Fee",
		UnitAmountCents: int64(pricing.ConvenienceFeeCents),
		Quantity:        1,
	})
	return items, nil
}
