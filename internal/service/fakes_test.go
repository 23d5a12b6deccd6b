package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cinefy/cinefy-server/internal/model"
	"github.com/cinefy/cinefy-server/internal/payment"
	"github.com/cinefy/cinefy-server/internal/queue"
	"github.com/cinefy/cinefy-server/internal/repository"
)

// fakeShows serves a fixed show catalog.
type fakeShows struct {
	shows map[uint64]repository.ShowRecord
}

func newFakeShows(shows ...repository.ShowRecord) *fakeShows {
	m := make(map[uint64]repository.ShowRecord, len(shows))
	for _, s := range shows {
		m[s.ID] = s
	}
	return &fakeShows{shows: m}
}

func (f *fakeShows) GetByID(_ context.Context, id uint64) (*repository.ShowRecord, error) {
	s, ok := f.shows[id]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	return &s, nil
}

// fakeLedger is an in-memory stand-in for the occupancy map and the
// booking ledger. CreateWithSeats performs the same all-or-nothing
// claim the MySQL transaction does, under one mutex, so concurrent
// callers observe exactly-one-winner semantics.
type fakeLedger struct {
	mu       sync.Mutex
	nextID   uint64
	occupied map[uint64]map[string]uint64 // showID -> seat -> bookingID
	bookings map[uint64]model.Booking
	byRef    map[string]uint64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		occupied: make(map[uint64]map[string]uint64),
		bookings: make(map[uint64]model.Booking),
		byRef:    make(map[string]uint64),
	}
}

func (f *fakeLedger) Occupied(_ context.Context, showID uint64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seats := make([]string, 0, len(f.occupied[showID]))
	for s := range f.occupied[showID] {
		seats = append(seats, s)
	}
	return seats, nil
}

func (f *fakeLedger) CheckAvailability(_ context.Context, showID uint64, seats []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range seats {
		if _, taken := f.occupied[showID][s]; taken {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeLedger) CreateWithSeats(_ context.Context, b *model.Booking, seatPrices map[string]uint32) error {
	if len(b.Seats) == 0 {
		return repository.ErrInvalidRequest
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	taken := f.occupied[b.ShowID]
	if taken == nil {
		taken = make(map[string]uint64)
		f.occupied[b.ShowID] = taken
	}
	for _, s := range b.Seats {
		if _, ok := taken[s]; ok {
			return fmt.Errorf("seat %s on show %d: %w", s, b.ShowID, repository.ErrSeatConflict)
		}
		if _, ok := seatPrices[s]; !ok {
			return fmt.Errorf("missing price for seat %s: %w", s, repository.ErrInvalidRequest)
		}
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now().UTC()
	for _, s := range b.Seats {
		taken[s] = b.ID
	}
	f.bookings[b.ID] = *b
	if b.PaymentRef != nil {
		f.byRef[*b.PaymentRef] = b.ID
	}
	return nil
}

func (f *fakeLedger) GetByPaymentRef(_ context.Context, paymentRef string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byRef[paymentRef]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	b := f.bookings[id]
	return &b, nil
}

func (f *fakeLedger) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// seatHolder reports which booking claimed a seat, 0 when free.
func (f *fakeLedger) seatHolder(showID uint64, seat string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.occupied[showID][seat]
}

// fakeCheckouts mirrors the checkout_attempts repository, including its
// state transition guards.
type fakeCheckouts struct {
	mu       sync.Mutex
	attempts map[string]*model.CheckoutAttempt
}

func newFakeCheckouts() *fakeCheckouts {
	return &fakeCheckouts{attempts: make(map[string]*model.CheckoutAttempt)}
}

func (f *fakeCheckouts) Create(_ context.Context, a *model.CheckoutAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	cp.State = model.CheckoutPendingProvider
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	f.attempts[a.SessionID] = &cp
	return nil
}

func (f *fakeCheckouts) GetBySessionID(_ context.Context, sessionID string) (*model.CheckoutAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[sessionID]
	if !ok {
		return nil, repository.ErrCheckoutNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeCheckouts) MarkConfirmed(_ context.Context, sessionID string, bookingID uint64, chargedCents uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[sessionID]
	if !ok {
		return repository.ErrCheckoutNotFound
	}
	a.State = model.CheckoutConfirmed
	a.BookingID = &bookingID
	a.ChargedCents = &chargedCents
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeCheckouts) MarkFailed(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[sessionID]
	if !ok {
		return repository.ErrCheckoutNotFound
	}
	if a.State != model.CheckoutPendingProvider && a.State != model.CheckoutFailed {
		return repository.ErrCheckoutNotFound
	}
	a.State = model.CheckoutFailed
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeCheckouts) MarkConflicted(_ context.Context, sessionID string, chargedCents uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[sessionID]
	if !ok {
		return repository.ErrCheckoutNotFound
	}
	a.State = model.CheckoutConflicted
	a.ChargedCents = &chargedCents
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeCheckouts) ListConflicted(_ context.Context) ([]model.CheckoutAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.CheckoutAttempt, 0)
	for _, a := range f.attempts {
		if a.State == model.CheckoutConflicted {
			out = append(out, *a)
		}
	}
	return out, nil
}

// fakeProvider stores sessions in memory. Tests flip pay to simulate a
// customer completing (or abandoning) the hosted payment page.
type fakeProvider struct {
	mu       sync.Mutex
	nextID   int
	sessions map[string]*payment.Session
	requests map[string]payment.SessionRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sessions: make(map[string]*payment.Session),
		requests: make(map[string]payment.SessionRequest),
	}
}

func (f *fakeProvider) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("cs_test_%d", f.nextID)
	var total int64
	for _, it := range req.LineItems {
		total += it.UnitAmountCents * it.Quantity
	}
	sess := &payment.Session{
		ID:               id,
		URL:              "https://pay.example.test/" + id,
		AmountTotalCents: total,
		Metadata:         req.Metadata,
	}
	f.sessions[id] = sess
	f.requests[id] = req
	return sess, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, sessionID string) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	cp := *sess
	cp.URL = ""
	return &cp, nil
}

// pay marks a session as paid, as the provider would after the customer
// completes the hosted payment page.
func (f *fakeProvider) pay(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID].Paid = true
}

func (f *fakeProvider) lastSessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("cs_test_%d", f.nextID)
}

// fakeNotifier records dispatched events.
type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	conflicts []queue.PaymentConflictEvent
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, ev)
	return nil
}

func (f *fakeNotifier) PaymentConflict(_ context.Context, ev queue.PaymentConflictEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflicts = append(f.conflicts, ev)
	return nil
}

func (f *fakeNotifier) confirmedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmed)
}

func (f *fakeNotifier) conflictCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conflicts)
}
