package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefy/cinefy-server/internal/model"
	"github.com/cinefy/cinefy-server/internal/payment"
	"github.com/cinefy/cinefy-server/internal/repository"
	"github.com/cinefy/cinefy-server/internal/service"
)

const (
	successURL = "https://app.example.test/payment-success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL  = "https://app.example.test/buy-ticket"
)

type checkoutFixture struct {
	svc       *service.CheckoutService
	ledger    *fakeLedger
	checkouts *fakeCheckouts
	provider  *fakeProvider
	notifier  *fakeNotifier
}

func newCheckoutFixture() *checkoutFixture {
	ledger := newFakeLedger()
	checkouts := newFakeCheckouts()
	provider := newFakeProvider()
	notifier := &fakeNotifier{}
	svc := service.NewCheckoutService(
		newFakeShows(testShow()), ledger, ledger, checkouts,
		provider, notifier, successURL, cancelURL,
	)
	return &checkoutFixture{svc: svc, ledger: ledger, checkouts: checkouts, provider: provider, notifier: notifier}
}

func TestStartCheckout_CreatesSessionWithoutClaimingSeats(t *testing.T) {
	fx := newCheckoutFixture()

	url, err := fx.svc.StartCheckout(context.Background(), "user-1", 1, []string{"A1", "D5"}, "u@example.test")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	sessID := fx.provider.lastSessionID()

	// Seats stay free while the customer pays.
	assert.Zero(t, fx.ledger.seatHolder(1, "A1"))
	assert.Zero(t, fx.ledger.seatHolder(1, "D5"))

	// The attempt is recorded with the server-computed total.
	attempt, err := fx.checkouts.GetBySessionID(context.Background(), sessID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutPendingProvider, attempt.State)
	assert.Equal(t, uint32(42000), attempt.AmountCents)
	assert.Equal(t, []string{"A1", "D5"}, attempt.Seats)

	// The provider quote matches the same total and carries the seat
	// snapshot in metadata.
	sess, err := fx.provider.RetrieveSession(context.Background(), sessID)
	require.NoError(t, err)
	assert.Equal(t, int64(42000), sess.AmountTotalCents)
	assert.Equal(t, "1", sess.Metadata[payment.MetaShowID])
	assert.Equal(t, "user-1", sess.Metadata[payment.MetaUserID])
	assert.JSONEq(t, `["A1","D5"]`, sess.Metadata[payment.MetaSeats])
}

func TestStartCheckout_SeatAlreadyTaken(t *testing.T) {
	fx := newCheckoutFixture()
	reservations := service.NewReservationService(newFakeShows(testShow()), fx.ledger, &fakeNotifier{})
	_, err := reservations.Reserve(context.Background(), "other", 1, []string{"D5"})
	require.NoError(t, err)

	_, err = fx.svc.StartCheckout(context.Background(), "user-1", 1, []string{"A1", "D5"}, "")
	assert.ErrorIs(t, err, repository.ErrSeatConflict)
}

func TestStartCheckout_UnknownShow(t *testing.T) {
	fx := newCheckoutFixture()
	_, err := fx.svc.StartCheckout(context.Background(), "user-1", 42, []string{"A1"}, "")
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestVerifyPayment_PaidSessionProducesBooking(t *testing.T) {
	fx := newCheckoutFixture()
	ctx := context.Background()

	_, err := fx.svc.StartCheckout(ctx, "user-1", 1, []string{"A1", "D5"}, "")
	require.NoError(t, err)
	sessID := fx.provider.lastSessionID()
	fx.provider.pay(sessID)

	b, err := fx.svc.VerifyPayment(ctx, sessID)
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.Equal(t, "user-1", b.UserID)
	assert.Equal(t, []string{"A1", "D5"}, b.Seats)
	assert.Equal(t, uint32(42000), b.AmountCents)
	assert.True(t, b.IsPaid)
	require.NotNil(t, b.PaymentRef)
	assert.Equal(t, sessID, *b.PaymentRef)

	assert.Equal(t, b.ID, fx.ledger.seatHolder(1, "A1"))
	assert.Equal(t, b.ID, fx.ledger.seatHolder(1, "D5"))

	attempt, err := fx.checkouts.GetBySessionID(ctx, sessID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutConfirmed, attempt.State)
	require.NotNil(t, attempt.BookingID)
	assert.Equal(t, b.ID, *attempt.BookingID)
	require.NotNil(t, attempt.ChargedCents)
	assert.Equal(t, uint32(42000), *attempt.ChargedCents)

	assert.Equal(t, 1, fx.notifier.confirmedCount())
}

func TestVerifyPayment_UnpaidSessionMarksFailed(t *testing.T) {
	fx := newCheckoutFixture()
	ctx := context.Background()

	_, err := fx.svc.StartCheckout(ctx, "user-1", 1, []string{"A1"}, "")
	require.NoError(t, err)
	sessID := fx.provider.lastSessionID()

	_, err = fx.svc.VerifyPayment(ctx, sessID)
	assert.ErrorIs(t, err, repository.ErrPaymentNotCompleted)

	attempt, err := fx.checkouts.GetBySessionID(ctx, sessID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutFailed, attempt.State)
	assert.Zero(t, fx.ledger.seatHolder(1, "A1"))
}

func TestVerifyPayment_FailedIsNotSticky(t *testing.T) {
	fx := newCheckoutFixture()
	ctx := context.Background()

	_, err := fx.svc.StartCheckout(ctx, "user-1", 1, []string{"A1"}, "")
	require.NoError(t, err)
	sessID := fx.provider.lastSessionID()

	// First verify before payment: FAILED.
	_, err = fx.svc.VerifyPayment(ctx, sessID)
	require.ErrorIs(t, err, repository.ErrPaymentNotCompleted)

	// Customer completes the payment page afterwards; a later verify
	// re-consults the provider and settles the attempt.
	fx.provider.pay(sessID)
	b, err := fx.svc.VerifyPayment(ctx, sessID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, fx.ledger.seatHolder(1, "A1"))
}

func TestVerifyPayment_UnknownSession(t *testing.T) {
	fx := newCheckoutFixture()
	_, err := fx.svc.VerifyPayment(context.Background(), "cs_test_missing")
	assert.ErrorIs(t, err, repository.ErrCheckoutNotFound)
}

func TestVerifyPayment_Idempotent(t *testing.T) {
	fx := newCheckoutFixture()
	ctx := context.Background()

	_, err := fx.svc.StartCheckout(ctx, "user-1", 1, []string{"I2"}, "")
	require.NoError(t, err)
	sessID := fx.provider.lastSessionID()
	fx.provider.pay(sessID)

	first, err := fx.svc.VerifyPayment(ctx, sessID)
	require.NoError(t, err)
	second, err := fx.svc.VerifyPayment(ctx, sessID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	// The seats were claimed once and announced once.
	assert.Equal(t, first.ID, fx.ledger.seatHolder(1, "I2"))
	assert.Equal(t, 1, fx.notifier.confirmedCount())
}

func TestVerifyPayment_SeatsTakenWhilePaying(t *testing.T) {
	fx := newCheckoutFixture()
	ctx := context.Background()

	_, err := fx.svc.StartCheckout(ctx, "user-1", 1, []string{"F4"}, "")
	require.NoError(t, err)
	sessID := fx.provider.lastSessionID()

	// Somebody books the seat directly while the customer is on the
	// payment page.
	reservations := service.NewReservationService(newFakeShows(testShow()), fx.ledger, &fakeNotifier{})
	rival, err := reservations.Reserve(ctx, "rival", 1, []string{"F4"})
	require.NoError(t, err)

	fx.provider.pay(sessID)
	_, err = fx.svc.VerifyPayment(ctx, sessID)
	assert.ErrorIs(t, err, repository.ErrPostPaymentConflict)

	// The rival keeps the seat, the collected amount is recorded and a
	// conflict event goes out for the refund process.
	assert.Equal(t, rival.ID, fx.ledger.seatHolder(1, "F4"))
	attempt, err := fx.checkouts.GetBySessionID(ctx, sessID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutConflicted, attempt.State)
	require.NotNil(t, attempt.ChargedCents)
	assert.Equal(t, uint32(27000), *attempt.ChargedCents)
	assert.Equal(t, 1, fx.notifier.conflictCount())

	// Repeat verifies keep reporting the conflict without side effects.
	_, err = fx.svc.VerifyPayment(ctx, sessID)
	assert.ErrorIs(t, err, repository.ErrPostPaymentConflict)
	assert.Equal(t, 1, fx.notifier.conflictCount())

	// The conflicted attempt shows up as a pending refund for its owner
	// and for nobody else.
	mine, err := fx.svc.PendingRefunds(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, sessID, mine[0].SessionID)
	others, err := fx.svc.PendingRefunds(ctx, "rival")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestVerifyPayment_ConcurrentVerifiesSettleOnce(t *testing.T) {
	fx := newCheckoutFixture()
	ctx := context.Background()

	_, err := fx.svc.StartCheckout(ctx, "user-1", 1, []string{"G8"}, "")
	require.NoError(t, err)
	sessID := fx.provider.lastSessionID()
	fx.provider.pay(sessID)

	const workers = 8
	bookings := make([]*model.Booking, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bookings[i], errs[i] = fx.svc.VerifyPayment(ctx, sessID)
		}(i)
	}
	wg.Wait()

	var winner uint64
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, bookings[i])
		if winner == 0 {
			winner = bookings[i].ID
		}
		assert.Equal(t, winner, bookings[i].ID)
	}
	assert.Equal(t, winner, fx.ledger.seatHolder(1, "G8"))
	assert.Equal(t, 0, fx.notifier.conflictCount())
}
