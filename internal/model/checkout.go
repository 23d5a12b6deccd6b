package model

import "time"

// Checkout attempt states.  An attempt starts in PENDING_PROVIDER when
// the provider session is created and settles into exactly one of the
// terminal-ish states below.  FAILED is not sticky: a later verify may
// still find the session paid and settle it.
const (
	CheckoutPendingProvider = "PENDING_PROVIDER" // waiting on the payment provider
	CheckoutConfirmed       = "CONFIRMED"        // paid and seats claimed; BookingID is set
	CheckoutFailed          = "FAILED"           // provider reported not paid on last verify
	CheckoutConflicted      = "CONFLICTED"       // paid but seats were taken; needs out-of-band refund
)

// CheckoutAttempt tracks one payment-gated reservation attempt, keyed
// by the provider's checkout session id.  The row doubles as the
// idempotency mapping from session id to the booking it produced and as
// the durable record of money collected without a seat claim.
//
// Fields:
//  SessionID    – provider checkout session id (primary key).
//  UserID       – user who started the checkout.
//  ShowID       – show the requested seats belong to.
//  Seats        – requested seat labels, snapshotted at session creation.
//  AmountCents  – server-computed total quoted to the provider.
//  State        – one of the Checkout* constants above.
//  BookingID    – booking produced on confirmation; nil otherwise.
//  ChargedCents – amount the provider actually collected; set when the
//                 provider reports paid (CONFIRMED and CONFLICTED).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last state transition timestamp.
type CheckoutAttempt struct {
	SessionID    string    // checkout_attempts.session_id
	UserID       string    // checkout_attempts.user_id
	ShowID       uint64    // checkout_attempts.show_id
	Seats        []string  // checkout_attempts.seats (JSON)
	AmountCents  uint32    // checkout_attempts.amount_cents
	State        string    // checkout_attempts.state
	BookingID    *uint64   // checkout_attempts.booking_id (nullable)
	ChargedCents *uint32   // checkout_attempts.charged_cents (nullable)
	CreatedAt    time.Time // checkout_attempts.created_at
	UpdatedAt    time.Time // checkout_attempts.updated_at
}
