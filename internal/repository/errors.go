// Package repository defines error types that are reused across multiple
// repositories and services. These sentinel values allow higher layers
// such as handlers to distinguish between different failure scenarios
// and map each one to an HTTP status. SeatConflict in particular is the
// expected outcome of losing a race for seats and must never be retried
// silently by this layer.
package repository

import "errors"

// ErrShowNotFound indicates that a show id does not resolve to a row.
// Handlers should translate this into an HTTP 404 response.
var ErrShowNotFound = errors.New("show not found")

// ErrSeatConflict is returned when at least one requested seat is
// already present in the show's occupancy map. The commit that hit the
// conflict performs no partial mutation. Handlers should translate this
// into an HTTP 409 response so the caller can pick different seats.
var ErrSeatConflict = errors.New("seat conflict")

// ErrInvalidRequest is returned for empty or duplicate-containing seat
// sets. Handlers should translate this into an HTTP 400 response.
var ErrInvalidRequest = errors.New("invalid request")

// ErrBookingNotFound indicates that no booking matches the lookup key.
var ErrBookingNotFound = errors.New("booking not found")

// ErrCheckoutNotFound indicates that no checkout attempt exists for the
// given provider session id.
var ErrCheckoutNotFound = errors.New("checkout session not found")

// ErrPaymentNotCompleted is returned when the payment provider reports
// that a session has not been paid. The attempt is marked FAILED but a
// later verify re-consults the provider, so callers may poll again.
var ErrPaymentNotCompleted = errors.New("payment not completed")

// ErrPostPaymentConflict is returned when the provider collected money
// for a session whose seats were claimed by someone else in the window
// between checkout creation and payment confirmation. The condition is
// recorded durably on the checkout attempt and must be remediated by an
// out-of-band refund process; it is never silently dropped.
var ErrPostPaymentConflict = errors.New("seats taken after payment; refund required")
