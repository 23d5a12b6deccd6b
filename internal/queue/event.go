// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a booking has been created
// and its seats claimed. It carries enough information for the
// notification dispatcher to confirm the sale to the customer without
// querying the primary database. Publishing is fire-and-forget: a
// failed publish never rolls back the booking.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      string   `json:"user_id"`
	ShowID      uint64   `json:"show_id"`
	MovieRef    string   `json:"movie_ref"`
	StartsAt    string   `json:"starts_at"`
	Venue       string   `json:"venue"`
	Seats       []string `json:"seats"`
	AmountCents uint32   `json:"amount_cents"`
	Paid        bool     `json:"paid"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// PaymentConflictEvent is published when the payment provider collected
// money for a checkout session whose seats were claimed by someone else
// before verification. It hands the case to the out-of-band
// reconciliation and refund process; the same facts are also recorded
// durably on the checkout attempt row.
type PaymentConflictEvent struct {
	SessionID    string   `json:"session_id"`
	UserID       string   `json:"user_id"`
	ShowID       uint64   `json:"show_id"`
	Seats        []string `json:"seats"`
	ChargedCents uint32   `json:"charged_cents"`
	OccurredAt   string   `json:"occurred_at"`
}
