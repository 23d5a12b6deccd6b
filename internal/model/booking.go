package model

import "time"

// Booking is the durable record of a completed sale.  A booking is
// created exactly once, in the same transaction that claims its
// seats, and is never updated or deleted afterwards.  The amount is
// always computed server-side; client-declared prices are ignored.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – opaque user id issued by the external identity provider.
//  ShowID      – show the seats belong to.
//  Seats       – seat labels claimed by this booking, each unique.
//  AmountCents – total charged in cents (tier prices + convenience fee).
//  PaymentRef  – provider checkout session id; nil on the direct path.
//  IsPaid      – whether payment has been collected for this booking.
//  CreatedAt   – creation timestamp.
type Booking struct {
	ID          uint64     // bookings.id
	UserID      string     // bookings.user_id
	ShowID      uint64     // bookings.show_id
	Seats       []string   // booking_seats rows for this booking
	AmountCents uint32     // bookings.amount_cents
	PaymentRef  *string    // bookings.payment_ref (nullable, unique)
	IsPaid      bool       // bookings.is_paid
	CreatedAt   time.Time  // bookings.created_at
}

// BookingSeat links a booking to one claimed seat together with the
// tier price that was charged for it.
//
// Fields:
//  BookingID  – reference to the owning booking.
//  SeatLabel  – seat identifier such as "G12".
//  PriceCents – price charged for this seat in cents.
type BookingSeat struct {
	BookingID  uint64 // booking_seats.booking_id
	SeatLabel  string // booking_seats.seat_label
	PriceCents uint32 // booking_seats.price_cents
}
