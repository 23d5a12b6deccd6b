// Package pricing computes server-side ticket prices.  The seat's row
// letter selects a tier and each tier adds a fixed surcharge to the
// show's base price.  The tier table here is the single authoritative
// pricing source: both the direct booking path and the payment checkout
// path must go through it so the amount quoted to the payment provider
// can never diverge from the amount recorded on the booking.
package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidSeatIdentifier is returned when a seat label does not parse
// or its row letter is not covered by the tier table.  This indicates a
// data or configuration bug, not normal contention, so callers surface
// it rather than defaulting to any tier.
var ErrInvalidSeatIdentifier = errors.New("invalid seat identifier")

// Tier names a pricing band of rows.
type Tier string

const (
	TierStandard Tier = "STANDARD" // rows A–C, no surcharge
	TierPremium  Tier = "PREMIUM"  // rows D–H
	TierRecliner Tier = "RECLINER" // row I
)

// ConvenienceFeeCents is added once per booking when the seat set is
// non-empty, never per seat.
const ConvenienceFeeCents uint32 = 2000

// surchargeCents maps each tier to the amount added on top of the
// show's base price for every seat in that tier.
var surchargeCents = map[Tier]uint32{
	TierStandard: 0,
	TierPremium:  10000,
	TierRecliner: 20000,
}

// TierFor resolves the tier for a seat label.  Only the row letter
// participates in tier selection; the seat number is validated but does
// not influence the price.
func TierFor(seat string) (Tier, error) {
	row, _, err := ParseSeat(seat)
	if err != nil {
		return "", err
	}
	switch {
	case row >= 'A' && row <= 'C':
		return TierStandard, nil
	case row >= 'D' && row <= 'H':
		return TierPremium, nil
	case row == 'I':
		return TierRecliner, nil
	}
	return "", fmt.Errorf("%w: unknown row %q", ErrInvalidSeatIdentifier, string(row))
}

// ParseSeat splits a seat label like "G12" into its row letter and seat
// number.  Labels must be an uppercase row letter followed by a number
// between 1 and 99 with no leading zero.  Anything else fails with
// ErrInvalidSeatIdentifier.
func ParseSeat(seat string) (byte, int, error) {
	if len(seat) < 2 || len(seat) > 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatIdentifier, seat)
	}
	row := seat[0]
	if row < 'A' || row > 'Z' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatIdentifier, seat)
	}
	if seat[1] == '0' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatIdentifier, seat)
	}
	num := 0
	for i := 1; i < len(seat); i++ {
		d := seat[i]
		if d < '0' || d > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSeatIdentifier, seat)
		}
		num = num*10 + int(d-'0')
	}
	return row, num, nil
}

// SeatPriceCents returns the price for one seat given the show's base
// price: base price plus the tier surcharge for the seat's row.
func SeatPriceCents(seat string, baseCents uint32) (uint32, error) {
	tier, err := TierFor(seat)
	if err != nil {
		return 0, err
	}
	return baseCents + surchargeCents[tier], nil
}

// TotalCents computes the full booking amount for a seat set: the sum
// of per-seat tier prices plus the convenience fee, charged once if and
// only if the set is non-empty.  The seat set is priced as given; the
// caller is responsible for rejecting duplicates first.
func TotalCents(seats []string, baseCents uint32) (uint32, error) {
	if len(seats) == 0 {
		return 0, nil
	}
	var total uint32
	for _, s := range seats {
		p, err := SeatPriceCents(s, baseCents)
		if err != nil {
			return 0, err
		}
		total += p
	}
	return total + ConvenienceFeeCents, nil
}
