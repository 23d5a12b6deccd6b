package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefy/cinefy-server/internal/pricing"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		seat string
		tier pricing.Tier
	}{
		{"A1", pricing.TierStandard},
		{"B12", pricing.TierStandard},
		{"C99", pricing.TierStandard},
		{"D1", pricing.TierPremium},
		{"F7", pricing.TierPremium},
		{"H99", pricing.TierPremium},
		{"I1", pricing.TierRecliner},
		{"I99", pricing.TierRecliner},
	}
	for _, tc := range cases {
		tier, err := pricing.TierFor(tc.seat)
		require.NoError(t, err, tc.seat)
		assert.Equal(t, tc.tier, tier, tc.seat)
	}
}

func TestTierFor_RowOutsideTable(t *testing.T) {
	for _, seat := range []string{"J1", "K12", "Z99"} {
		_, err := pricing.TierFor(seat)
		assert.ErrorIs(t, err, pricing.ErrInvalidSeatIdentifier, seat)
	}
}

func TestParseSeat(t *testing.T) {
	row, num, err := pricing.ParseSeat("G12")
	require.NoError(t, err)
	assert.Equal(t, byte('G'), row)
	assert.Equal(t, 12, num)

	row, num, err = pricing.ParseSeat("A1")
	require.NoError(t, err)
	assert.Equal(t, byte('A'), row)
	assert.Equal(t, 1, num)
}

func TestParseSeat_Invalid(t *testing.T) {
	bad := []string{
		"",     // empty
		"A",    // missing number
		"1A",   // digit first
		"a1",   // lowercase row
		"A0",   // seat numbers start at 1
		"A01",  // leading zero
		"A100", // beyond 99
		"AA1",  // two row letters
		"A1 ",  // trailing space
		"G1.5", // not an integer
	}
	for _, seat := range bad {
		_, _, err := pricing.ParseSeat(seat)
		assert.ErrorIs(t, err, pricing.ErrInvalidSeatIdentifier, "%q", seat)
	}
}

func TestSeatPriceCents(t *testing.T) {
	const base = 15000

	p, err := pricing.SeatPriceCents("A1", base)
	require.NoError(t, err)
	assert.Equal(t, uint32(15000), p)

	p, err = pricing.SeatPriceCents("D5", base)
	require.NoError(t, err)
	assert.Equal(t, uint32(25000), p)

	p, err = pricing.SeatPriceCents("I3", base)
	require.NoError(t, err)
	assert.Equal(t, uint32(35000), p)
}

func TestTotalCents(t *testing.T) {
	// One standard and one premium seat at a 15000 base:
	// 15000 + 25000 + 2000 fee = 42000.
	total, err := pricing.TotalCents([]string{"A1", "D5"}, 15000)
	require.NoError(t, err)
	assert.Equal(t, uint32(42000), total)
}

func TestTotalCents_FeeChargedOncePerBooking(t *testing.T) {
	one, err := pricing.TotalCents([]string{"B2"}, 10000)
	require.NoError(t, err)
	three, err := pricing.TotalCents([]string{"B2", "B3", "B4"}, 10000)
	require.NoError(t, err)
	// Three identical-tier seats cost exactly three seat prices more
	// minus the two fees a per-seat charge would have added.
	assert.Equal(t, uint32(12000), one)
	assert.Equal(t, uint32(32000), three)
}

func TestTotalCents_EmptySetIsZero(t *testing.T) {
	total, err := pricing.TotalCents(nil, 15000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), total)
}

func TestTotalCents_PropagatesInvalidSeat(t *testing.T) {
	_, err := pricing.TotalCents([]string{"A1", "J9"}, 15000)
	assert.ErrorIs(t, err, pricing.ErrInvalidSeatIdentifier)
}
