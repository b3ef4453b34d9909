package duration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/almanac/internal/entropy"
)

func TestParseFixedTerms(t *testing.T) {
	units := DefaultUnits()
	cases := []struct {
		expr string
		want int64
	}{
		{"6 hours", 360},
		{"2 weeks + 3 days", 24480},
		{"1 day", 1440},
		{"90 minutes", 90},
		{"1 year", 525600},
		{"1 month - 1 week", 33120},
		{"+2 hours", 120},
		{"2 Hours", 120},
		{"1 hour+30 minutes", 90},
		{"1 week - 1 day + 1 hour", 8700},
		{"0 minutes", 0},
	}
	for _, tc := range cases {
		got, err := Parse(tc.expr, units, entropy.New(1))
		require.NoError(t, err, tc.expr)
		require.Equal(t, tc.want, got, tc.expr)
	}
}

func TestParseErrors(t *testing.T) {
	units := DefaultUnits()
	cases := []struct {
		expr string
		want error
	}{
		{"", ErrEmptyExpression},
		{"   ", ErrEmptyExpression},
		{"1 hour - 2 hours", ErrNegativeResult},
		{"5 hours +", ErrTrailingOperator},
		{"5", ErrMissingUnit},
		{"2d6", ErrMissingUnit},
		{"hours", ErrMissingTerm},
		{"5 fortnights", ErrUnknownUnit},
		{"3 days 4 hours", ErrMissingTerm},
		{"0d6 days", ErrBadDice},
	}
	for _, tc := range cases {
		_, err := Parse(tc.expr, units, entropy.New(1))
		require.ErrorIs(t, err, tc.want, tc.expr)
	}
}

func TestParseDiceDeterministic(t *testing.T) {
	units := DefaultUnits()

	a, err := Parse("2d6 days + 1 hour", units, entropy.New(42))
	require.NoError(t, err)
	b, err := Parse("2d6 days + 1 hour", units, entropy.New(42))
	require.NoError(t, err)
	require.Equal(t, a, b)

	// 2d6 is between 2 and 12 days.
	require.GreaterOrEqual(t, a, int64(2*1440+60))
	require.LessOrEqual(t, a, int64(12*1440+60))
}

func TestParseDiceConsumesGeneratorInTermOrder(t *testing.T) {
	units := DefaultUnits()

	rng := entropy.New(7)
	first := int64(rng.RandomInt(1, 8))
	second := int64(rng.RandomInt(1, 4)) + int64(rng.RandomInt(1, 4))

	got, err := Parse("1d8 days + 2d4 hours", units, entropy.New(7))
	require.NoError(t, err)
	require.Equal(t, first*1440+second*60, got)
}

func TestParseCustomUnits(t *testing.T) {
	units := Units{
		MinutesPerHour: 60,
		HoursPerDay:    20,
		DaysPerWeek:    10,
		DaysPerMonth:   30,
		DaysPerYear:    360,
	}
	got, err := Parse("1 week", units, entropy.New(1))
	require.NoError(t, err)
	require.Equal(t, int64(10*20*60), got)

	got, err = Parse("1 day", units, entropy.New(1))
	require.NoError(t, err)
	require.Equal(t, int64(1200), got)
}

func TestCheck(t *testing.T) {
	units := DefaultUnits()
	require.NoError(t, Check("2d6 days + 3 hours", units))
	require.Error(t, Check("5 hours +", units))
	require.Error(t, Check("", units))
	require.Error(t, Check("3 parsecs", units))

	// A deterministically negative expression must not pass validation.
	require.ErrorIs(t, Check("1 hour - 2 hours", units), ErrNegativeResult)
	// Negative under minimum rolls is rejected too; those rolls can happen.
	require.ErrorIs(t, Check("1d4 hours - 3 hours", units), ErrNegativeResult)
	// Non-negative at minimum rolls stays valid.
	require.NoError(t, Check("1d4 hours - 1 hour", units))
}
