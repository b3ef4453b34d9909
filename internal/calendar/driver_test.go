package calendar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func gregorian(t *testing.T) *Driver {
	t.Helper()
	names := []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	lengths := []int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	months := make([]Month, len(names))
	for i := range names {
		months[i] = Month{Name: names[i], Days: lengths[i]}
	}
	february := 1
	def := Definition{
		Name:     "Gregorian",
		Weekdays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
		Months:   months,
		// Absolute day 0 is 1800-01-01, a Wednesday.
		FirstWeekday: 2,
		StartYear:    1800,
		Leap: &LeapRule{
			Interval:    4,
			TargetMonth: &february,
			Exclude: []*LeapRule{{
				Interval: 100,
				Exclude:  []*LeapRule{{Interval: 400}},
			}},
		},
	}
	d, err := NewDriver(def)
	require.NoError(t, err)
	return d
}

// harptos is the Calendar of Harptos: twelve 30-day months interleaved with
// five festival days, Shieldmeet added to Midsummer every fourth year.
func harptos(t *testing.T) *Driver {
	t.Helper()
	midsummer := 9
	def := Definition{
		Name: "Harptos",
		Months: []Month{
			{Name: "Hammer", Days: 30},
			{Name: "Midwinter", Days: 1, Kind: MonthIntercalary},
			{Name: "Alturiak", Days: 30},
			{Name: "Ches", Days: 30},
			{Name: "Tarsakh", Days: 30},
			{Name: "Greengrass", Days: 1, Kind: MonthIntercalary},
			{Name: "Mirtul", Days: 30},
			{Name: "Kythorn", Days: 30},
			{Name: "Flamerule", Days: 30},
			{Name: "Midsummer", Days: 1, Kind: MonthIntercalary},
			{Name: "Eleasis", Days: 30},
			{Name: "Eleint", Days: 30},
			{Name: "Highharvestide", Days: 1, Kind: MonthIntercalary},
			{Name: "Marpenoth", Days: 30},
			{Name: "Uktar", Days: 30},
			{Name: "Feast of the Moon", Days: 1, Kind: MonthIntercalary},
			{Name: "Nightal", Days: 30},
		},
		StartYear:  1492,
		YearSuffix: "DR",
		Leap:       &LeapRule{Interval: 4, TargetMonth: &midsummer},
	}
	d, err := NewDriver(def)
	require.NoError(t, err)
	return d
}

func TestGregorianLeapYears(t *testing.T) {
	d := gregorian(t)

	for _, y := range []int64{1900, 2100, 2200, 2300, 2023, 1999} {
		require.False(t, d.IsLeapYear(y), "year %d", y)
		require.Equal(t, int64(365), d.DaysInYear(y))
	}
	for _, y := range []int64{1600, 2000, 2400, 2024, 1896, 1904} {
		require.True(t, d.IsLeapYear(y), "year %d", y)
		require.Equal(t, int64(366), d.DaysInYear(y))
	}
}

func TestCountLeapYears(t *testing.T) {
	d := gregorian(t)

	// 1896 and 1904 are leap; 1900 is excluded.
	require.Equal(t, int64(2), d.CountLeapYears(1896, 1905))
	// 1996, 2000 (exclude re-admitted), 2004.
	require.Equal(t, int64(3), d.CountLeapYears(1996, 2005))
	// Any 400-year window holds 97 leap years.
	require.Equal(t, int64(97), d.CountLeapYears(1800, 2199))
	require.Equal(t, int64(97), d.CountLeapYears(1937, 2336))
	require.Equal(t, int64(0), d.CountLeapYears(2001, 2000))
}

func TestGregorianKnownDates(t *testing.T) {
	d := gregorian(t)

	date := d.Date(0)
	require.Equal(t, int64(1800), date.Year)
	require.Equal(t, "January", date.MonthName)
	require.Equal(t, 1, date.Day)
	require.Equal(t, "Wednesday", date.Weekday)
	require.False(t, date.SimpleCounter)

	// 1800 is not a leap year (divisible by 100, not 400).
	date = d.Date(59)
	require.Equal(t, "March", date.MonthName)
	require.Equal(t, 1, date.Day)

	// Day 365 is 1801-01-01.
	date = d.Date(365)
	require.Equal(t, int64(1801), date.Year)
	require.Equal(t, "January", date.MonthName)
	require.Equal(t, 1, date.Day)

	// Weekdays cycle with period 7.
	require.Equal(t, d.Date(0).Weekday, d.Date(7).Weekday)
	require.Equal(t, "Thursday", d.Date(1).Weekday)
}

func TestRoundTrip(t *testing.T) {
	days := []int64{0, 1, 59, 365, 1000, 10000, 100000, 1_000_000_000, 10_000_000_000}

	for _, d := range []*Driver{gregorian(t), harptos(t)} {
		for _, day := range days {
			date := d.Date(day)
			require.Equal(t, day, d.AbsoluteDay(date.Year, date.Month, date.Day),
				"calendar %s day %d resolved to %s", d.Definition().Name, day, date)
		}
	}
}

func TestRoundTripNoLeapRule(t *testing.T) {
	def := Definition{
		Name:      "Counter",
		Months:    []Month{{Name: "First", Days: 20}, {Name: "Second", Days: 25}},
		StartYear: 1,
	}
	d, err := NewDriver(def)
	require.NoError(t, err)

	for _, day := range []int64{0, 19, 20, 44, 45, 10_000_000_000} {
		date := d.Date(day)
		require.True(t, date.SimpleCounter)
		require.Equal(t, day, d.AbsoluteDay(date.Year, date.Month, date.Day))
	}

	// Pure division: year advances every 45 days.
	require.Equal(t, int64(1), d.Date(44).Year)
	require.Equal(t, int64(2), d.Date(45).Year)
}

func TestHarptosScenario(t *testing.T) {
	d := harptos(t)

	// 1492 DR is a leap year; Shieldmeet follows Midsummer.
	require.True(t, d.IsLeapYear(1492))
	require.False(t, d.IsLeapYear(1493))

	date := d.Date(212)
	require.Equal(t, "Midsummer", date.MonthName)
	require.Equal(t, 1, date.Day)
	require.Equal(t, int64(1492), date.Year)
	require.True(t, date.Intercalary)
	require.Equal(t, "Midsummer 1, 1492 DR", date.String())

	date = d.Date(213)
	require.Equal(t, "Midsummer", date.MonthName)
	require.Equal(t, 2, date.Day)

	// The analogous day one year later lands in Eleasis: 1493 is not a leap
	// year, so Midsummer only has one day.
	date = d.Date(366 + 213)
	require.Equal(t, int64(1493), date.Year)
	require.Equal(t, "Eleasis", date.MonthName)
	require.Equal(t, 1, date.Day)
}

func TestIntercalaryLeapInsertion(t *testing.T) {
	d := harptos(t)

	require.Equal(t, 2, d.DaysInMonth(1492, 9))
	require.Equal(t, 1, d.DaysInMonth(1493, 9))

	// The first of Eleasis shifts by the extra day only in leap years.
	require.Equal(t, int64(2), d.AbsoluteDay(1492, 10, 1)-d.AbsoluteDay(1492, 9, 1))
	require.Equal(t, int64(1), d.AbsoluteDay(1493, 10, 1)-d.AbsoluteDay(1493, 9, 1))

	// Other months are untouched.
	require.Equal(t, 30, d.DaysInMonth(1492, 0))
	require.Equal(t, 30, d.DaysInMonth(1492, 10))
}

func TestLeapDayAppendedWithoutTarget(t *testing.T) {
	def := Definition{
		Name: "Tailed",
		Months: []Month{
			{Name: "Alpha", Days: 10},
			{Name: "Omega", Days: 10},
		},
		StartYear: 0,
		Leap:      &LeapRule{Interval: 2},
	}
	d, err := NewDriver(def)
	require.NoError(t, err)

	// No target month: the extra day lands at year end.
	require.Equal(t, 11, d.DaysInMonth(0, 1))
	require.Equal(t, 10, d.DaysInMonth(1, 1))
	require.Equal(t, int64(21), d.DaysInYear(0))

	date := d.Date(20)
	require.Equal(t, "Omega", date.MonthName)
	require.Equal(t, 11, date.Day)
	require.Equal(t, int64(0), date.Year)
}

func TestDefinitionValidation(t *testing.T) {
	_, err := NewDriver(Definition{Name: "empty"})
	require.ErrorIs(t, err, ErrNoStandardMonth)

	_, err = NewDriver(Definition{
		Name:   "festival-only",
		Months: []Month{{Name: "Fest", Days: 1, Kind: MonthIntercalary}},
	})
	require.ErrorIs(t, err, ErrNoStandardMonth)

	_, err = NewDriver(Definition{
		Name:   "zero-month",
		Months: []Month{{Name: "Void", Days: 0}},
	})
	require.ErrorIs(t, err, ErrBadMonth)

	bad := 5
	_, err = NewDriver(Definition{
		Name:   "bad-leap",
		Months: []Month{{Name: "Only", Days: 30}},
		Leap:   &LeapRule{Interval: 4, TargetMonth: &bad},
	})
	require.ErrorIs(t, err, ErrBadLeapRule)

	_, err = NewDriver(Definition{
		Name:     "bad-holiday",
		Months:   []Month{{Name: "Only", Days: 30}},
		Holidays: []Holiday{{Name: "Feast", Month: 0, Day: 31}},
	})
	require.ErrorIs(t, err, ErrBadHoliday)
}

func TestEras(t *testing.T) {
	def := Definition{
		Name:      "Erad",
		Months:    []Month{{Name: "Only", Days: 30}},
		StartYear: 0,
		Eras: []Era{
			{Name: "First Age", StartYear: 0},
			{Name: "Second Age", StartYear: 1000},
		},
	}
	require.Equal(t, "First Age", def.EraOf(500))
	require.Equal(t, "Second Age", def.EraOf(1000))
	require.Equal(t, "", def.EraOf(-1))
}

func TestClock(t *testing.T) {
	c := NewClock(1440)

	require.Equal(t, int64(0), c.Advance(90))
	require.Equal(t, int64(90), c.MinuteOfDay())

	require.Equal(t, int64(1), c.Advance(1440))
	require.Equal(t, int64(90), c.MinuteOfDay())

	require.Equal(t, int64(2), c.Advance(2880-90))
	require.Equal(t, int64(0), c.MinuteOfDay())

	// Rewinding rolls days backward.
	require.Equal(t, int64(-1), c.Advance(-10))
	require.Equal(t, int64(1430), c.MinuteOfDay())

	c.SetMinuteOfDay(100)
	require.Equal(t, int64(100), c.MinuteOfDay())
}
