package calendar

import "fmt"

// Driver converts between absolute day counters and structured dates for one
// calendar definition. All methods are pure; the driver carries only values
// derived from the definition at construction.
//
// Date math is bounded by the leap rule's repeat cycle, never by the size of
// the input day: full cycles advance in O(1) and only the remainder (at most
// one cycle) is walked year by year. Day counters in the billions resolve in
// the same time as small ones.
type Driver struct {
	def Definition

	baseDays     int64 // days in a non-leap year
	leapMonth    int   // month index that absorbs the leap day
	cycleYears   int64 // years per leap-rule repeat cycle
	cycleDays    int64 // days per repeat cycle
	leapsInCycle int64 // leap years per repeat cycle
}

// NewDriver validates def and precomputes the repeat cycle.
func NewDriver(def Definition) (*Driver, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("calendar %q: %w", def.Name, err)
	}

	d := &Driver{def: def}
	for _, m := range def.Months {
		d.baseDays += int64(m.Days)
	}

	d.leapMonth = len(def.Months) - 1
	if def.Leap != nil && def.Leap.TargetMonth != nil {
		d.leapMonth = *def.Leap.TargetMonth
	}

	d.cycleYears = def.Leap.CycleYears()
	d.cycleDays = d.cycleYears * d.baseDays
	for y := int64(0); y < d.cycleYears; y++ {
		if def.Leap.Matches(def.StartYear + y) {
			d.cycleDays++
			d.leapsInCycle++
		}
	}
	return d, nil
}

// Definition returns the calendar definition the driver was built from.
func (d *Driver) Definition() Definition { return d.def }

// IsLeapYear reports whether year is a leap year under the calendar's rules.
func (d *Driver) IsLeapYear(year int64) bool {
	return d.def.Leap.Matches(year)
}

// DaysInYear returns the number of days in year, including any leap day.
func (d *Driver) DaysInYear(year int64) int64 {
	if d.IsLeapYear(year) {
		return d.baseDays + 1
	}
	return d.baseDays
}

// DaysInMonth returns the length of the month at index for the given year.
// The leap day lands in the rule's target month, or the final month when the
// rule names none.
func (d *Driver) DaysInMonth(year int64, month int) int {
	days := d.def.Months[month].Days
	if month == d.leapMonth && d.IsLeapYear(year) {
		days++
	}
	return days
}

// CountLeapYears returns the number of leap years in [from, to] inclusive.
func (d *Driver) CountLeapYears(from, to int64) int64 {
	if to < from {
		return 0
	}
	span := to - from + 1
	full := span / d.cycleYears
	count := full * d.leapsInCycle
	for y := from + full*d.cycleYears; y <= to; y++ {
		if d.IsLeapYear(y) {
			count++
		}
	}
	return count
}

// Date resolves an absolute day counter into a structured date. Day 0 is the
// first day of the calendar's starting year.
func (d *Driver) Date(day int64) Date {
	fullCycles := floorDiv(day, d.cycleDays)
	rem := day - fullCycles*d.cycleDays
	year := d.def.StartYear + fullCycles*d.cycleYears

	// rem is under one cycle; the walk is bounded by cycleYears.
	for {
		yd := d.DaysInYear(year)
		if rem < yd {
			break
		}
		rem -= yd
		year++
	}

	month := 0
	for i := range d.def.Months {
		md := int64(d.DaysInMonth(year, i))
		if rem < md {
			month = i
			break
		}
		rem -= md
	}

	date := Date{
		Year:        year,
		Month:       month,
		Day:         int(rem) + 1,
		MonthName:   d.def.Months[month].Name,
		YearSuffix:  d.def.YearSuffix,
		Intercalary: d.def.Months[month].Intercalary(),
	}
	if len(d.def.Weekdays) == 0 {
		date.SimpleCounter = true
	} else {
		n := int64(len(d.def.Weekdays))
		date.Weekday = d.def.Weekdays[floorMod(day+int64(d.def.FirstWeekday), n)]
	}
	return date
}

// AbsoluteDay is the inverse of Date: it returns the absolute day counter for
// a (year, month index, day of month) triple. For every d ≥ 0,
// AbsoluteDay(Date(d)) == d.
func (d *Driver) AbsoluteDay(year int64, month, dayOfMonth int) int64 {
	day := d.daysBeforeYear(year)
	for i := 0; i < month; i++ {
		day += int64(d.DaysInMonth(year, i))
	}
	return day + int64(dayOfMonth) - 1
}

// daysBeforeYear returns the absolute day of the first day of year.
func (d *Driver) daysBeforeYear(year int64) int64 {
	delta := year - d.def.StartYear
	fullCycles := floorDiv(delta, d.cycleYears)
	day := fullCycles * d.cycleDays
	for y := d.def.StartYear + fullCycles*d.cycleYears; y < year; y++ {
		day += d.DaysInYear(y)
	}
	return day
}

// SeasonOf returns the season attached to the date's month, or "".
func (d *Driver) SeasonOf(date Date) string {
	if date.Month < 0 || date.Month >= len(d.def.Months) {
		return ""
	}
	return d.def.Months[date.Month].Season
}
