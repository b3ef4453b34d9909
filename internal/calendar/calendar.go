// Package calendar implements arbitrary campaign calendars: variable month
// tables, intercalary days, recursive leap rules, and conversion between an
// absolute day counter and structured dates.
package calendar

import (
	"errors"
	"fmt"
)

// MonthKind distinguishes regular months from intercalary insertions.
type MonthKind int

const (
	// MonthStandard is a regular month in the yearly cycle.
	MonthStandard MonthKind = iota
	// MonthIntercalary is a short month inserted outside the regular cycle,
	// typically a single festival day.
	MonthIntercalary
)

// Month is one entry in a calendar's ordered month table.
type Month struct {
	Name   string
	Days   int
	Kind   MonthKind
	Season string // optional season this month belongs to
}

// Intercalary reports whether the month sits outside the regular cycle.
func (m Month) Intercalary() bool { return m.Kind == MonthIntercalary }

// Holiday is a named recurring date in the calendar definition.
type Holiday struct {
	Name  string
	Month int // month index
	Day   int // 1-based day of month
}

// Era is a named span of years starting at StartYear.
type Era struct {
	Name      string
	StartYear int64
}

// Definition describes a complete calendar system. Definitions are loaded
// once at startup and never mutated by the engine.
type Definition struct {
	Name         string
	Weekdays     []string // empty means simple-counter mode
	FirstWeekday int      // weekday index of absolute day 0
	Months       []Month
	Holidays     []Holiday
	StartYear    int64 // year of absolute day 0
	YearSuffix   string
	Eras         []Era
	Leap         *LeapRule
	Seasons      []string
}

// Date is a structured calendar date derived from an absolute day counter.
type Date struct {
	Year          int64
	Month         int // 0-based month index
	Day           int // 1-based day of month
	MonthName     string
	Weekday       string
	YearSuffix    string
	Intercalary   bool
	SimpleCounter bool
}

// String renders the date the way session notes reference it, e.g.
// "Midsummer 1, 1492 DR".
func (d Date) String() string {
	if d.YearSuffix != "" {
		return fmt.Sprintf("%s %d, %d %s", d.MonthName, d.Day, d.Year, d.YearSuffix)
	}
	return fmt.Sprintf("%s %d, %d", d.MonthName, d.Day, d.Year)
}

// ErrNoStandardMonth indicates a calendar made only of intercalary months.
var ErrNoStandardMonth = errors.New("calendar needs at least one standard month")

// ErrBadMonth indicates a month with a non-positive length or empty name.
var ErrBadMonth = errors.New("month must have a name and at least one day")

// ErrBadLeapRule indicates a leap rule with an invalid interval or target.
var ErrBadLeapRule = errors.New("invalid leap rule")

// ErrBadHoliday indicates a holiday referencing a nonexistent date.
var ErrBadHoliday = errors.New("holiday references an invalid date")

// Validate checks a definition for structural problems. A nil error means
// NewDriver will accept the definition.
func (def Definition) Validate() error {
	if len(def.Months) == 0 {
		return ErrNoStandardMonth
	}
	standard := 0
	for i, m := range def.Months {
		if m.Name == "" || m.Days < 1 {
			return fmt.Errorf("%w: month %d (%q)", ErrBadMonth, i, m.Name)
		}
		if !m.Intercalary() {
			standard++
		}
	}
	if standard == 0 {
		return ErrNoStandardMonth
	}
	if err := def.Leap.validate(len(def.Months)); err != nil {
		return err
	}
	for _, h := range def.Holidays {
		if h.Month < 0 || h.Month >= len(def.Months) {
			return fmt.Errorf("%w: %q month %d", ErrBadHoliday, h.Name, h.Month)
		}
		if h.Day < 1 || h.Day > def.Months[h.Month].Days {
			return fmt.Errorf("%w: %q day %d of %s", ErrBadHoliday, h.Name, h.Day, def.Months[h.Month].Name)
		}
	}
	return nil
}

// MonthIndex returns the index of the named month, or -1.
func (def Definition) MonthIndex(name string) int {
	for i, m := range def.Months {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// EraOf returns the name of the era containing year, or "".
func (def Definition) EraOf(year int64) string {
	name := ""
	for _, e := range def.Eras {
		if e.StartYear <= year {
			name = e.Name
		}
	}
	return name
}
