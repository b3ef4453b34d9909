package calendar

import "fmt"

// LeapRule is a recursive leap-year rule. A year matches when
// (year - Offset) mod Interval == 0 and no rule in Exclude matches it.
// Excludes nest: an exclude's own excludes re-admit leap status, which is how
// Gregorian "every 4, except every 100, except every 400" is expressed.
type LeapRule struct {
	Interval    int64
	Offset      int64
	TargetMonth *int // month that absorbs the extra day; nil appends it at year end
	Exclude     []*LeapRule
}

// Matches reports whether year is a leap year under the rule. A nil rule
// never matches.
func (r *LeapRule) Matches(year int64) bool {
	if r == nil {
		return false
	}
	if floorMod(year-r.Offset, r.Interval) != 0 {
		return false
	}
	for _, ex := range r.Exclude {
		if ex.Matches(year) {
			return false
		}
	}
	return true
}

// CycleYears returns the number of years after which the rule's leap pattern
// repeats: the least common multiple of every interval in the tree. A nil
// rule has a trivial one-year cycle.
func (r *LeapRule) CycleYears() int64 {
	if r == nil {
		return 1
	}
	cycle := r.Interval
	for _, ex := range r.Exclude {
		cycle = lcm(cycle, ex.CycleYears())
	}
	return cycle
}

// maxCycleYears bounds the repeat cycle so driver construction stays cheap.
// Gregorian-style rules cycle at 400; anything past a million years is a
// definition mistake, not a calendar.
const maxCycleYears = 1_000_000

func (r *LeapRule) validate(monthCount int) error {
	if r == nil {
		return nil
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval %d", ErrBadLeapRule, r.Interval)
	}
	if r.TargetMonth != nil && (*r.TargetMonth < 0 || *r.TargetMonth >= monthCount) {
		return fmt.Errorf("%w: target month %d out of range", ErrBadLeapRule, *r.TargetMonth)
	}
	for _, ex := range r.Exclude {
		if err := ex.validate(monthCount); err != nil {
			return err
		}
	}
	if c := r.CycleYears(); c > maxCycleYears {
		return fmt.Errorf("%w: repeat cycle of %d years is too large", ErrBadLeapRule, c)
	}
	return nil
}

// floorMod returns a mod b with the sign of b, so negative years evaluate
// correctly.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// floorDiv returns a / b rounded toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}
