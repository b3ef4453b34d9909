package scheduler

import (
	"hash/fnv"

	"github.com/talgya/almanac/internal/duration"
	"github.com/talgya/almanac/internal/entropy"
	"github.com/talgya/almanac/internal/events"
)

// fixedActive reports whether a fixed event covers day. An event with a
// duration stays active for the whole window after its trigger date, so the
// trigger is searched in the current year and as far back as the window can
// reach.
func (s *Scheduler) fixedActive(def *events.Definition, day int64) bool {
	f := def.Fixed
	date := s.driver.Date(day)

	if f.IntercalaryName != "" {
		idx := s.driver.Definition().MonthIndex(f.IntercalaryName)
		if idx < 0 || date.Month != idx {
			return false
		}
		return f.Year == nil || *f.Year == date.Year
	}

	// Bound the back-search by the duration's worst case so per-trigger dice
	// rolls can't change which years are considered.
	yearSpan := spanYears(s.maxEventDays(def), s.driver.DaysInYear(date.Year))

	for y := date.Year; y >= date.Year-yearSpan; y-- {
		if f.Year != nil && *f.Year != y {
			continue
		}
		// A leap-only day (e.g. Shieldmeet) simply doesn't exist in other
		// years.
		if f.Day > s.driver.DaysInMonth(y, f.Month) {
			continue
		}
		trigger := s.driver.AbsoluteDay(y, f.Month, f.Day)
		if trigger <= day && day < trigger+s.eventDays(def, trigger) {
			return true
		}
	}
	return false
}

// maxEventDays returns an upper bound on the event's window in days,
// resolving every die to its maximum.
func (s *Scheduler) maxEventDays(def *events.Definition) int64 {
	if def.Duration == "" {
		return 1
	}
	minutes, err := duration.Parse(def.Duration, s.units, maxRolls{})
	if err != nil || minutes == 0 {
		return 1
	}
	mpd := s.units.MinutesPerDay()
	return (minutes + mpd - 1) / mpd
}

// maxRolls resolves every die to its maximum.
type maxRolls struct{}

func (maxRolls) RandomInt(_, max int) int { return max }
func (maxRolls) RandomFloat() float64     { return 0 }

// intervalActive reports whether an interval event covers day. Day-based
// intervals trigger when (day - offset) mod interval == 0; minute-based
// intervals place triggers on the minute line and activate any day their
// window touches.
func (s *Scheduler) intervalActive(def *events.Definition, day int64) bool {
	iv := def.Interval

	if !iv.UseMinutes {
		// Walk triggers back as far as the longest possible window reaches;
		// windows longer than the interval can overlap the day from several
		// triggers back.
		maxDays := s.maxEventDays(def)
		k := floorDiv(day-iv.Offset, iv.Interval)
		for t := iv.Offset + k*iv.Interval; t > day-maxDays; t -= iv.Interval {
			if day < t+s.eventDays(def, t) {
				return true
			}
		}
		return false
	}

	mpd := s.units.MinutesPerDay()
	dayStart := day * mpd
	dayEnd := dayStart + mpd

	maxMinutes := s.maxEventDays(def) * mpd
	k := floorDiv(dayEnd-1-iv.Offset, iv.Interval)
	for t := iv.Offset + k*iv.Interval; t > dayStart-maxMinutes; t -= iv.Interval {
		durMinutes := s.eventMinutes(def, t)
		if durMinutes == 0 {
			durMinutes = mpd // untimed minute events cover their trigger day
		}
		if t < dayEnd && t+durMinutes > dayStart {
			return true
		}
	}
	return false
}

// eventDays resolves an event's duration to whole days covered, minimum 1.
// Dice in the duration draw from a stream keyed on (event id, trigger), so a
// given trigger always rolls the same window.
func (s *Scheduler) eventDays(def *events.Definition, trigger int64) int64 {
	minutes := s.eventMinutes(def, trigger)
	if minutes == 0 {
		return 1
	}
	mpd := s.units.MinutesPerDay()
	days := (minutes + mpd - 1) / mpd
	if days < 1 {
		days = 1
	}
	return days
}

func (s *Scheduler) eventMinutes(def *events.Definition, trigger int64) int64 {
	if def.Duration == "" {
		return 0
	}
	rng := entropy.NewAt(idSeed(def.ID), uint64(trigger))
	minutes, err := duration.Parse(def.Duration, s.units, rng)
	if err != nil {
		// Validation admits only structurally sound expressions; a negative
		// roll at runtime collapses to an instant event.
		return 0
	}
	return minutes
}

// spanYears bounds how many years back a duration window can reach.
func spanYears(durDays, yearDays int64) int64 {
	if yearDays < 2 {
		yearDays = 2
	}
	return durDays/(yearDays-1) + 1
}

// idSeed derives a stable seed from an event id (FNV-1a).
func idSeed(id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
