package calendar

import "sync"

// Clock tracks time of day as minutes since midnight, independent of the
// absolute day counter. It exists so sub-day advancement doesn't re-derive
// full dates. Safe for concurrent use.
type Clock struct {
	minutesPerDay int64

	mu     sync.Mutex
	minute int64
}

// NewClock creates a clock for a day of the given length in minutes.
func NewClock(minutesPerDay int64) *Clock {
	if minutesPerDay < 1 {
		minutesPerDay = 24 * 60
	}
	return &Clock{minutesPerDay: minutesPerDay}
}

// Advance moves the clock forward by minutes and returns the number of whole
// days rolled over. Negative values rewind, returning a negative roll count.
func (c *Clock) Advance(minutes int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.minute + minutes
	days := floorDiv(total, c.minutesPerDay)
	c.minute = total - days*c.minutesPerDay
	return days
}

// MinuteOfDay returns minutes since midnight, in [0, minutesPerDay).
func (c *Clock) MinuteOfDay() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minute
}

// SetMinuteOfDay restores a persisted clock position. Out-of-range values are
// wrapped into the current day.
func (c *Clock) SetMinuteOfDay(minute int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minute = floorMod(minute, c.minutesPerDay)
}

// MinutesPerDay returns the configured day length.
func (c *Clock) MinutesPerDay() int64 { return c.minutesPerDay }
