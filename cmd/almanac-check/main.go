// Command almanac-check validates calendar and event definition files
// without starting the service, and reports leap-cycle statistics so
// authors can sanity-check a new calendar before a session.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/talgya/almanac/internal/calendar"
	"github.com/talgya/almanac/internal/events"
	"github.com/talgya/almanac/internal/loader"
	"github.com/talgya/almanac/internal/scheduler"
)

func main() {
	calendarPath := flag.String("calendar", "calendar.json", "calendar definition file")
	eventsPath := flag.String("events", "", "event definition file (optional)")
	horizon := flag.Int64("horizon", 10_000_000_000, "round-trip check horizon in days")
	flag.Parse()

	if err := run(*calendarPath, *eventsPath, *horizon); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(calendarPath, eventsPath string, horizon int64) error {
	calDef, units, err := loader.LoadCalendar(calendarPath)
	if err != nil {
		return err
	}

	driver, err := calendar.NewDriver(calDef)
	if err != nil {
		return err
	}

	fmt.Printf("Calendar: %s\n", calDef.Name)
	fmt.Printf("  months: %d (%d intercalary)\n", len(calDef.Months), countIntercalary(calDef))
	fmt.Printf("  weekdays: %d\n", len(calDef.Weekdays))
	reportCycle(driver, calDef)

	if err := roundTrip(driver, horizon); err != nil {
		return err
	}
	fmt.Printf("  round-trip: OK up to day %s\n", humanize.Comma(horizon))

	defs := loader.HolidayEvents(calDef)
	if eventsPath != "" {
		evs, err := loader.LoadEvents(eventsPath)
		if err != nil {
			return err
		}
		defs = append(defs, evs...)
	}

	warnings, err := events.Validate(defs, calDef, units)
	if err != nil {
		return err
	}
	fmt.Printf("Events: %d definitions OK\n", len(defs))
	for _, warn := range warnings {
		fmt.Printf("  warning: %s\n", warn)
	}

	// Construct the full scheduler so chain resolvers get built too.
	if _, err := scheduler.New(driver, units, defs); err != nil {
		return err
	}
	fmt.Println("Scheduler: OK")
	return nil
}

func countIntercalary(def calendar.Definition) int {
	n := 0
	for _, m := range def.Months {
		if m.Intercalary() {
			n++
		}
	}
	return n
}

func reportCycle(driver *calendar.Driver, def calendar.Definition) {
	if def.Leap == nil {
		fmt.Println("  leap rule: none")
		return
	}
	cycleYears := def.Leap.CycleYears()
	leaps := driver.CountLeapYears(def.StartYear, def.StartYear+cycleYears-1)
	fmt.Printf("  leap cycle: %s years, %s leap years per cycle\n",
		humanize.Comma(cycleYears), humanize.Comma(leaps))
}

// roundTrip converts a spread of day counters to dates and back, to catch
// drift between the two directions of the calendar math.
func roundTrip(driver *calendar.Driver, horizon int64) error {
	days := []int64{0, 1, 365, 1000, 100_000}
	for d := int64(1_000_000); d <= horizon; d *= 10 {
		days = append(days, d, d+17)
	}
	for _, d := range days {
		date := driver.Date(d)
		if date.SimpleCounter {
			continue
		}
		back := driver.AbsoluteDay(date.Year, date.Month, date.Day)
		if back != d {
			return fmt.Errorf("round-trip drift at day %s: got %s",
				humanize.Comma(d), humanize.Comma(back))
		}
	}
	return nil
}
