// Package loader reads calendar and event definition files. Files are JSON,
// checked against embedded schemas before decoding so a malformed file fails
// with a precise message instead of a half-built world.
package loader

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/almanac/internal/calendar"
	"github.com/talgya/almanac/internal/duration"
	"github.com/talgya/almanac/internal/events"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	calendarSchema = mustCompile("schemas/calendar.schema.json")
	eventsSchema   = mustCompile("schemas/events.schema.json")
)

func mustCompile(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("loader: missing embedded schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("loader: schema %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("loader: schema %s: %v", name, err))
	}
	return s
}

type calendarFile struct {
	Name         string        `json:"name"`
	Weekdays     []string      `json:"weekdays"`
	FirstWeekday int           `json:"first_weekday"`
	StartYear    int64         `json:"start_year"`
	YearSuffix   string        `json:"year_suffix"`
	Seasons      []string      `json:"seasons"`
	Months       []monthFile   `json:"months"`
	Holidays     []holidayFile `json:"holidays"`
	Eras         []eraFile     `json:"eras"`
	Leap         *leapFile     `json:"leap"`
	Units        *unitsFile    `json:"units"`
}

type monthFile struct {
	Name        string `json:"name"`
	Days        int    `json:"days"`
	Intercalary bool   `json:"intercalary"`
	Season      string `json:"season"`
}

type holidayFile struct {
	Name  string `json:"name"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
}

type eraFile struct {
	Name      string `json:"name"`
	StartYear int64  `json:"start_year"`
}

type leapFile struct {
	Interval    int64       `json:"interval"`
	Offset      int64       `json:"offset"`
	TargetMonth *int        `json:"target_month"`
	Exclude     []*leapFile `json:"exclude"`
}

type unitsFile struct {
	MinutesPerHour int `json:"minutes_per_hour"`
	HoursPerDay    int `json:"hours_per_day"`
	DaysPerWeek    int `json:"days_per_week"`
	DaysPerMonth   int `json:"days_per_month"`
	DaysPerYear    int `json:"days_per_year"`
}

type eventsFile struct {
	Events []eventFile `json:"events"`
}

type eventFile struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Priority int            `json:"priority"`
	Effects  map[string]any `json:"effects"`
	Tags     []string       `json:"tags"`
	Duration string         `json:"duration"`

	Fixed       *fixedFile       `json:"fixed"`
	Interval    *intervalFile    `json:"interval"`
	Chain       *chainFile       `json:"chain"`
	Conditional *conditionalFile `json:"conditional"`
}

type fixedFile struct {
	Month           int    `json:"month"`
	Day             int    `json:"day"`
	IntercalaryName string `json:"intercalary_name"`
	Year            *int64 `json:"year"`
}

type intervalFile struct {
	Interval   int64 `json:"interval"`
	Offset     int64 `json:"offset"`
	UseMinutes bool  `json:"use_minutes"`
}

type chainFile struct {
	Seed         int64       `json:"seed"`
	StartDay     int64       `json:"start_day"`
	InitialState string      `json:"initial_state"`
	States       []stateFile `json:"states"`
}

type stateFile struct {
	Name     string         `json:"name"`
	Weight   float64        `json:"weight"`
	Duration string         `json:"duration"`
	Effects  map[string]any `json:"effects"`
}

type conditionalFile struct {
	Condition string `json:"condition"`
	Tier      int    `json:"tier"`
}

// checkSchema validates raw JSON against a compiled schema. Validation runs
// on the generic decoding, so field order and extra whitespace never matter.
func checkSchema(schema *jsonschema.Schema, raw []byte, path string) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema check %s: %w", path, err)
	}
	return nil
}

// LoadCalendar reads a calendar definition file. Units default to
// 60/24/7/30/365 when the file omits them.
func LoadCalendar(path string) (calendar.Definition, duration.Units, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return calendar.Definition{}, duration.Units{}, fmt.Errorf("read calendar: %w", err)
	}
	return ParseCalendar(raw, path)
}

// ParseCalendar decodes calendar JSON. The path only labels error messages.
func ParseCalendar(raw []byte, path string) (calendar.Definition, duration.Units, error) {
	if err := checkSchema(calendarSchema, raw, path); err != nil {
		return calendar.Definition{}, duration.Units{}, err
	}

	var file calendarFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return calendar.Definition{}, duration.Units{}, fmt.Errorf("decode %s: %w", path, err)
	}

	def := calendar.Definition{
		Name:         file.Name,
		Weekdays:     file.Weekdays,
		FirstWeekday: file.FirstWeekday,
		StartYear:    file.StartYear,
		YearSuffix:   file.YearSuffix,
		Seasons:      file.Seasons,
		Leap:         convertLeap(file.Leap),
	}
	for _, m := range file.Months {
		kind := calendar.MonthStandard
		if m.Intercalary {
			kind = calendar.MonthIntercalary
		}
		def.Months = append(def.Months, calendar.Month{
			Name:   m.Name,
			Days:   m.Days,
			Kind:   kind,
			Season: m.Season,
		})
	}
	for _, h := range file.Holidays {
		def.Holidays = append(def.Holidays, calendar.Holiday{Name: h.Name, Month: h.Month, Day: h.Day})
	}
	for _, e := range file.Eras {
		def.Eras = append(def.Eras, calendar.Era{Name: e.Name, StartYear: e.StartYear})
	}

	units := duration.DefaultUnits()
	if u := file.Units; u != nil {
		if u.MinutesPerHour > 0 {
			units.MinutesPerHour = u.MinutesPerHour
		}
		if u.HoursPerDay > 0 {
			units.HoursPerDay = u.HoursPerDay
		}
		if u.DaysPerWeek > 0 {
			units.DaysPerWeek = u.DaysPerWeek
		}
		if u.DaysPerMonth > 0 {
			units.DaysPerMonth = u.DaysPerMonth
		}
		if u.DaysPerYear > 0 {
			units.DaysPerYear = u.DaysPerYear
		}
	}

	if err := def.Validate(); err != nil {
		return calendar.Definition{}, duration.Units{}, fmt.Errorf("calendar %s: %w", path, err)
	}
	return def, units, nil
}

func convertLeap(f *leapFile) *calendar.LeapRule {
	if f == nil {
		return nil
	}
	rule := &calendar.LeapRule{
		Interval:    f.Interval,
		Offset:      f.Offset,
		TargetMonth: f.TargetMonth,
	}
	for _, ex := range f.Exclude {
		rule.Exclude = append(rule.Exclude, convertLeap(ex))
	}
	return rule
}

// LoadEvents reads an event definition file. Semantic validation (duplicate
// ids, tier violations, bad durations) is the scheduler's job; the loader
// only guarantees structure.
func LoadEvents(path string) ([]events.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return ParseEvents(raw, path)
}

// ParseEvents decodes event JSON. The path only labels error messages.
func ParseEvents(raw []byte, path string) ([]events.Definition, error) {
	if err := checkSchema(eventsSchema, raw, path); err != nil {
		return nil, err
	}

	var file eventsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	defs := make([]events.Definition, 0, len(file.Events))
	for _, e := range file.Events {
		def := events.Definition{
			ID:       e.ID,
			Name:     e.Name,
			Priority: e.Priority,
			Effects:  e.Effects,
			Tags:     e.Tags,
			Duration: e.Duration,
		}
		switch e.Kind {
		case "fixed":
			def.Kind = events.KindFixed
			if e.Fixed == nil {
				return nil, fmt.Errorf("event %q: kind fixed without a fixed block", e.ID)
			}
			def.Fixed = &events.FixedSpec{
				Month:           e.Fixed.Month,
				Day:             e.Fixed.Day,
				IntercalaryName: e.Fixed.IntercalaryName,
				Year:            e.Fixed.Year,
			}
		case "interval":
			def.Kind = events.KindInterval
			if e.Interval == nil {
				return nil, fmt.Errorf("event %q: kind interval without an interval block", e.ID)
			}
			def.Interval = &events.IntervalSpec{
				Interval:   e.Interval.Interval,
				Offset:     e.Interval.Offset,
				UseMinutes: e.Interval.UseMinutes,
			}
		case "chain":
			def.Kind = events.KindChain
			if e.Chain == nil {
				return nil, fmt.Errorf("event %q: kind chain without a chain block", e.ID)
			}
			spec := &events.ChainSpec{
				Seed:         e.Chain.Seed,
				StartDay:     e.Chain.StartDay,
				InitialState: e.Chain.InitialState,
			}
			for _, st := range e.Chain.States {
				spec.States = append(spec.States, events.ChainState{
					Name:     st.Name,
					Weight:   st.Weight,
					Duration: st.Duration,
					Effects:  st.Effects,
				})
			}
			def.Chain = spec
		case "conditional":
			def.Kind = events.KindConditional
			if e.Conditional == nil {
				return nil, fmt.Errorf("event %q: kind conditional without a conditional block", e.ID)
			}
			def.Conditional = &events.ConditionalSpec{
				Condition: e.Conditional.Condition,
				Tier:      e.Conditional.Tier,
			}
		default:
			return nil, fmt.Errorf("event %q: unknown kind %q", e.ID, e.Kind)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// HolidayEvents converts a calendar's holiday list into annual fixed events
// under the holidays module tag, so holidays surface and toggle like any
// other event source.
func HolidayEvents(def calendar.Definition) []events.Definition {
	out := make([]events.Definition, 0, len(def.Holidays))
	for _, h := range def.Holidays {
		out = append(out, events.Definition{
			ID:   "holiday-" + slug(h.Name),
			Name: h.Name,
			Kind: events.KindFixed,
			Tags: []string{"holidays"},
			Effects: map[string]any{
				"holiday": h.Name,
			},
			Fixed: &events.FixedSpec{Month: h.Month, Day: h.Day},
		})
	}
	return out
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
