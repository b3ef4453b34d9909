// Package scheduler resolves which world events are active on any simulated
// day and merges their effects for the host.
package scheduler

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/almanac/internal/calendar"
	"github.com/talgya/almanac/internal/duration"
	"github.com/talgya/almanac/internal/events"
	"github.com/talgya/almanac/internal/weather"
)

// weatherID is the pseudo-event id under which generated weather surfaces,
// both in results and in condition lookups.
const weatherID = "weather"

// weatherPriority sits below user events so their effects win key collisions.
const weatherPriority = -100

// Active is one event resolved as active on a particular day.
type Active struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Priority int            `json:"priority"`
	State    string         `json:"state,omitempty"` // chain state or weather description
	Tags     []string       `json:"tags,omitempty"`
	Effects  map[string]any `json:"effects,omitempty"`
}

// Notable is an event that became active (or changed chain state) on a day.
type Notable struct {
	Day   int64  `json:"day"`
	Event Active `json:"event"`
}

// Scheduler orchestrates all event types over the calendar driver. Event and
// calendar definitions are immutable after construction; the only mutable
// state is the current day, the module toggles, and the per-day cache those
// two invalidate.
//
// All resolution is a pure function of (definitions, day, toggles), so the
// cache is purely an optimization; discarding it can never change results.
type Scheduler struct {
	mu sync.Mutex

	driver *calendar.Driver
	units  duration.Units
	clock  *calendar.Clock
	defs   []events.Definition

	chains map[string]*events.ChainResolver
	conds  map[string]*events.Condition

	// Weather is an optional per-day effect source, set before first use.
	Weather *weather.Generator

	toggles map[string]bool
	current int64
	cache   map[int64][]Active
}

// New validates defs against the driver's calendar and builds a scheduler.
// Validation warnings are logged; definition errors block construction.
func New(driver *calendar.Driver, units duration.Units, defs []events.Definition) (*Scheduler, error) {
	warnings, err := events.Validate(defs, driver.Definition(), units)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Warn("event definition warning", "detail", w)
	}

	s := &Scheduler{
		driver:  driver,
		units:   units,
		clock:   calendar.NewClock(units.MinutesPerDay()),
		defs:    defs,
		chains:  make(map[string]*events.ChainResolver),
		conds:   make(map[string]*events.Condition),
		toggles: make(map[string]bool),
		cache:   make(map[int64][]Active),
	}
	for i := range defs {
		def := &defs[i]
		switch def.Kind {
		case events.KindChain:
			s.chains[def.ID] = events.NewChainResolver(*def.Chain, units)
		case events.KindConditional:
			// Validate already parsed these; errors are unreachable here.
			cond, err := events.ParseCondition(def.Conditional.Condition)
			if err != nil {
				return nil, err
			}
			s.conds[def.ID] = cond
		}
	}
	return s, nil
}

// Driver returns the calendar driver the scheduler runs on.
func (s *Scheduler) Driver() *calendar.Driver { return s.driver }

// Clock returns the sub-day clock.
func (s *Scheduler) Clock() *calendar.Clock { return s.clock }

// CurrentDay returns the campaign's current absolute day.
func (s *Scheduler) CurrentDay() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrentDay restores a persisted campaign day without reporting
// notables.
func (s *Scheduler) SetCurrentDay(day int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = day
	s.invalidate()
}

// ActiveEvents returns every module-enabled event active on day, ordered by
// priority with declaration order as tie-break.
func (s *Scheduler) ActiveEvents(day int64) []Active {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFor(day)
}

// EffectRegistry folds the active events' effects into one map. Entries from
// later-evaluated, higher-priority events overwrite earlier ones on key
// collision.
func (s *Scheduler) EffectRegistry(day int64) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry := make(map[string]any)
	for _, a := range s.activeFor(day) {
		for k, v := range a.Effects {
			registry[k] = v
		}
	}
	return registry
}

// ToggleModule enables or disables one module tag. Unknown tags are accepted;
// they simply match no events yet.
func (s *Scheduler) ToggleModule(tag string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles[tag] = enabled
	s.invalidate()
}

// SetModuleToggles replaces the full toggle state, e.g. from a persisted
// blob.
func (s *Scheduler) SetModuleToggles(toggles map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles = make(map[string]bool, len(toggles))
	for tag, enabled := range toggles {
		s.toggles[tag] = enabled
	}
	s.invalidate()
}

// ModuleToggles returns a copy of the toggle state for the host to persist
// verbatim.
func (s *Scheduler) ModuleToggles() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.toggles))
	for tag, enabled := range s.toggles {
		out[tag] = enabled
	}
	return out
}

// AvailableModules returns every tag appearing on any loaded event,
// deduplicated and sorted.
func (s *Scheduler) AvailableModules() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]bool)
	for i := range s.defs {
		for _, tag := range s.defs[i].Tags {
			set[tag] = true
		}
	}
	if s.Weather != nil {
		set[weather.ModuleTag] = true
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// NotableEvents returns the events that became active, or changed chain
// state, on each day in [from, to].
func (s *Scheduler) NotableEvents(from, to int64) []Notable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notableBetween(from, to)
}

// AdvanceToDay moves the campaign to day and returns what happened along the
// way. Moving backward just repositions without reporting.
func (s *Scheduler) AdvanceToDay(day int64) []Notable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(day)
}

// AdvanceTime moves the clock by minutes, rolling the campaign day forward
// when the clock passes midnight. Clock and day move as one atomic step, so
// concurrent advances never read a half-applied position.
func (s *Scheduler) AdvanceTime(minutes int64) []Notable {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := s.clock.Advance(minutes)
	if days == 0 {
		return nil
	}
	return s.advanceLocked(s.current + days)
}

// advanceLocked repositions the campaign day and reports what happened along
// a forward move. Callers hold s.mu.
func (s *Scheduler) advanceLocked(day int64) []Notable {
	var notables []Notable
	if day > s.current {
		notables = s.notableBetween(s.current+1, day)
	}
	s.current = day
	s.invalidate()
	return notables
}

// invalidate discards cached per-day results. Callers hold s.mu.
func (s *Scheduler) invalidate() {
	s.cache = make(map[int64][]Active)
}

func (s *Scheduler) notableBetween(from, to int64) []Notable {
	if to < from {
		return nil
	}
	var notables []Notable
	prev := keyed(s.activeFor(from - 1))
	for day := from; day <= to; day++ {
		cur := s.activeFor(day)
		for _, a := range cur {
			if !prev[a.ID+"\x00"+a.State] {
				notables = append(notables, Notable{Day: day, Event: a})
			}
		}
		prev = keyed(cur)
	}
	return notables
}

func keyed(actives []Active) map[string]bool {
	set := make(map[string]bool, len(actives))
	for _, a := range actives {
		set[a.ID+"\x00"+a.State] = true
	}
	return set
}

// activeFor computes (or returns cached) active events for day. Callers hold
// s.mu.
func (s *Scheduler) activeFor(day int64) []Active {
	if cached, ok := s.cache[day]; ok {
		return cached
	}

	resolved := s.resolveStates(day)

	var actives []Active
	for i := range s.defs {
		def := &s.defs[i]
		st, ok := resolved[def.ID]
		if !ok || !st.Active || !s.moduleEnabled(def.Tags) {
			continue
		}
		actives = append(actives, s.toActive(def, st))
	}
	if s.Weather != nil && s.moduleEnabled([]string{weather.ModuleTag}) {
		if st, ok := resolved[weatherID]; ok {
			actives = append(actives, s.weatherActive(day, st))
		}
	}

	sort.SliceStable(actives, func(i, j int) bool {
		return actives[i].Priority < actives[j].Priority
	})
	s.cache[day] = actives
	return actives
}

// resolveStates evaluates every event for day: non-conditional events first,
// then tier-1 conditionals over those results, then tier-2 conditionals over
// both. Module toggles are not consulted here; conditions see the raw world
// and filtering happens on the returned set only.
func (s *Scheduler) resolveStates(day int64) map[string]events.State {
	resolved := make(map[string]events.State, len(s.defs)+1)

	for i := range s.defs {
		def := &s.defs[i]
		switch def.Kind {
		case events.KindFixed:
			resolved[def.ID] = events.State{Active: s.fixedActive(def, day)}
		case events.KindInterval:
			resolved[def.ID] = events.State{Active: s.intervalActive(def, day)}
		case events.KindChain:
			name, ok := s.chains[def.ID].StateNameAt(day)
			resolved[def.ID] = events.State{Active: ok, State: name}
		}
	}
	if s.Weather != nil {
		date := s.driver.Date(day)
		cond := s.Weather.ConditionsFor(day, s.driver.SeasonOf(date))
		resolved[weatherID] = events.State{Active: true, State: cond.Description}
	}

	lookup := func(id string) (events.State, bool) {
		st, ok := resolved[id]
		return st, ok
	}
	for _, tier := range []int{1, 2} {
		for i := range s.defs {
			def := &s.defs[i]
			if def.Kind != events.KindConditional || def.Conditional.Tier != tier {
				continue
			}
			resolved[def.ID] = events.State{Active: s.conds[def.ID].Eval(lookup)}
		}
	}
	return resolved
}

func (s *Scheduler) toActive(def *events.Definition, st events.State) Active {
	a := Active{
		ID:       def.ID,
		Name:     def.Name,
		Kind:     def.Kind.String(),
		Priority: def.Priority,
		State:    st.State,
		Tags:     def.Tags,
		Effects:  def.Effects,
	}
	if def.Kind == events.KindChain && st.State != "" {
		for _, cs := range def.Chain.States {
			if cs.Name == st.State {
				a.Effects = mergeEffects(def.Effects, cs.Effects)
				break
			}
		}
	}
	return a
}

func (s *Scheduler) weatherActive(day int64, st events.State) Active {
	date := s.driver.Date(day)
	cond := s.Weather.ConditionsFor(day, s.driver.SeasonOf(date))
	return Active{
		ID:       weatherID,
		Name:     "Weather",
		Kind:     "weather",
		Priority: weatherPriority,
		State:    st.State,
		Tags:     []string{weather.ModuleTag},
		Effects:  cond.Effects(),
	}
}

func mergeEffects(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// moduleEnabled reports whether no tag on the event maps to a disabled
// module. Untagged events are always visible.
func (s *Scheduler) moduleEnabled(tags []string) bool {
	for _, tag := range tags {
		if enabled, ok := s.toggles[tag]; ok && !enabled {
			return false
		}
	}
	return true
}
