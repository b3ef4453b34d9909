package events

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/almanac/internal/duration"
	"github.com/talgya/almanac/internal/entropy"
)

// ChainResolver resolves which state of a chain is active on a given day.
//
// Every transition draws from the counter-based stream at (seed, transition
// index), so resolution is a pure function of (spec, day): querying days out
// of order, re-querying, or discarding the memoized windows cannot change the
// answer. The window list is only an amortization of the deterministic walk
// from StartDay.
type ChainResolver struct {
	spec  ChainSpec
	units duration.Units

	totalWeight float64
	windows     []chainWindow
}

// chainWindow is a resolved half-open day range [start, end) in one state.
type chainWindow struct {
	start int64
	end   int64
	state int
}

// NewChainResolver prepares a resolver. State durations must already have
// passed validation; an unparseable duration at resolution time falls back to
// a single-day window with a warning.
func NewChainResolver(spec ChainSpec, units duration.Units) *ChainResolver {
	r := &ChainResolver{spec: spec, units: units}
	for _, st := range spec.States {
		if st.Weight > 0 {
			r.totalWeight += st.Weight
		}
	}
	return r
}

// StateAt returns the active state on day. The second result is false before
// the chain's start day or when the chain has no states.
func (r *ChainResolver) StateAt(day int64) (ChainState, bool) {
	if len(r.spec.States) == 0 || day < r.spec.StartDay {
		return ChainState{}, false
	}

	for {
		if w, ok := r.findWindow(day); ok {
			return r.spec.States[w.state], true
		}
		r.extend()
	}
}

// StateNameAt is StateAt reduced to the state name, for condition lookups.
func (r *ChainResolver) StateNameAt(day int64) (string, bool) {
	st, ok := r.StateAt(day)
	if !ok {
		return "", false
	}
	return st.Name, true
}

func (r *ChainResolver) findWindow(day int64) (chainWindow, bool) {
	// Windows are contiguous and sorted; binary search for the first window
	// ending past day.
	i := sort.Search(len(r.windows), func(i int) bool {
		return r.windows[i].end > day
	})
	if i < len(r.windows) && day >= r.windows[i].start {
		return r.windows[i], true
	}
	return chainWindow{}, false
}

// extend resolves the next transition and appends its window.
func (r *ChainResolver) extend() {
	index := uint64(len(r.windows))
	start := r.spec.StartDay
	if index > 0 {
		start = r.windows[index-1].end
	}

	state := r.pickState(index)
	days := r.stateDays(index, state)

	r.windows = append(r.windows, chainWindow{
		start: start,
		end:   start + days,
		state: state,
	})
}

// pickState selects the state for transition index by cumulative weight.
// Zero-weight states stay in the pool but are unreachable unless every state
// has zero weight, in which case the first state wins.
func (r *ChainResolver) pickState(index uint64) int {
	if index == 0 && r.spec.InitialState != "" {
		for i, st := range r.spec.States {
			if st.Name == r.spec.InitialState {
				return i
			}
		}
	}
	if r.totalWeight <= 0 {
		return 0
	}

	roll := entropy.FloatAt(r.spec.Seed, index) * r.totalWeight
	for i, st := range r.spec.States {
		if st.Weight <= 0 {
			continue
		}
		roll -= st.Weight
		if roll < 0 {
			return i
		}
	}
	return len(r.spec.States) - 1
}

// stateDays resolves a state's duration expression to whole days, minimum 1.
// The duration generator is seeded from the same (seed, index) stream as the
// state pick, keeping rolls reproducible per transition.
func (r *ChainResolver) stateDays(index uint64, state int) int64 {
	st := r.spec.States[state]
	rng := entropy.NewAt(r.spec.Seed, index)

	minutes, err := duration.Parse(st.Duration, r.units, rng)
	if err != nil {
		slog.Warn("chain state duration failed to resolve",
			"state", st.Name,
			"duration", st.Duration,
			"error", err,
		)
		return 1
	}

	days := minutes / r.units.MinutesPerDay()
	if days < 1 {
		days = 1
	}
	return days
}

// Describe returns a short human summary of the chain, used by the checker
// command.
func (r *ChainResolver) Describe() string {
	return fmt.Sprintf("chain of %d states from day %d", len(r.spec.States), r.spec.StartDay)
}
