// Package events defines world event types and the machinery that resolves
// them: the chain state machine and the condition evaluator.
package events

// Kind tags the event variant. The four kinds form a closed union; the
// scheduler matches exhaustively over them.
type Kind int

const (
	// KindFixed triggers on a specific calendar date, annually unless a year
	// is pinned.
	KindFixed Kind = iota
	// KindInterval triggers every N days (or minutes) from an offset.
	KindInterval
	// KindChain is a weighted cyclic state machine; exactly one state is
	// active at a time once the chain has started.
	KindChain
	// KindConditional activates when a boolean expression over other events
	// holds.
	KindConditional
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindInterval:
		return "interval"
	case KindChain:
		return "chain"
	case KindConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// Definition describes one world event. Definitions are immutable after
// loading; exactly one of the variant fields matching Kind is set.
type Definition struct {
	ID       string
	Name     string
	Kind     Kind
	Priority int
	Effects  map[string]any
	Tags     []string // module membership; empty means always visible
	Duration string   // optional, how long a trigger stays active

	Fixed       *FixedSpec
	Interval    *IntervalSpec
	Chain       *ChainSpec
	Conditional *ConditionalSpec
}

// FixedSpec pins an event to a calendar date. Either Month/Day or
// IntercalaryName is set; IntercalaryName covers every day of the named
// intercalary month.
type FixedSpec struct {
	Month           int
	Day             int
	IntercalaryName string
	Year            *int64 // nil recurs annually
}

// IntervalSpec triggers when (day - Offset) mod Interval == 0. With
// UseMinutes, Interval and Offset are minute counts measured against the
// calendar's day length.
type IntervalSpec struct {
	Interval   int64
	Offset     int64
	UseMinutes bool
}

// ChainSpec is a weighted cyclic state machine entered at StartDay.
type ChainSpec struct {
	Seed         int64
	StartDay     int64
	InitialState string // optional name of the first window's state
	States       []ChainState
}

// ChainState is one weighted state with a duration expression.
type ChainState struct {
	Name     string
	Weight   float64
	Duration string
	Effects  map[string]any
}

// ConditionalSpec activates on a boolean expression over other events.
// Tier 1 may reference only non-conditional events; tier 2 may additionally
// reference tier-1 conditionals.
type ConditionalSpec struct {
	Condition string
	Tier      int
}

// State is the resolved status of an event on a particular day, consumed by
// condition evaluation.
type State struct {
	Active bool
	State  string // chain state name; empty for other kinds
}
