package events

import (
	"errors"
	"fmt"

	"github.com/talgya/almanac/internal/calendar"
	"github.com/talgya/almanac/internal/duration"
)

// ErrBadDefinition indicates an event definition that must block
// initialization.
var ErrBadDefinition = errors.New("invalid event definition")

// Validate checks event definitions against the calendar they will run on.
// Definition errors are returned and must block engine construction;
// non-fatal findings (references to unknown event ids) come back as warning
// strings for the caller to log.
func Validate(defs []Definition, cal calendar.Definition, units duration.Units) ([]string, error) {
	var warnings []string

	byID := make(map[string]*Definition, len(defs))
	for i := range defs {
		def := &defs[i]
		if def.ID == "" {
			return warnings, fmt.Errorf("%w: event %d (%q) has no id", ErrBadDefinition, i, def.Name)
		}
		if _, dup := byID[def.ID]; dup {
			return warnings, fmt.Errorf("%w: duplicate event id %q", ErrBadDefinition, def.ID)
		}
		byID[def.ID] = def
	}

	for i := range defs {
		def := &defs[i]
		if err := validateOne(def, cal, units); err != nil {
			return warnings, err
		}
	}

	// Reference checks are non-fatal: a condition naming a missing event
	// simply never sees it active.
	for i := range defs {
		def := &defs[i]
		if def.Kind != KindConditional {
			continue
		}
		cond, err := ParseCondition(def.Conditional.Condition)
		if err != nil {
			return warnings, fmt.Errorf("%w: event %q: %v", ErrBadDefinition, def.ID, err)
		}
		for _, ref := range cond.Refs() {
			target, ok := byID[ref]
			if !ok {
				warnings = append(warnings,
					fmt.Sprintf("event %q references unknown event %q", def.ID, ref))
				continue
			}
			if target.Kind != KindConditional {
				continue
			}
			if def.Conditional.Tier == 1 {
				return warnings, fmt.Errorf(
					"%w: tier-1 event %q references conditional event %q",
					ErrBadDefinition, def.ID, ref)
			}
			if target.Conditional.Tier != 1 {
				return warnings, fmt.Errorf(
					"%w: tier-2 event %q references tier-%d conditional %q",
					ErrBadDefinition, def.ID, target.Conditional.Tier, ref)
			}
		}
	}

	return warnings, nil
}

func validateOne(def *Definition, cal calendar.Definition, units duration.Units) error {
	if def.Duration != "" {
		if err := duration.Check(def.Duration, units); err != nil {
			return fmt.Errorf("%w: event %q duration: %v", ErrBadDefinition, def.ID, err)
		}
	}

	switch def.Kind {
	case KindFixed:
		if def.Fixed == nil {
			return fmt.Errorf("%w: fixed event %q has no date", ErrBadDefinition, def.ID)
		}
		f := def.Fixed
		if f.IntercalaryName != "" {
			idx := cal.MonthIndex(f.IntercalaryName)
			if idx < 0 || !cal.Months[idx].Intercalary() {
				return fmt.Errorf("%w: event %q names unknown intercalary month %q",
					ErrBadDefinition, def.ID, f.IntercalaryName)
			}
			return nil
		}
		if f.Month < 0 || f.Month >= len(cal.Months) {
			return fmt.Errorf("%w: event %q month %d out of range", ErrBadDefinition, def.ID, f.Month)
		}
		// Day bound against the base month length; a leap day is only valid
		// in leap years and fixed events must exist every year.
		if f.Day < 1 || f.Day > cal.Months[f.Month].Days {
			return fmt.Errorf("%w: event %q day %d invalid for %s",
				ErrBadDefinition, def.ID, f.Day, cal.Months[f.Month].Name)
		}

	case KindInterval:
		if def.Interval == nil || def.Interval.Interval < 1 {
			return fmt.Errorf("%w: interval event %q needs interval >= 1", ErrBadDefinition, def.ID)
		}

	case KindChain:
		if def.Chain == nil || len(def.Chain.States) == 0 {
			return fmt.Errorf("%w: chain event %q has no states", ErrBadDefinition, def.ID)
		}
		for _, st := range def.Chain.States {
			if st.Name == "" {
				return fmt.Errorf("%w: chain event %q has an unnamed state", ErrBadDefinition, def.ID)
			}
			if st.Weight < 0 {
				return fmt.Errorf("%w: chain event %q state %q has negative weight",
					ErrBadDefinition, def.ID, st.Name)
			}
			if err := duration.Check(st.Duration, units); err != nil {
				return fmt.Errorf("%w: chain event %q state %q: %v",
					ErrBadDefinition, def.ID, st.Name, err)
			}
		}
		if init := def.Chain.InitialState; init != "" {
			found := false
			for _, st := range def.Chain.States {
				if st.Name == init {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: chain event %q initial state %q does not exist",
					ErrBadDefinition, def.ID, init)
			}
		}

	case KindConditional:
		if def.Conditional == nil {
			return fmt.Errorf("%w: conditional event %q has no condition", ErrBadDefinition, def.ID)
		}
		if t := def.Conditional.Tier; t != 1 && t != 2 {
			return fmt.Errorf("%w: conditional event %q has tier %d, want 1 or 2",
				ErrBadDefinition, def.ID, t)
		}

	default:
		return fmt.Errorf("%w: event %q has unknown kind %d", ErrBadDefinition, def.ID, def.Kind)
	}
	return nil
}
