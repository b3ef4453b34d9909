// Package weather generates deterministic daily weather for a campaign
// world. Conditions are a pure function of (seed, day), so a GM re-querying
// a past day always sees the same sky.
package weather

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/talgya/almanac/internal/entropy"
)

// ModuleTag is the module under which weather effects are registered, so
// hosts can toggle the whole system off.
const ModuleTag = "weather"

// noisePeriod wraps the day counter before it enters the noise field.
// float64 precision degrades on inputs past 2^53 and noise features vanish
// long before that; a multi-millennium period keeps queries at huge day
// counts well-behaved.
const noisePeriod = 1 << 20

// Generator produces daily conditions from a seeded noise field.
type Generator struct {
	seed  int64
	noise opensimplex.Noise
}

// New creates a generator for the given seed.
func New(seed int64) *Generator {
	return &Generator{seed: seed, noise: opensimplex.NewNormalized(seed)}
}

// Conditions holds one day's weather.
type Conditions struct {
	Description string  `json:"description"`
	Temp        float64 `json:"temp"` // -1 frigid to +1 scorching
	Wind        float64 `json:"wind"` // 0 to 1
	Precip      float64 `json:"precip"`
	Storm       bool    `json:"is_storm"`
	Snow        bool    `json:"is_snow"`
	Rain        bool    `json:"is_rain"`
}

// ConditionsFor returns the weather on the given absolute day. The season
// string (from the calendar's month table) shifts the temperature baseline;
// an empty season means no shift.
func (g *Generator) ConditionsFor(day int64, season string) Conditions {
	x := float64(day%noisePeriod) * 0.07

	c := Conditions{
		Temp:   g.noise.Eval2(x, 0)*1.6 - 0.8 + seasonShift(season),
		Wind:   g.noise.Eval2(x, 50),
		Precip: g.noise.Eval2(x, 100),
	}
	if c.Temp > 1 {
		c.Temp = 1
	}
	if c.Temp < -1 {
		c.Temp = -1
	}

	// A rare burst channel pushes borderline days into storms.
	burst := entropy.FloatAt(g.seed, uint64(day))
	if c.Precip > 0.55 || (c.Precip > 0.45 && burst > 0.9) {
		if c.Temp < -0.3 {
			c.Snow = true
		} else {
			c.Rain = true
		}
		if c.Wind > 0.7 || burst > 0.95 {
			c.Storm = true
		}
	}

	c.Description = describe(c)
	return c
}

// Effects maps conditions to the effect keys merged into the day's registry.
func (c Conditions) Effects() map[string]any {
	effects := map[string]any{
		"weather":       c.Description,
		"travel_pace":   1.0,
		"visibility":    1.0,
		"forage_chance": 1.0,
	}

	switch {
	case c.Storm:
		effects["travel_pace"] = 0.5
		effects["visibility"] = 0.5
	case c.Snow:
		effects["travel_pace"] = 0.75
	case c.Rain:
		effects["travel_pace"] = 0.9
	}
	if c.Snow || c.Temp < -0.6 {
		effects["forage_chance"] = 0.5
	}
	if c.Temp > 0.7 {
		effects["forage_chance"] = 0.75
	}
	return effects
}

func describe(c Conditions) string {
	switch {
	case c.Storm && c.Snow:
		return "blizzard"
	case c.Storm:
		return "thunderstorm"
	case c.Snow:
		return "snowfall"
	case c.Rain && c.Wind > 0.6:
		return "driving rain"
	case c.Rain:
		return "steady rain"
	case c.Temp > 0.7:
		return "sweltering heat"
	case c.Temp < -0.6:
		return "bitter cold"
	case c.Wind > 0.75:
		return "strong winds"
	default:
		return "fair skies"
	}
}

func seasonShift(season string) float64 {
	switch season {
	case "spring", "Spring":
		return 0.0
	case "summer", "Summer":
		return 0.4
	case "autumn", "Autumn", "fall", "Fall":
		return -0.1
	case "winter", "Winter":
		return -0.5
	default:
		return 0.0
	}
}
