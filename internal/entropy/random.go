// Package entropy provides deterministic randomness for the simulation core.
// Every value is a pure function of (seed, counter), so per-day results can be
// cached, recomputed, or queried out of order without drift.
package entropy

// Source supplies random values to the duration parser and the chain state
// machine. Implementations must be deterministic for a fixed seed.
type Source interface {
	// RandomInt returns a value in [min, max] inclusive.
	RandomInt(min, max int) int
	// RandomFloat returns a value in [0, 1).
	RandomFloat() float64
}

// mix is the splitmix64 finalizer. Well-distributed for sequential counters,
// which is exactly how chain transitions index into their stream.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// At returns the index-th value of the counter-based stream for seed.
func At(seed int64, index uint64) uint64 {
	return mix(mix(uint64(seed)) + index)
}

// FloatAt returns the index-th value of the stream for seed as a float64
// in [0, 1).
func FloatAt(seed int64, index uint64) float64 {
	return float64(At(seed, index)>>11) / float64(1<<53)
}

// Generator is a stateful Source over the splitmix64 stream.
type Generator struct {
	state uint64
}

// New creates a generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{state: mix(uint64(seed))}
}

// NewAt creates a generator for the sub-stream at (seed, index). Two calls
// with the same arguments yield generators that produce identical sequences.
func NewAt(seed int64, index uint64) *Generator {
	return &Generator{state: At(seed, index)}
}

func (g *Generator) next() uint64 {
	g.state += 0x9e3779b97f4a7c15
	return mix(g.state)
}

// RandomInt returns a value in [min, max] inclusive. Swapped bounds are
// normalized; equal bounds return min.
func (g *Generator) RandomInt(min, max int) int {
	if min > max {
		min, max = max, min
	}
	span := uint64(max-min) + 1
	return min + int(g.next()%span)
}

// RandomFloat returns a value in [0, 1).
func (g *Generator) RandomFloat() float64 {
	return float64(g.next()>>11) / float64(1<<53)
}
