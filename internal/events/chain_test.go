package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/almanac/internal/duration"
)

func testChain(seed int64) ChainSpec {
	return ChainSpec{
		Seed:     seed,
		StartDay: 10,
		States: []ChainState{
			{Name: "calm", Weight: 5, Duration: "1d4 weeks"},
			{Name: "storm", Weight: 2, Duration: "2d6 days"},
			{Name: "eerie", Weight: 1, Duration: "3 days"},
		},
	}
}

func TestChainInactiveBeforeStart(t *testing.T) {
	r := NewChainResolver(testChain(1), duration.DefaultUnits())

	_, ok := r.StateAt(9)
	require.False(t, ok)
	_, ok = r.StateAt(10)
	require.True(t, ok)
}

func TestChainDeterministic(t *testing.T) {
	units := duration.DefaultUnits()
	a := NewChainResolver(testChain(42), units)
	b := NewChainResolver(testChain(42), units)

	// Query b out of order and twice; results must match a's in-order walk.
	for _, day := range []int64{500, 10, 123, 10_000, 123, 500} {
		wantState, wantOK := a.StateAt(day)
		gotState, gotOK := b.StateAt(day)
		require.Equal(t, wantOK, gotOK, "day %d", day)
		require.Equal(t, wantState.Name, gotState.Name, "day %d", day)
	}

	// A fresh resolver agrees with the memoized one.
	c := NewChainResolver(testChain(42), units)
	name1, _ := c.StateNameAt(10_000)
	name2, _ := b.StateNameAt(10_000)
	require.Equal(t, name2, name1)
}

func TestChainSeedsDiverge(t *testing.T) {
	units := duration.DefaultUnits()
	a := NewChainResolver(testChain(1), units)
	b := NewChainResolver(testChain(2), units)

	var seqA, seqB []string
	for day := int64(10); day < 2000; day += 25 {
		an, _ := a.StateNameAt(day)
		bn, _ := b.StateNameAt(day)
		seqA = append(seqA, an)
		seqB = append(seqB, bn)
	}
	require.NotEqual(t, seqA, seqB)
}

func TestChainInitialState(t *testing.T) {
	spec := testChain(7)
	spec.InitialState = "eerie"
	r := NewChainResolver(spec, duration.DefaultUnits())

	st, ok := r.StateAt(10)
	require.True(t, ok)
	require.Equal(t, "eerie", st.Name)
	// "3 days" puts the first transition at day 13.
	st, _ = r.StateAt(12)
	require.Equal(t, "eerie", st.Name)
}

func TestChainWindowsAreContiguous(t *testing.T) {
	r := NewChainResolver(testChain(11), duration.DefaultUnits())

	last := ""
	changes := 0
	for day := int64(10); day < 1500; day++ {
		st, ok := r.StateAt(day)
		require.True(t, ok, "day %d", day)
		if st.Name != last {
			changes++
			last = st.Name
		}
	}
	// 1490 days of states drawn from 3-to-28-day windows must transition
	// many times.
	require.Greater(t, changes, 10)
}

func TestChainZeroWeightUnreachable(t *testing.T) {
	spec := ChainSpec{
		Seed: 3,
		States: []ChainState{
			{Name: "only", Weight: 1, Duration: "2 days"},
			{Name: "never", Weight: 0, Duration: "2 days"},
		},
	}
	r := NewChainResolver(spec, duration.DefaultUnits())
	for day := int64(0); day < 400; day++ {
		st, ok := r.StateAt(day)
		require.True(t, ok)
		require.Equal(t, "only", st.Name)
	}
}

func TestChainAllZeroWeightsFallsBackToFirst(t *testing.T) {
	spec := ChainSpec{
		Seed: 3,
		States: []ChainState{
			{Name: "first", Weight: 0, Duration: "1 day"},
			{Name: "second", Weight: 0, Duration: "1 day"},
		},
	}
	r := NewChainResolver(spec, duration.DefaultUnits())
	st, ok := r.StateAt(5)
	require.True(t, ok)
	require.Equal(t, "first", st.Name)
}

func TestChainSubDayDurationsRoundUp(t *testing.T) {
	spec := ChainSpec{
		Seed:   9,
		States: []ChainState{{Name: "blip", Weight: 1, Duration: "30 minutes"}},
	}
	r := NewChainResolver(spec, duration.DefaultUnits())
	// Sub-day windows occupy a full day rather than zero.
	st, ok := r.StateAt(0)
	require.True(t, ok)
	require.Equal(t, "blip", st.Name)
	st, ok = r.StateAt(1)
	require.True(t, ok)
	require.Equal(t, "blip", st.Name)
}
