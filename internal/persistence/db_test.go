package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/almanac/internal/scheduler"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestClockRoundTrip(t *testing.T) {
	db := testDB(t)

	day, minute, err := db.LoadClock()
	require.NoError(t, err)
	require.Zero(t, day)
	require.Zero(t, minute)

	require.NoError(t, db.SaveClock(1523, 780))

	day, minute, err = db.LoadClock()
	require.NoError(t, err)
	require.Equal(t, int64(1523), day)
	require.Equal(t, int64(780), minute)

	// Saves replace, not accumulate.
	require.NoError(t, db.SaveClock(2, 0))
	day, minute, err = db.LoadClock()
	require.NoError(t, err)
	require.Equal(t, int64(2), day)
	require.Zero(t, minute)
}

func TestTogglesRoundTrip(t *testing.T) {
	db := testDB(t)

	toggles, err := db.LoadToggles()
	require.NoError(t, err)
	require.Empty(t, toggles)

	want := map[string]bool{"weather": false, "holidays": true, "pirates": false}
	require.NoError(t, db.SaveToggles(want))

	got, err := db.LoadToggles()
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Full replace drops tags absent from the new blob.
	require.NoError(t, db.SaveToggles(map[string]bool{"weather": true}))
	got, err = db.LoadToggles()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"weather": true}, got)
}

func TestJournal(t *testing.T) {
	db := testDB(t)

	notables := []scheduler.Notable{
		{Day: 10, Event: scheduler.Active{ID: "market", Name: "Market Day"}},
		{Day: 14, Event: scheduler.Active{ID: "storm", Name: "Storm", State: "raging"}},
	}
	require.NoError(t, db.AppendNotables(notables))
	require.NoError(t, db.AppendNotables(nil))

	entries, err := db.RecentJournal(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(14), entries[0].Day)
	require.Equal(t, "storm", entries[0].EventID)
	require.Equal(t, "raging", entries[0].State)
	require.Equal(t, int64(10), entries[1].Day)
	require.NotEmpty(t, entries[0].ID)
	require.NotEqual(t, entries[0].ID, entries[1].ID)

	entries, err = db.RecentJournal(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMeta(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SaveMeta("campaign_name", "Storm Coast"))
	got, err := db.GetMeta("campaign_name")
	require.NoError(t, err)
	require.Equal(t, "Storm Coast", got)

	require.NoError(t, db.SaveMeta("campaign_name", "Frostfell"))
	got, err = db.GetMeta("campaign_name")
	require.NoError(t, err)
	require.Equal(t, "Frostfell", got)
}
