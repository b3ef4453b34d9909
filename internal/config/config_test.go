package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "almanac.db", cfg.DBPath)
	require.Equal(t, "info", cfg.LogLevel)
	require.True(t, cfg.WeatherEnabled)
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "almanac.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
port: 9090
db_path: /var/lib/almanac/campaign.db
calendar_path: harptos.json
events_path: sword-coast.json
admin_key: hunter2
weather_seed: 42
log_level: debug
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "/var/lib/almanac/campaign.db", cfg.DBPath)
	require.Equal(t, "harptos.json", cfg.CalendarPath)
	require.Equal(t, "sword-coast.json", cfg.EventsPath)
	require.Equal(t, "hunter2", cfg.AdminKey)
	require.Equal(t, int64(42), cfg.WeatherSeed)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverrides(t *testing.T) {
	p := filepath.Join(t.TempDir(), "almanac.yaml")
	require.NoError(t, os.WriteFile(p, []byte("port: 9090\nlog_level: warn\n"), 0o644))

	t.Setenv("ALMANAC_PORT", "7070")
	t.Setenv("ALMANAC_ADMIN_KEY", "from-env")
	t.Setenv("ALMANAC_WEATHER_SEED", "999")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Port)
	require.Equal(t, "from-env", cfg.AdminKey)
	require.Equal(t, int64(999), cfg.WeatherSeed)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestNormalizeRejectsBadLevel(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	cfg.Normalize()
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 8080, cfg.Port)
}

func TestLoadBadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "almanac.yaml")
	require.NoError(t, os.WriteFile(p, []byte("port: [\n"), 0o644))
	_, err := Load(p)
	require.Error(t, err)
}
