// Package config loads the almanac service configuration from YAML with
// environment overrides for deployment-sensitive values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	// Port is the HTTP listen port for the JSON API.
	Port int `yaml:"port"`

	// DBPath is the SQLite database file for campaign state.
	DBPath string `yaml:"db_path"`

	// CalendarPath is the calendar definition file (JSON).
	CalendarPath string `yaml:"calendar_path"`

	// EventsPath is the world event definition file (JSON). Optional; an
	// empty value runs the calendar without scripted events.
	EventsPath string `yaml:"events_path"`

	// AdminKey guards mutating endpoints. Empty disables them.
	AdminKey string `yaml:"admin_key"`

	// WeatherSeed seeds the daily weather generator.
	WeatherSeed int64 `yaml:"weather_seed"`

	// WeatherEnabled controls whether the weather module starts enabled.
	WeatherEnabled bool `yaml:"weather_enabled"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the in-memory default configuration.
func Default() *Config {
	return &Config{
		Port:           8080,
		DBPath:         "almanac.db",
		CalendarPath:   "calendar.json",
		WeatherSeed:    1,
		WeatherEnabled: true,
		LogLevel:       "info",
	}
}

// Normalize fills zero values with defaults so partial config files behave.
func (c *Config) Normalize() {
	d := Default()
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.CalendarPath == "" {
		c.CalendarPath = d.CalendarPath
	}
	if c.WeatherSeed == 0 {
		c.WeatherSeed = d.WeatherSeed
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = d.LogLevel
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error; defaults plus environment win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to defaults
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ALMANAC_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("ALMANAC_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("ALMANAC_CALENDAR"); v != "" {
		c.CalendarPath = v
	}
	if v := os.Getenv("ALMANAC_EVENTS"); v != "" {
		c.EventsPath = v
	}
	if v := os.Getenv("ALMANAC_ADMIN_KEY"); v != "" {
		c.AdminKey = v
	}
	if v := os.Getenv("ALMANAC_WEATHER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.WeatherSeed = n
		}
	}
	if v := os.Getenv("ALMANAC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
