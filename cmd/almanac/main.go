// Command almanac serves a campaign calendar and world event scheduler.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/almanac/internal/api"
	"github.com/talgya/almanac/internal/calendar"
	"github.com/talgya/almanac/internal/config"
	"github.com/talgya/almanac/internal/loader"
	"github.com/talgya/almanac/internal/persistence"
	"github.com/talgya/almanac/internal/scheduler"
	"github.com/talgya/almanac/internal/weather"
)

func main() {
	configPath := flag.String("config", "almanac.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("Almanac — campaign calendar and event scheduler")

	// ── Definitions ───────────────────────────────────────────────────
	calDef, units, err := loader.LoadCalendar(cfg.CalendarPath)
	if err != nil {
		slog.Error("failed to load calendar", "path", cfg.CalendarPath, "error", err)
		os.Exit(1)
	}
	slog.Info("calendar loaded", "name", calDef.Name, "months", len(calDef.Months))

	defs := loader.HolidayEvents(calDef)
	if cfg.EventsPath != "" {
		evs, err := loader.LoadEvents(cfg.EventsPath)
		if err != nil {
			slog.Error("failed to load events", "path", cfg.EventsPath, "error", err)
			os.Exit(1)
		}
		defs = append(defs, evs...)
	}
	slog.Info("events loaded", "count", len(defs))

	// ── Scheduler ─────────────────────────────────────────────────────
	driver, err := calendar.NewDriver(calDef)
	if err != nil {
		slog.Error("invalid calendar", "error", err)
		os.Exit(1)
	}

	sched, err := scheduler.New(driver, units, defs)
	if err != nil {
		slog.Error("invalid event definitions", "error", err)
		os.Exit(1)
	}
	if cfg.WeatherEnabled {
		sched.Weather = weather.New(cfg.WeatherSeed)
		slog.Info("weather module enabled", "seed", cfg.WeatherSeed)
	}

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := db.RestoreState(sched); err != nil {
		slog.Error("failed to restore campaign state", "error", err)
		os.Exit(1)
	}
	day := sched.CurrentDay()
	slog.Info("campaign restored", "day", day, "date", driver.Date(day).String())

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("no admin key set — admin POST endpoints will be disabled")
	}

	server := &api.Server{
		Sched:    sched,
		DB:       db,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	server.Start()

	// ── Wait for shutdown ─────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	if err := db.SaveState(sched); err != nil {
		slog.Error("final save failed", "error", err)
	}
	slog.Info("campaign state saved", "day", sched.CurrentDay())
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
