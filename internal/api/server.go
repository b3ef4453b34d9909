// Package api provides the HTTP API for the campaign almanac.
// GET endpoints are public (read-only observation of the world clock).
// POST endpoints require a bearer token (game-master control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/almanac/internal/persistence"
	"github.com/talgya/almanac/internal/scheduler"
)

// Server serves the campaign clock and event state over HTTP.
type Server struct {
	Sched    *scheduler.Scheduler
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Advancing time is cheap but journalled; keep bulk replays in check.
	advanceLimiter := NewRateLimiter(600, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — players can check the almanac).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/date", s.handleDate)
	mux.HandleFunc("/api/v1/absolute", s.handleAbsolute)
	mux.HandleFunc("/api/v1/leap", s.handleLeap)
	mux.HandleFunc("/api/v1/active", s.handleActive)
	mux.HandleFunc("/api/v1/effects", s.handleEffects)
	mux.HandleFunc("/api/v1/notable", s.handleNotable)
	mux.HandleFunc("/api/v1/journal", s.handleJournal)

	// Modules: GET lists, POST toggles.
	mux.HandleFunc("/api/v1/modules", s.adminOnly(s.handleModules))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/advance", RateLimitMiddleware(advanceLimiter, s.adminOnly(s.handleAdvance)))
	mux.HandleFunc("/api/v1/save", s.adminOnly(s.handleSave))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set ALMANAC_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("ALMANAC_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	day := s.Sched.CurrentDay()
	date := s.Sched.Driver().Date(day)

	writeJSON(w, map[string]any{
		"calendar":      s.Sched.Driver().Definition().Name,
		"day":           day,
		"date":          date.String(),
		"minute_of_day": s.Sched.Clock().MinuteOfDay(),
		"modules":       s.Sched.AvailableModules(),
		"toggles":       s.Sched.ModuleToggles(),
		"active_events": len(s.Sched.ActiveEvents(day)),
	})
}

// handleDate returns the structured date for ?day=N (default: current day).
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}
	date := s.Sched.Driver().Date(day)

	writeJSON(w, map[string]any{
		"day":          day,
		"year":         date.Year,
		"month":        date.Month,
		"month_name":   date.MonthName,
		"day_of_month": date.Day,
		"weekday":      date.Weekday,
		"intercalary":  date.Intercalary,
		"season":       s.Sched.Driver().SeasonOf(date),
		"display":      date.String(),
	})
}

// handleAbsolute converts ?year=&month=&day= back to an absolute day counter.
func (s *Server) handleAbsolute(w http.ResponseWriter, r *http.Request) {
	year, err1 := strconv.ParseInt(r.URL.Query().Get("year"), 10, 64)
	month, err2 := strconv.Atoi(r.URL.Query().Get("month"))
	dayOfMonth, err3 := strconv.Atoi(r.URL.Query().Get("day"))
	if err1 != nil || err2 != nil || err3 != nil {
		http.Error(w, "year, month and day query params required", http.StatusBadRequest)
		return
	}
	months := s.Sched.Driver().Definition().Months
	if month < 0 || month >= len(months) {
		http.Error(w, "month index out of range", http.StatusBadRequest)
		return
	}

	abs := s.Sched.Driver().AbsoluteDay(year, month, dayOfMonth)
	writeJSON(w, map[string]any{
		"day":     abs,
		"display": s.Sched.Driver().Date(abs).String(),
	})
}

// handleLeap answers ?year=N (is it leap) or ?from=&to= (how many leaps).
func (s *Server) handleLeap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if y := q.Get("year"); y != "" {
		year, err := strconv.ParseInt(y, 10, 64)
		if err != nil {
			http.Error(w, "bad year", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"year":         year,
			"leap":         s.Sched.Driver().IsLeapYear(year),
			"days_in_year": s.Sched.Driver().DaysInYear(year),
		})
		return
	}

	from, err1 := strconv.ParseInt(q.Get("from"), 10, 64)
	to, err2 := strconv.ParseInt(q.Get("to"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "year, or from and to, query params required", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"from":       from,
		"to":         to,
		"leap_years": s.Sched.Driver().CountLeapYears(from, to),
	})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"day":    day,
		"date":   s.Sched.Driver().Date(day).String(),
		"events": s.Sched.ActiveEvents(day),
	})
}

func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"day":     day,
		"effects": s.Sched.EffectRegistry(day),
	})
}

// handleNotable lists event starts over ?from=&to= (default: next 30 days).
func (s *Server) handleNotable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := s.Sched.CurrentDay() + 1
	to := from + 29
	if v := q.Get("from"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "bad from", http.StatusBadRequest)
			return
		}
		from = n
	}
	if v := q.Get("to"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "bad to", http.StatusBadRequest)
			return
		}
		to = n
	}
	if to-from > 3650 {
		http.Error(w, "range too large (max 3650 days)", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"from":    from,
		"to":      to,
		"notable": s.Sched.NotableEvents(from, to),
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, map[string]any{"entries": []any{}})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := s.DB.RecentJournal(limit)
	if err != nil {
		slog.Error("journal read failed", "error", err)
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"entries": entries})
}

// handleModules lists module toggles on GET and flips them on POST.
func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Tag     string `json:"tag"`
			Enabled bool   `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == "" {
			http.Error(w, "body must be {\"tag\": ..., \"enabled\": ...}", http.StatusBadRequest)
			return
		}

		s.Sched.ToggleModule(req.Tag, req.Enabled)
		s.persistToggles()
		slog.Info("module toggled", "tag", req.Tag, "enabled", req.Enabled)
	}

	writeJSON(w, map[string]any{
		"modules": s.Sched.AvailableModules(),
		"toggles": s.Sched.ModuleToggles(),
	})
}

// handleAdvance moves the campaign clock forward. Body takes either days or
// minutes; the response lists events that began along the way.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Days    int64 `json:"days"`
		Minutes int64 `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.Days < 0 || req.Minutes < 0 {
		http.Error(w, "cannot advance backwards", http.StatusBadRequest)
		return
	}
	if req.Days == 0 && req.Minutes == 0 {
		http.Error(w, "days or minutes required", http.StatusBadRequest)
		return
	}
	if req.Days > 3650 {
		http.Error(w, "advance too large (max 3650 days)", http.StatusBadRequest)
		return
	}

	var notables []scheduler.Notable
	if req.Days > 0 {
		notables = s.Sched.AdvanceToDay(s.Sched.CurrentDay() + req.Days)
	}
	if req.Minutes > 0 {
		notables = append(notables, s.Sched.AdvanceTime(req.Minutes)...)
	}

	if s.DB != nil {
		if err := s.DB.AppendNotables(notables); err != nil {
			slog.Error("journal append failed", "error", err)
		}
		if err := s.DB.SaveState(s.Sched); err != nil {
			slog.Error("state save failed", "error", err)
		}
	}

	day := s.Sched.CurrentDay()
	slog.Info("time advanced", "day", day, "notables", len(notables))

	writeJSON(w, map[string]any{
		"day":     day,
		"date":    s.Sched.Driver().Date(day).String(),
		"notable": notables,
	})
}

// handleSave forces a state save (normally automatic after each advance).
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveState(s.Sched); err != nil {
		slog.Error("save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": true, "day": s.Sched.CurrentDay()})
}

func (s *Server) persistToggles() {
	if s.DB == nil {
		return
	}
	if err := s.DB.SaveToggles(s.Sched.ModuleToggles()); err != nil {
		slog.Error("toggle save failed", "error", err)
	}
}

// dayParam reads ?day=N, defaulting to the campaign's current day.
func (s *Server) dayParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	v := r.URL.Query().Get("day")
	if v == "" {
		return s.Sched.CurrentDay(), true
	}
	day, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		http.Error(w, "bad day", http.StatusBadRequest)
		return 0, false
	}
	return day, true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
