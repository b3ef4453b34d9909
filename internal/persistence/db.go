// Package persistence provides SQLite-based storage for campaign clock
// state, module toggles, and the notable-event journal. The simulation core
// never touches it; the host adapter saves and restores explicitly.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/almanac/internal/scheduler"
)

// DB wraps a SQLite connection for campaign state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS module_toggles (
		tag TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		day INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_day ON journal(day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveClock stores the campaign's current day and time of day.
func (db *DB) SaveClock(day, minuteOfDay int64) error {
	if err := db.SaveMeta("current_day", strconv.FormatInt(day, 10)); err != nil {
		return fmt.Errorf("save day: %w", err)
	}
	if err := db.SaveMeta("minute_of_day", strconv.FormatInt(minuteOfDay, 10)); err != nil {
		return fmt.Errorf("save minute: %w", err)
	}
	return nil
}

// LoadClock restores the campaign clock. A fresh database yields day 0,
// minute 0.
func (db *DB) LoadClock() (day, minuteOfDay int64, err error) {
	day, err = db.metaInt("current_day")
	if err != nil {
		return 0, 0, err
	}
	minuteOfDay, err = db.metaInt("minute_of_day")
	if err != nil {
		return 0, 0, err
	}
	return day, minuteOfDay, nil
}

// SaveToggles writes the module toggle blob (full replace).
func (db *DB) SaveToggles(toggles map[string]bool) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM module_toggles"); err != nil {
		return err
	}
	for tag, enabled := range toggles {
		val := 0
		if enabled {
			val = 1
		}
		if _, err := tx.Exec(
			"INSERT INTO module_toggles (tag, enabled) VALUES (?, ?)", tag, val,
		); err != nil {
			return fmt.Errorf("insert toggle %q: %w", tag, err)
		}
	}
	return tx.Commit()
}

// LoadToggles restores the module toggle blob verbatim.
func (db *DB) LoadToggles() (map[string]bool, error) {
	rows, err := db.conn.Queryx("SELECT tag, enabled FROM module_toggles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	toggles := make(map[string]bool)
	for rows.Next() {
		var tag string
		var enabled int
		if err := rows.Scan(&tag, &enabled); err != nil {
			return nil, err
		}
		toggles[tag] = enabled != 0
	}
	return toggles, rows.Err()
}

// JournalEntry is one persisted notable event.
type JournalEntry struct {
	ID         string `db:"id" json:"id"`
	Day        int64  `db:"day" json:"day"`
	EventID    string `db:"event_id" json:"event_id"`
	Name       string `db:"name" json:"name"`
	State      string `db:"state" json:"state"`
	RecordedAt string `db:"recorded_at" json:"recorded_at"`
}

// AppendNotables records scheduler notables in the journal.
func (db *DB) AppendNotables(notables []scheduler.Notable) error {
	if len(notables) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, n := range notables {
		_, err := tx.Exec(
			"INSERT INTO journal (id, day, event_id, name, state, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.NewString(), n.Day, n.Event.ID, n.Event.Name, n.Event.State, now,
		)
		if err != nil {
			return fmt.Errorf("insert journal entry for %q: %w", n.Event.ID, err)
		}
	}
	return tx.Commit()
}

// RecentJournal returns the most recent N journal entries, newest first.
func (db *DB) RecentJournal(limit int) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := db.conn.Select(&entries,
		"SELECT id, day, event_id, name, state, recorded_at FROM journal ORDER BY day DESC, id LIMIT ?",
		limit,
	)
	return entries, err
}

// SaveMeta stores a key-value pair in campaign metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO campaign_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM campaign_meta WHERE key = ?", key)
	return value, err
}

func (db *DB) metaInt(key string) (int64, error) {
	raw, err := db.GetMeta(key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("meta %q: %w", key, err)
	}
	return n, nil
}

// SaveState performs a full save of clock and toggles from the scheduler.
func (db *DB) SaveState(s *scheduler.Scheduler) error {
	slog.Info("saving campaign state", "day", s.CurrentDay())

	if err := db.SaveClock(s.CurrentDay(), s.Clock().MinuteOfDay()); err != nil {
		return fmt.Errorf("save clock: %w", err)
	}
	if err := db.SaveToggles(s.ModuleToggles()); err != nil {
		return fmt.Errorf("save toggles: %w", err)
	}
	return nil
}

// RestoreState loads clock and toggles into the scheduler.
func (db *DB) RestoreState(s *scheduler.Scheduler) error {
	day, minute, err := db.LoadClock()
	if err != nil {
		return fmt.Errorf("load clock: %w", err)
	}
	toggles, err := db.LoadToggles()
	if err != nil {
		return fmt.Errorf("load toggles: %w", err)
	}

	s.SetCurrentDay(day)
	s.Clock().SetMinuteOfDay(minute)
	if len(toggles) > 0 {
		s.SetModuleToggles(toggles)
	}
	return nil
}
