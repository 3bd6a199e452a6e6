package analytics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubsite/logger"
)

// Store persists attribution events in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure analytics db: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL,
			visitor TEXT NOT NULL,
			ts INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
		CREATE INDEX IF NOT EXISTS idx_events_target ON events(target);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting retrieves a setting value by key. Returns "" if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveEvent stores one event.
func (s *Store) SaveEvent(e *Event) error {
	res, err := s.db.Exec(`INSERT INTO events (kind, target, path, referrer, visitor, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.Target, e.Path, e.Referrer, e.Visitor, e.Timestamp.UTC().UnixMilli())
	if err != nil {
		return err
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// GetStats aggregates events in [from, to). Breakdowns hold at most limit rows.
func (s *Store) GetStats(from, to time.Time, limit int) (*Stats, error) {
	lo, hi := from.UTC().UnixMilli(), to.UTC().UnixMilli()
	st := &Stats{}
	err := s.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT visitor) FROM events WHERE ts >= ? AND ts < ?`, lo, hi).
		Scan(&st.TotalEvents, &st.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if st.TopTargets, err = s.breakdown("target", lo, hi, limit); err != nil {
		return nil, err
	}
	if st.TopPages, err = s.breakdown("path", lo, hi, limit); err != nil {
		return nil, err
	}
	if st.Referrers, err = s.breakdown("referrer", lo, hi, limit); err != nil {
		return nil, err
	}
	return st, nil
}

// breakdown groups events by column, which must be a trusted column name.
func (s *Store) breakdown(column string, lo, hi int64, limit int) ([]Count, error) {
	rows, err := s.db.Query(`SELECT `+column+`, COUNT(*) AS n FROM events
		WHERE ts >= ? AND ts < ? GROUP BY `+column+` ORDER BY n DESC, `+column+` ASC LIMIT ?`, lo, hi, limit)
	if err != nil {
		return nil, fmt.Errorf("breakdown by %s: %w", column, err)
	}
	defer rows.Close()

	out := []Count{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CleanupBefore removes events older than cutoff and returns how many were deleted.
func (s *Store) CleanupBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM events WHERE ts < ?`, cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartCleanupScheduler deletes events older than retention every interval.
// Returns a stop function.
func (s *Store) StartCleanupScheduler(retention, interval time.Duration, log *logger.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := s.CleanupBefore(time.Now().Add(-retention))
				if err != nil {
					log.Error("analytics cleanup", "error", err)
					continue
				}
				if n > 0 {
					log.Debug("analytics cleanup", "deleted", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
