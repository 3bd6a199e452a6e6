package pubsite

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubsite/logger"
)

// ImageStore is the SQLite-backed cache of optimized images.
type ImageStore struct {
	db *sql.DB
}

// NewImageStore opens (or creates) the cache database at path.
func NewImageStore(path string) (*ImageStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &ImageStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *ImageStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS images (
    key TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    data BLOB NOT NULL,
    expires INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_expires ON images(expires);
`)
	return err
}

// Close closes the underlying database connection.
func (s *ImageStore) Close() error {
	return s.db.Close()
}

// Get returns a cached image that has not expired at now.
func (s *ImageStore) Get(key string, now time.Time) (contentType string, data []byte, ok bool, err error) {
	err = s.db.QueryRow(
		`SELECT content_type, data FROM images WHERE key = ? AND expires > ?`,
		key, now.UnixMilli(),
	).Scan(&contentType, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, err
	}
	return contentType, data, true, nil
}

// Put stores or replaces an image.
func (s *ImageStore) Put(key, contentType string, data []byte, expires time.Time) error {
	_, err := s.db.Exec(`
INSERT INTO images (key, content_type, data, expires) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET content_type = excluded.content_type, data = excluded.data, expires = excluded.expires`,
		key, contentType, data, expires.UnixMilli())
	return err
}

// Prune deletes entries that expired at or before now.
func (s *ImageStore) Prune(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM images WHERE expires <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartPruneScheduler prunes expired images every interval until the
// returned stop function is called.
func (s *ImageStore) StartPruneScheduler(interval time.Duration, log *logger.Logger) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := s.Prune(time.Now())
				if err != nil {
					log.Error("image cache prune", "error", err)
				} else if n > 0 {
					log.Info("image cache pruned", "removed", n)
				}
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
