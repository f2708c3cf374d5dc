package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Fixed width so cached_at sorts correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Database caches upstream track payloads so repeated track lookups do not
// reach the music API.
type Database struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the cache at dbPath, creating the parent directory and schema.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		dbPath = "data/hpmusic.db"
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db, now: time.Now}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.WithFields(log.Fields{"module": "database"}).Infof("Track cache initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS track_cache (
			track_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			cached_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_track_cache_cached_at ON track_cache(cached_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// GetTrack returns the cached payload for trackID if it is younger than
// maxAge. A stale or missing entry reports ok == false.
func (d *Database) GetTrack(trackID string, maxAge time.Duration) ([]byte, bool, error) {
	var payload []byte
	var cachedAtStr string
	err := d.db.QueryRow(
		`SELECT payload, cached_at FROM track_cache WHERE track_id = ?`,
		trackID,
	).Scan(&payload, &cachedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query track cache: %w", err)
	}

	cachedAt, ok := parseTimestamp(cachedAtStr)
	if !ok {
		log.WithFields(log.Fields{"module": "database"}).Warnf("Unreadable cached_at %q for track %s", cachedAtStr, trackID)
		return nil, false, nil
	}
	if d.now().Sub(cachedAt) >= maxAge {
		return nil, false, nil
	}
	return payload, true, nil
}

// PutTrack stores or replaces the payload for trackID.
func (d *Database) PutTrack(trackID string, payload []byte) error {
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO track_cache (track_id, payload, cached_at) VALUES (?, ?, ?)`,
		trackID, payload, d.now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to cache track %s: %w", trackID, err)
	}
	return nil
}

// PurgeOlderThan deletes entries cached more than maxAge ago.
func (d *Database) PurgeOlderThan(maxAge time.Duration) (int64, error) {
	cutoff := d.now().Add(-maxAge).UTC().Format(timestampLayout)
	result, err := d.db.Exec(`DELETE FROM track_cache WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge track cache: %w", err)
	}
	return result.RowsAffected()
}

func parseTimestamp(value string) (time.Time, bool) {
	formats := []string{
		timestampLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
