// Package cache stores research results keyed by normalized query so
// repeated subheading topics across a batch cost one live search.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a sqlite-backed query->payload store. Reads and writes go
// through separate connections; the write connection is capped at one so
// sqlite never sees competing writers.
type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
	ttl     time.Duration
}

// Open creates or opens the cache at dbPath. ttl of zero means entries
// never expire.
func Open(dbPath string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB, ttl: ttl}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS research (
			query_key  TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_research_fetched ON research(fetched_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// NormalizeQuery lowercases and collapses whitespace so equivalent queries
// share one cache entry.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Get returns the stored payload for key, or ok=false on a miss. Entries
// older than the TTL count as misses.
func (c *Cache) Get(key string) (string, bool, error) {
	var (
		payload   string
		fetchedAt time.Time
	)
	err := c.readDB.QueryRow(
		"SELECT payload, fetched_at FROM research WHERE query_key = ?", key,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry: %w", err)
	}
	if c.ttl > 0 && time.Since(fetchedAt) > c.ttl {
		return "", false, nil
	}
	return payload, true, nil
}

// Put stores or refreshes the payload for key.
func (c *Cache) Put(key, payload string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO research (query_key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(query_key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}
	return nil
}

// Prune deletes entries fetched longer than olderThan ago and reclaims
// disk space. Returns the number of entries removed.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := c.writeDB.Exec("DELETE FROM research WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		if _, err := c.writeDB.Exec("VACUUM"); err != nil {
			return deleted, fmt.Errorf("vacuuming cache: %w", err)
		}
	}
	return deleted, nil
}

// Stats returns the entry count and on-disk size.
func (c *Cache) Stats(dbPath string) (count int64, size int64, err error) {
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM research").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting entries: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("statting cache file: %w", err)
	}
	return count, info.Size(), nil
}
