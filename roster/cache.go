/*
cache.go - TTL cache over the roster range

PURPOSE:
  Serves roster lookups from an in-memory snapshot, re-reading the
  spreadsheet at most once per TTL. Lookups between refreshes all see
  the same snapshot; a refresh builds a complete new index and swaps it
  in atomically, so a reader never observes a half-updated roster.

STALENESS POLICY:
  - Within the TTL every resolution hits the snapshot, even if the
    sheet changed underneath.
  - Past the TTL the next resolution triggers a refresh; concurrent
    resolutions keep serving the old snapshot while it runs.
  - A failed refresh keeps serving the old snapshot. Only when there
    has never been a successful read does the failure surface.

The clock and the row source are injected so TTL behavior is testable
without real time passing.
*/
package roster

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bisonhq/salesbison/ledger"
)

// DefaultTTL bounds roster staleness. Admin edits to the roster take at
// most this long to be visible.
const DefaultTTL = 120 * time.Second

// Source reads the raw roster range. The production implementation is
// the spreadsheet client; tests swap in a fake.
type Source interface {
	ReadAll(ctx context.Context) ([]ledger.Row, error)
}

// CacheConfig configures a Cache. Zero values get sensible defaults.
type CacheConfig struct {
	Source Source
	TTL    time.Duration    // defaults to DefaultTTL
	Now    func() time.Time // defaults to time.Now
	Logger *slog.Logger     // defaults to slog.Default()
}

// Cache is a read-through TTL cache over the roster. Safe for concurrent
// use; refreshes never block readers.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time
	log *slog.Logger

	mu         sync.RWMutex
	entries    map[int64]Entry // nil until the first successful read
	fetchedAt  time.Time
	refreshing bool
}

func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cache{
		src: cfg.Source,
		ttl: cfg.TTL,
		now: cfg.Now,
		log: cfg.Logger,
	}
}

// Resolve looks up a rep by ID, refreshing the snapshot first when it has
// gone stale. The second return is false when the rep is not in the
// roster at all; callers must also check Entry.Active before letting a
// capture commit.
func (c *Cache) Resolve(ctx context.Context, repID int64) (Entry, bool, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return Entry{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[repID]
	return e, ok, nil
}

// ForceRefresh bypasses the TTL and re-reads the roster now. Unlike the
// read-through path it always reports a read failure, making it the
// escape hatch for tests and for operators who just fixed the sheet.
func (c *Cache) ForceRefresh(ctx context.Context) error {
	rows, err := c.src.ReadAll(ctx)
	if err != nil {
		return &ledger.StoreError{Op: "roster read", Err: err}
	}
	c.swap(ParseRoster(rows))
	return nil
}

// Len reports the number of cached entries without triggering a refresh.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.entries != nil && c.now().Sub(c.fetchedAt) < c.ttl
	busy := c.refreshing
	c.mu.RUnlock()
	if fresh || busy {
		// busy: another resolution is already refreshing; serve the old
		// snapshot rather than block or double-read.
		return nil
	}
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return nil
	}
	c.refreshing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	rows, err := c.src.ReadAll(ctx)
	if err != nil {
		c.mu.RLock()
		hasSnapshot := c.entries != nil
		c.mu.RUnlock()
		if hasSnapshot {
			// Stale beats unavailable. The next resolution retries.
			c.log.Warn("roster refresh failed, serving stale snapshot", "error", err)
			return nil
		}
		return &ledger.StoreError{Op: "roster read", Err: err}
	}

	c.swap(ParseRoster(rows))
	return nil
}

func (c *Cache) swap(entries map[int64]Entry) {
	c.mu.Lock()
	c.entries = entries
	c.fetchedAt = c.now()
	c.mu.Unlock()
}
