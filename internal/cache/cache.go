// Package cache keeps resolved lookup records on disk so repeated lookups of
// the same target do not hit the NetGeo server.
//
// A Cache holds the whole store in memory. It is loaded once by Open, mutated
// by Append during a batch and written back by a single Flush. All methods are
// safe for concurrent use; the persisted file itself is not locked across
// processes, so two processes sharing a cache location race on Flush and the
// last writer wins.
package cache

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tbckr/netgeo/internal/netgeo"
	"github.com/tbckr/netgeo/internal/record"
)

// Entry is one cached lookup.
type Entry struct {
	// Key is the canonical target the record was fetched for.
	Key string `json:"key"`
	// Method is the lookup method the reply was fetched with.
	Method netgeo.Method `json:"method"`
	// FetchedAt is when the reply was received.
	FetchedAt time.Time `json:"fetched_at"`
	// Record is the parsed reply.
	Record record.Record `json:"record"`
}

// Backend persists the full list of entries.
type Backend interface {
	// Load returns the persisted entries in stored order. A missing store
	// yields no entries. A store that exists but cannot be decoded returns an
	// error wrapping ErrUnreadable. A missing directory returns an error
	// wrapping apperr.ErrStorage.
	Load() ([]Entry, error)
	// Save replaces the persisted entries.
	Save(entries []Entry) error
	// Location describes where entries are persisted.
	Location() string
}

// ErrUnreadable marks a store that exists but could not be read or decoded.
// Open treats it as an empty store.
var ErrUnreadable = errors.New("cache unreadable")

// Cache is the in-memory lookup store backed by a Backend.
type Cache struct {
	mu      sync.Mutex
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	entries []Entry
	index   map[string]int
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for TTL checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Open loads the store from backend. Entries older than ttl are treated as
// misses by Find; a ttl of zero disables expiry.
func Open(backend Backend, ttl time.Duration, logger *slog.Logger, opts ...Option) (*Cache, error) {
	c := &Cache{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	entries, err := backend.Load()
	if err != nil {
		if !errors.Is(err, ErrUnreadable) {
			return nil, err
		}
		logger.Warn("ignoring unreadable cache", "location", backend.Location(), "error", err)
		entries = nil
	}
	for _, e := range entries {
		c.put(e)
	}
	logger.Debug("cache loaded", "location", backend.Location(), "entries", len(c.entries))
	return c, nil
}

// Find returns the entry stored for key. Expired entries are reported as misses.
func (c *Cache) Find(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[key]
	if !ok {
		return Entry{}, false
	}
	e := c.entries[i]
	if c.expired(e) {
		c.logger.Debug("cache entry expired", "key", key, "fetched_at", e.FetchedAt)
		return Entry{}, false
	}
	return e, true
}

// Append adds an entry to the in-memory store, replacing any entry with the
// same key in place. A zero FetchedAt is set to the current time.
// Nothing is persisted until Flush.
func (c *Cache) Append(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.FetchedAt.IsZero() {
		e.FetchedAt = c.now()
	}
	c.put(e)
}

// Flush writes the whole in-memory store to the backend.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Save(c.entries); err != nil {
		return err
	}
	c.logger.Debug("cache flushed", "location", c.backend.Location(), "entries", len(c.entries))
	return nil
}

// Entries returns a copy of all stored entries in insertion order, expired ones included.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry from the in-memory store. Call Flush to persist.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.index = make(map[string]int)
}

// Location describes where the cache is persisted.
func (c *Cache) Location() string { return c.backend.Location() }

// TTL returns the configured freshness window; zero means entries never expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// put stores e; the caller holds c.mu.
func (c *Cache) put(e Entry) {
	if i, ok := c.index[e.Key]; ok {
		c.entries[i] = e
		return
	}
	c.index[e.Key] = len(c.entries)
	c.entries = append(c.entries, e)
}

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.FetchedAt) > c.ttl
}
