package cache

import (
	"sync"
	"time"

	"tekir/search"
)

// DefaultTTL is how long a stored result list is served before a re-fetch.
const DefaultTTL = 30 * time.Minute

type Entry struct {
	Results   []search.Result
	ExpiresAt time.Time
}

// QueryCache maps backend+query to the last successful result list.
// Expired entries are not evicted; they stay until the next Put overwrites them.
type QueryCache struct {
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
	mutex   sync.RWMutex
}

type Option func(*QueryCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) {
		c.now = now
	}
}

// New creates a cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &QueryCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Key(backend, query string) string {
	return backend + ":" + query
}

// Get returns the entry for backend and query if it has not expired.
func (c *QueryCache) Get(backend, query string) (Entry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.entries[Key(backend, query)]
	if !ok || !c.now().Before(entry.ExpiresAt) {
		return Entry{}, false
	}
	return entry, true
}

// Put stores results for backend and query, replacing any previous entry.
func (c *QueryCache) Put(backend, query string, results []search.Result) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[Key(backend, query)] = Entry{
		Results:   results,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *QueryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}
