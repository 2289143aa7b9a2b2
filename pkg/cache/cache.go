package cache

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MinTTL is the freshness floor applied to every stored entry. Upstreams that
// send no usable cache directives would otherwise be refetched on every call.
const MinTTL = 60 * time.Second

const defaultCleanupInterval = 5 * time.Minute

// Entry is a cached upstream response body plus its validators.
type Entry struct {
	Data         string
	ETag         string
	LastModified string
	CachedAt     time.Time
	ExpiresAt    time.Time
}

// Stats is the read-only view consumed by the health endpoint.
type Stats struct {
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}

// Cache stores upstream responses keyed by request URL. Entries expire after
// a TTL computed from response headers; expired entries are evicted lazily on
// Get and in bulk by the cleanup daemon.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry

	clock clockwork.Clock
	log   *slog.Logger

	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	cleanupRunning  bool
}

type Option func(*Cache)

// WithClock substitutes the wall clock, used by tests to drive expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) {
		c.clock = clock
	}
}

// WithCleanupInterval configures the daemon sweep interval. interval must be > 0.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Cache) {
		if interval <= 0 {
			panic("cleanup interval must be > 0")
		}
		c.cleanupInterval = interval
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:         make(map[string]Entry),
		clock:           clockwork.NewRealClock(),
		log:             slog.Default(),
		cleanupInterval: defaultCleanupInterval,
		cleanupStop:     make(chan struct{}),
	}

	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the entry for key if present and fresh. An expired entry is
// removed and reported absent. No network I/O happens here.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.clock.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		return Entry{}, false
	}
	return entry, true
}

// Set stores data under key with a TTL computed from the response headers.
func (c *Cache) Set(key, data string, headers http.Header) {
	now := c.clock.Now()
	ttl := computeTTL(headers, now)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Data:         data,
		ETag:         headerValue(headers, "Etag"),
		LastModified: headerValue(headers, "Last-Modified"),
		CachedAt:     now,
		ExpiresAt:    now.Add(ttl),
	}
	c.log.Debug("cache set", "key", key, "ttl", ttl)
}

// GetStaleEntry returns the entry for key regardless of freshness and without
// evicting it, so callers can build conditional requests for expired entries
// and reuse the stale body after a 304.
func (c *Cache) GetStaleEntry(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	return entry, ok
}

// UpdateNotModified refreshes the freshness of key after a 304 response,
// keeping the cached body. Validators are replaced when the 304 carries new
// ones. A 304 for an unknown key is a no-op.
func (c *Cache) UpdateNotModified(key string, headers http.Header) {
	now := c.clock.Now()
	ttl := computeTTL(headers, now)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return
	}
	if etag := headerValue(headers, "Etag"); etag != "" {
		entry.ETag = etag
	}
	if lm := headerValue(headers, "Last-Modified"); lm != "" {
		entry.LastModified = lm
	}
	entry.CachedAt = now
	entry.ExpiresAt = now.Add(ttl)
	c.entries[key] = entry
	c.log.Debug("cache revalidated", "key", key, "ttl", ttl)
}

// Cleanup removes every expired entry.
func (c *Cache) Cleanup() {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.log.Debug("cache cleanup", "removed", removed, "remaining", len(c.entries))
	}
}

// Clear drops all entries unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// GetStats returns the current size and keys, side-effect free.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return Stats{Size: len(keys), Entries: keys}
}

// StartCleanupDaemon starts a background goroutine that periodically evicts
// expired entries. It does not block shutdown; call StopCleanupDaemon for
// deterministic teardown.
func (c *Cache) StartCleanupDaemon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cleanupRunning {
		return
	}
	c.cleanupRunning = true
	stop := c.cleanupStop

	go func() {
		ticker := c.clock.NewTicker(c.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				c.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// StopCleanupDaemon stops the daemon if running.
func (c *Cache) StopCleanupDaemon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cleanupRunning {
		close(c.cleanupStop)
		c.cleanupStop = make(chan struct{})
		c.cleanupRunning = false
	}
}
