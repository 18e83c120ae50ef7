package coordinator

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/platform/resilience"
)

// DefaultTTL is how long cached list data stays fresh.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Coordinator fronts read-heavy backend endpoints with a TTL cache, an
// in-flight request guard, a per-family call spacing floor, and a
// per-key generation counter for last-request-wins response handling.
// Failed fetches never populate the cache.
type Coordinator struct {
	mu          sync.Mutex
	entries     map[string]cacheEntry
	lastCall    map[string]time.Time
	generations map[string]uint64

	ttl    time.Duration
	flight resilience.SingleFlight
	logger *logging.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func New(ttl time.Duration, logger *logging.Logger) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Coordinator{
		entries:     make(map[string]cacheEntry),
		lastCall:    make(map[string]time.Time),
		generations: make(map[string]uint64),
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Key builds a stable cache key from an endpoint and its parameters.
// Parameter order never affects the key.
func Key(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}

// GetOrFetch returns the cached value for key, or runs fetch exactly
// once for all concurrent callers and caches the result. Every caller
// waiting on an in-flight fetch receives its resolved value.
func (c *Coordinator) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if fetch == nil {
		return nil, crerr.New("fetch func is required")
	}
	if key == "" {
		return fetch(ctx)
	}

	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	value, err, shared := c.flight.Do(key, func() (any, error) {
		if cached, ok := c.lookup(key); ok {
			return cached, nil
		}

		fetched, fetchErr := fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		c.store(key, fetched)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "request coalesced with in-flight call", "key", key)
	}

	return value, nil
}

// Coalesce deduplicates concurrent identical calls without caching
// the result, for data too volatile to sit in the TTL cache (live
// scores).
func (c *Coordinator) Coalesce(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if fetch == nil {
		return nil, crerr.New("fetch func is required")
	}
	if key == "" {
		return fetch(ctx)
	}

	value, err, shared := c.flight.Do(key, func() (any, error) {
		return fetch(ctx)
	})
	if shared {
		c.logger.DebugContext(ctx, "request coalesced with in-flight call", "key", key)
	}
	return value, err
}

func (c *Coordinator) lookup(key string) (any, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.After(now) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Coordinator) store(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops one cached entry, typically after a write to the
// same resource.
func (c *Coordinator) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops every cached entry under an endpoint prefix.
func (c *Coordinator) InvalidatePrefix(prefix string) {
	if prefix == "" {
		return
	}

	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// AwaitTurn enforces a minimum spacing floor between consecutive new
// calls to a high-frequency endpoint family. A caller arriving early
// waits out the remainder instead of firing.
func (c *Coordinator) AwaitTurn(ctx context.Context, family string, floor time.Duration) error {
	if floor <= 0 || family == "" {
		return nil
	}

	c.mu.Lock()
	now := c.now()
	next := c.lastCall[family].Add(floor)

	var wait time.Duration
	if next.After(now) {
		wait = next.Sub(now)
		c.lastCall[family] = next
	} else {
		c.lastCall[family] = now
	}
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return c.sleep(ctx, wait)
}

// Begin issues a new request generation for key. A response should
// only be applied while its generation is still current; later
// requests silently supersede earlier ones.
func (c *Coordinator) Begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[key]++
	return c.generations[key]
}

// IsCurrent reports whether gen is still the latest generation issued
// for key.
func (c *Coordinator) IsCurrent(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generations[key] == gen
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
