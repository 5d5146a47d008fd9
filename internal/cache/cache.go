// Package cache fronts model-backed calls with a namespaced, TTL-based
// response cache keyed by content fingerprint.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Namespace groups cached lookups by volatility. TTL is intrinsic to the
// namespace, not per-call.
type Namespace string

const (
	// NSJobs holds job-listing extraction results. Jobs change frequently.
	NSJobs Namespace = "jobs"
	// NSURLDiscovery holds career-URL discovery results.
	NSURLDiscovery Namespace = "url"
	// NSTranslation holds title translations. Stable for weeks.
	NSTranslation Namespace = "trans"
	// NSCompanyInfo holds company descriptions. Stable for weeks.
	NSCompanyInfo Namespace = "company"
)

var namespaceTTL = map[Namespace]time.Duration{
	NSJobs:         6 * time.Hour,
	NSURLDiscovery: 7 * 24 * time.Hour,
	NSTranslation:  30 * 24 * time.Hour,
	NSCompanyInfo:  30 * 24 * time.Hour,
}

// TTL returns the namespace's time-to-live.
func (n Namespace) TTL() time.Duration {
	if ttl, ok := namespaceTTL[n]; ok {
		return ttl
	}
	return 6 * time.Hour
}

// Entry is a cached response with its expiry and the token count the cached
// call originally cost (credited to stats on every hit).
type Entry struct {
	Value       []byte
	TokensSaved int
	ExpiresAt   time.Time
}

// Store persists cache entries. Implementations: the SQLite repository and
// the Redis client wrapper. A Store may expire entries itself (Redis); the
// cache still checks ExpiresAt so SQLite rows expire lazily on read.
type Store interface {
	GetEntry(ctx context.Context, key string) (Entry, bool, error)
	SetEntry(ctx context.Context, key string, e Entry) error
	DeleteEntry(ctx context.Context, key string) error
}

// Stats are session counters, updated atomically across concurrent scans.
type Stats struct {
	Hits        int64
	Misses      int64
	TokensSaved int64
}

// ResponseCache caches model responses per namespace with content-derived
// keys. A read past expiry is a miss, never a stale hit; storage errors are
// downgraded to misses.
type ResponseCache struct {
	store  Store
	model  string // part of the key, avoids cross-model pollution
	logger *slog.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	tokensSaved atomic.Int64
}

// New creates a ResponseCache on top of store. model is mixed into every
// fingerprint so responses from different models never collide.
func New(store Store, model string, logger *slog.Logger) *ResponseCache {
	if model == "" {
		model = "default"
	}
	return &ResponseCache{store: store, model: model, logger: logger}
}

// Fingerprint derives the cache key for content under ns: a SHA-256 of
// namespace, model, and content, truncated to 32 hex chars.
func (c *ResponseCache) Fingerprint(ns Namespace, content string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", ns, c.model, content)))
	return hex.EncodeToString(sum[:])[:32]
}

// Get returns the cached value for content under ns, or false on miss.
// Expired entries are purged lazily here, not by a background sweeper.
func (c *ResponseCache) Get(ctx context.Context, ns Namespace, content string) ([]byte, bool) {
	key := c.Fingerprint(ns, content)

	entry, ok, err := c.store.GetEntry(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", "namespace", ns, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	if ok && time.Now().After(entry.ExpiresAt) {
		if err := c.store.DeleteEntry(ctx, key); err != nil {
			c.logger.Debug("purging expired cache entry failed", "namespace", ns, "error", err)
		}
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	c.tokensSaved.Add(int64(entry.TokensSaved))
	return entry.Value, true
}

// Set caches value for content under ns with the namespace TTL. tokensSaved
// is the estimated token cost of the call being cached. Failures are logged
// and swallowed; caching is best-effort.
func (c *ResponseCache) Set(ctx context.Context, ns Namespace, content string, value []byte, tokensSaved int) {
	key := c.Fingerprint(ns, content)
	entry := Entry{
		Value:       value,
		TokensSaved: tokensSaved,
		ExpiresAt:   time.Now().Add(ns.TTL()),
	}
	if err := c.store.SetEntry(ctx, key, entry); err != nil {
		c.logger.Warn("cache set failed", "namespace", ns, "error", err)
	}
}

// Stats returns the session hit/miss/tokens-saved counters.
func (c *ResponseCache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		TokensSaved: c.tokensSaved.Load(),
	}
}
