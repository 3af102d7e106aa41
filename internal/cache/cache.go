package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is the minimal key/value surface the cache needs. Production uses
// Redis; tests and redis-less deployments use the in-process store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// KeyPrefix namespaces every cache key so a shared Redis can host other
// applications.
const KeyPrefix = "boss-ai:"

// Cache entry kinds. Each kind has its own TTL tier and metric label.
const (
	KindUserJobs        = "user_jobs"
	KindSearchResults   = "search_results"
	KindJobStats        = "job_stats"
	KindRealtimeMetrics = "realtime_metrics"
	KindUserConfigs     = "user_configs"
)

var kindTTLs = map[string]time.Duration{
	KindUserJobs:        10 * time.Minute,
	KindSearchResults:   15 * time.Minute,
	KindJobStats:        time.Hour,
	KindRealtimeMetrics: 2 * time.Minute,
	KindUserConfigs:     30 * time.Minute,
}

const defaultTTL = 30 * time.Minute

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bossai_cache_hits_total",
		Help: "Cache hits by entry kind.",
	}, []string{"kind"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bossai_cache_misses_total",
		Help: "Cache misses by entry kind.",
	}, []string{"kind"})
)

// Cache serializes values as JSON under namespaced keys. Store failures
// degrade to a miss so callers always fall through to the database.
type Cache struct {
	store  Store
	logger zerolog.Logger
}

func New(store Store, logger zerolog.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// Key builds a namespaced cache key: boss-ai:<kind>:<part>:<part>...
func Key(kind string, parts ...string) string {
	b := strings.Builder{}
	b.WriteString(KeyPrefix)
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// TTLFor resolves the TTL tier for an entry kind.
func TTLFor(kind string) time.Duration {
	if ttl, ok := kindTTLs[kind]; ok {
		return ttl
	}
	return defaultTTL
}

// GetJSON loads the key into dest and reports whether it was a hit.
func (c *Cache) GetJSON(ctx context.Context, kind, key string, dest any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache get failed")
		}
		cacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache entry corrupt")
		cacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	cacheHits.WithLabelValues(kind).Inc()
	return true
}

// SetJSON stores v under key with the kind's TTL. Failures are logged and
// swallowed.
func (c *Cache) SetJSON(ctx context.Context, kind, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.store.Set(ctx, key, string(raw), TTLFor(kind)); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// InvalidateUser drops every job listing, search and statistics entry for
// the user. Called after any write that changes the user's jobs.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) {
	for _, kind := range []string{KindUserJobs, KindSearchResults, KindJobStats} {
		c.invalidatePrefix(ctx, Key(kind, userID))
	}
}

// InvalidateUserConfigs drops the user's config catalog entries after a
// selection toggle or an admin catalog change.
func (c *Cache) InvalidateUserConfigs(ctx context.Context, userID string) {
	c.invalidatePrefix(ctx, Key(KindUserConfigs, userID))
}

// InvalidateAllConfigs drops every config catalog entry. Used by admin
// catalog writes, which affect all users.
func (c *Cache) InvalidateAllConfigs(ctx context.Context) {
	c.invalidatePrefix(ctx, KeyPrefix+KindUserConfigs+":")
}

// InvalidateRealtime drops the shared queue metrics entry.
func (c *Cache) InvalidateRealtime(ctx context.Context) {
	c.invalidatePrefix(ctx, KeyPrefix+KindRealtimeMetrics+":")
}

func (c *Cache) invalidatePrefix(ctx context.Context, prefix string) {
	if err := c.store.DeleteByPrefix(ctx, prefix); err != nil {
		c.logger.Debug().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
	}
}
