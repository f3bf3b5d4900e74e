// Package cache keeps the full deliverables list in memory for a bounded time.
//
// The whole collection is one cache entry. It is served until its TTL
// (counted from the fetch that stored it) runs out, or until a successful
// write or a manual refresh invalidates it. Failed fetches are never stored.
package cache

import (
	"context"
	"slices"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/viccon/sturdyc"
)

const listKey = "deliverables:all"

// Invalidation reasons reported to the metrics recorder.
const (
	ReasonWrite  = "write"
	ReasonManual = "manual"
)

// Config holds the list cache settings / Paramètres du cache de liste
type Config struct {
	// TTL is the freshness window of the cached list. Must be greater than 0.
	TTL time.Duration

	// Capacity and NumShards size the underlying sturdyc client.
	Capacity  int
	NumShards int

	// EvictionPercentage is the share of entries dropped when Capacity is reached (1-100).
	EvictionPercentage int
}

// DefaultConfig returns the 60 second list cache.
func DefaultConfig() Config {
	return Config{
		TTL:                60 * time.Second,
		Capacity:           64,
		NumShards:          1,
		EvictionPercentage: 10,
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "cache config error in field " + e.Field + ": " + e.Message
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// Recorder receives cache events / Reçoit les événements du cache
type Recorder interface {
	RecordCacheLookup(hit bool)
	RecordCacheInvalidation(reason string)
}

// FetchFn loads the full list from the backend.
type FetchFn func(ctx context.Context) ([]domain.Deliverable, error)

// ListCache is a read-through cache for the deliverables list.
// ListCache est un cache en lecture directe pour la liste des livrables.
type ListCache struct {
	client   *sturdyc.Client[[]domain.Deliverable]
	recorder Recorder
}

// New creates the list cache. A nil recorder disables instrumentation.
func New(cfg Config, recorder Recorder) (*ListCache, error) {
	if cfg.EvictionPercentage == 0 {
		cfg.EvictionPercentage = DefaultConfig().EvictionPercentage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]domain.Deliverable](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
	)

	return &ListCache{client: client, recorder: recorder}, nil
}

// GetOrFetch returns the cached list while fresh, otherwise calls fetch and
// stores its result. Errors from fetch are returned as is and not cached.
// The returned slice is a copy; callers may modify it.
//
// A lookup is a hit only when a stored list is served. Concurrent callers
// that find no fresh entry share a single fetch, and each of them counts as
// a miss.
func (c *ListCache) GetOrFetch(ctx context.Context, fetch FetchFn) ([]domain.Deliverable, error) {
	if items, ok := c.client.Get(listKey); ok {
		c.recordLookup(true)
		return slices.Clone(items), nil
	}

	c.recordLookup(false)
	items, err := c.client.GetOrFetch(ctx, listKey, sturdyc.FetchFn[[]domain.Deliverable](fetch))
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (c *ListCache) recordLookup(hit bool) {
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(hit)
	}
}

// Invalidate drops the cached list so the next read goes to the backend.
// Invalidate vide la liste en cache ; la prochaine lecture interroge le backend.
func (c *ListCache) Invalidate(reason string) {
	c.client.Delete(listKey)
	if c.recorder != nil {
		c.recorder.RecordCacheInvalidation(reason)
	}
}

// Cached reports the list currently held, without fetching.
func (c *ListCache) Cached() ([]domain.Deliverable, bool) {
	items, ok := c.client.Get(listKey)
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}
