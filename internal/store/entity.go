package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/metrics"
)

// Loader fetches one entity by id
type Loader[V any] func(ctx context.Context, id int) (V, error)

// EntityCache memoizes one kind of entity per id for the whole session.
// Entries never expire; only Clear drops them. Failed loads are not cached.
type EntityCache[V any] struct {
	resource string
	load     Loader[V]
	logger   *logrus.Logger

	cache *cache.Cache
	group singleflight.Group

	mu      sync.Mutex
	loading map[int]bool
}

// NewEntityCache creates a cache backed by load
func NewEntityCache[V any](resource string, load Loader[V], logger *logrus.Logger) *EntityCache[V] {
	return &EntityCache[V]{
		resource: resource,
		load:     load,
		logger:   logger,
		cache:    cache.New(cache.NoExpiration, 0),
		loading:  make(map[int]bool),
	}
}

// Fetch returns the entity, loading it on a miss. Concurrent fetches of the
// same id share one load. The second result is false when the id is invalid
// or the load failed.
func (c *EntityCache[V]) Fetch(ctx context.Context, id int) (V, bool) {
	var zero V
	if id <= 0 {
		return zero, false
	}

	key := strconv.Itoa(id)
	if v, ok := c.cache.Get(key); ok {
		metrics.CacheRequests.WithLabelValues(c.resource, metrics.ResultHit).Inc()
		return v.(V), true
	}
	metrics.CacheRequests.WithLabelValues(c.resource, metrics.ResultMiss).Inc()

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}

		c.setLoading(id, true)
		defer c.setLoading(id, false)

		// The first caller going away must not fail the others.
		v, err := c.load(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, v, cache.NoExpiration)
		return v, nil
	})
	if err != nil {
		kind := apperr.Classify(err)
		metrics.FetchFailures.WithLabelValues(c.resource, string(kind)).Inc()
		c.logger.WithFields(logrus.Fields{
			"op":   c.resource,
			"kind": kind,
			"id":   id,
		}).WithError(err).Warn("Failed to fetch")
		return zero, false
	}

	return res.(V), true
}

// Get returns a cached entity without loading it
func (c *EntityCache[V]) Get(id int) (V, bool) {
	if v, ok := c.cache.Get(strconv.Itoa(id)); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// IsLoading reports whether a load of id is in flight
func (c *EntityCache[V]) IsLoading(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[id]
}

// Len returns the number of cached entities
func (c *EntityCache[V]) Len() int {
	return c.cache.ItemCount()
}

// Clear drops every entry and loading flag
func (c *EntityCache[V]) Clear() {
	c.cache.Flush()

	c.mu.Lock()
	c.loading = make(map[int]bool)
	c.mu.Unlock()
}

func (c *EntityCache[V]) setLoading(id int, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loading {
		c.loading[id] = true
	} else {
		delete(c.loading, id)
	}
}
