package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
)

// Store holds cached response bodies. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedFetcher wraps a Fetcher with a TTL cache keyed by endpoint.
type CachedFetcher struct {
	inner   domain.Fetcher
	store   Store
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.Fetcher, store Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, ep domain.Endpoint) ([]byte, error) {
	key := "backend:" + string(ep)

	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		// A broken store degrades to uncached reads.
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if ok {
		c.metrics.BackendCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	c.metrics.BackendCache.WithLabelValues("miss").Inc()

	body, err = c.inner.Fetch(ctx, ep)
	if err != nil {
		return nil, err
	}
	// Bodies reporting success:false are errors too and must be retried.
	var st domain.Status
	if json.Unmarshal(body, &st) == nil && st.Err() != nil {
		return body, nil
	}
	if err := c.store.Set(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return body, nil
}
