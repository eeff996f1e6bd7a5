package pipeline

import (
	"context"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
)

// BackendExtractor implements AlertExtractor over a backend fetcher. Give it
// the uncached client so every poll sees the live list.
type BackendExtractor struct {
	fetcher domain.Fetcher
}

// NewExtractor creates a BackendExtractor.
func NewExtractor(f domain.Fetcher) *BackendExtractor {
	return &BackendExtractor{fetcher: f}
}

func (e *BackendExtractor) ExtractAlerts(ctx context.Context) ([]domain.Alert, error) {
	feed, err := domain.Load[domain.AlertFeed](ctx, e.fetcher, domain.EndpointAlerts)
	if err != nil {
		return nil, err
	}
	return feed.Alerts, nil
}
