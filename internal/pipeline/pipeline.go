package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// AlertExtractor reads the backend's current alert list.
type AlertExtractor interface {
	ExtractAlerts(ctx context.Context) ([]domain.Alert, error)
}

// AlertLoader delivers enriched alerts to one destination.
type AlertLoader interface {
	LoadBatch(ctx context.Context, events []domain.AlertEvent) error
}

// Relay polls the backend for alerts, places them on the map, and hands
// each loader the alerts it did not receive in its last successful poll.
type Relay struct {
	extractor AlertExtractor
	resolver  *domain.Resolver
	loaders   []AlertLoader
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	// delivered[i] holds the IDs loaders[i] accepted on its last successful
	// load. Owned by the polling goroutine.
	delivered []map[string]struct{}
}

// New creates a Relay that polls every interval.
func New(e AlertExtractor, r *domain.Resolver, loaders []AlertLoader, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Relay {
	return &Relay{
		extractor: e,
		resolver:  r,
		loaders:   loaders,
		interval:  interval,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
		delivered: newDelivered(len(loaders)),
	}
}

func newDelivered(n int) []map[string]struct{} {
	d := make([]map[string]struct{}, n)
	for i := range d {
		d[i] = map[string]struct{}{}
	}
	return d
}

// WithClock replaces the clock used for poll and backoff waits.
func (p *Relay) WithClock(c clockwork.Clock) *Relay {
	p.clock = c
	return p
}

// CheckReadiness returns nil once a poll has completed.
func (p *Relay) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("alert relay has not completed a poll yet")
	}
	return nil
}

// Run polls until the context is cancelled. Failed polls are retried with
// exponential backoff instead of waiting a full interval.
func (p *Relay) Run(ctx context.Context) error {
	p.logger.Info("alert relay started", "interval", p.interval.String(), "loaders", len(p.loaders))
	p.metrics.RelayRunning.Set(1)
	defer p.metrics.RelayRunning.Set(0)

	backoff := initialBackoff
	for {
		err := p.Poll(ctx)
		if ctx.Err() != nil {
			p.logger.Info("alert relay stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if err != nil {
			p.logger.Error("alert poll failed", "error", err, "retry_in", backoff.String())
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("alert relay stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Poll runs one extract-enrich-load cycle. Each loader is tracked on its
// own: it is sent only the alerts missing from its last successful load, so
// a failing loader is retried without repeating the batch to the others.
// Any loader failure fails the poll.
func (p *Relay) Poll(ctx context.Context) error {
	alerts, err := p.extractor.ExtractAlerts(ctx)
	if err != nil {
		return fmt.Errorf("extract alerts: %w", err)
	}

	current := make(map[string]struct{}, len(alerts))
	events := make([]domain.AlertEvent, 0, len(alerts))
	for _, a := range alerts {
		ev := domain.EnrichAlert(a, p.resolver)
		if _, dup := current[ev.ID]; dup {
			continue
		}
		current[ev.ID] = struct{}{}
		events = append(events, ev)
	}

	// Alerts some loader already holds were counted when first relayed.
	known := make(map[string]struct{})
	for _, d := range p.delivered {
		for id := range d {
			known[id] = struct{}{}
		}
	}

	relayed := make(map[string]struct{})
	var errs []error
	for i, l := range p.loaders {
		batch := pending(events, p.delivered[i])
		if len(batch) > 0 {
			if err := l.LoadBatch(ctx, batch); err != nil {
				errs = append(errs, err)
				continue
			}
			for _, ev := range batch {
				relayed[ev.ID] = struct{}{}
			}
		}
		p.delivered[i] = current
	}

	var count int
	for _, ev := range events {
		if _, ok := relayed[ev.ID]; !ok {
			continue
		}
		if _, ok := known[ev.ID]; ok {
			continue
		}
		count++
		if ev.Granularity != domain.GranularityReported {
			p.metrics.ResolutionsTotal.WithLabelValues(string(ev.Granularity)).Inc()
		}
	}
	if count > 0 {
		p.metrics.AlertsRelayed.Add(float64(count))
		p.logger.Info("alerts relayed", "count", count, "polled", len(alerts))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("load alerts: %d of %d loaders failed: %w", len(errs), len(p.loaders), err)
	}
	p.ready.Store(true)
	return nil
}

// pending returns the events whose IDs are not in delivered, in order.
func pending(events []domain.AlertEvent, delivered map[string]struct{}) []domain.AlertEvent {
	out := make([]domain.AlertEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := delivered[ev.ID]; !ok {
			out = append(out, ev)
		}
	}
	return out
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
