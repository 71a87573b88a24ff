package meili

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/metrics"
	"github.com/ncobase/searchsync/search"
)

// BreakerConfig tunes the circuit breaker around a backend.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	Interval    time.Duration
}

// BreakerBackend fails fast with search.ErrEngineUnavailable while the
// engine keeps being unreachable. Only transport failures trip it; a missing
// index or a rejected request leaves it closed.
type BreakerBackend struct {
	next search.Backend
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerBackend wraps next.
func NewBreakerBackend(next search.Backend, cfg BreakerConfig) *BreakerBackend {
	if cfg.Name == "" {
		cfg.Name = "meilisearch"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	maxFailures := cfg.MaxFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, search.ErrEngineUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			logger.Warnf(context.Background(), "search breaker %s: %s -> %s", name, from, to)
		},
	})
	metrics.SetBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &BreakerBackend{next: next, cb: cb}
}

// State returns the breaker state.
func (b *BreakerBackend) State() gobreaker.State { return b.cb.State() }

func run[T any](b *BreakerBackend, fn func() (T, error)) (T, error) {
	var zero T
	v, err := b.cb.Execute(func() (any, error) { return fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %w", search.ErrEngineUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

func (b *BreakerBackend) CreateIndex(ctx context.Context, uid, primaryKey string) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.CreateIndex(ctx, uid, primaryKey) })
}

func (b *BreakerBackend) GetIndex(ctx context.Context, uid string) (*search.IndexInfo, error) {
	return run(b, func() (*search.IndexInfo, error) { return b.next.GetIndex(ctx, uid) })
}

func (b *BreakerBackend) ListIndexes(ctx context.Context) ([]search.IndexInfo, error) {
	return run(b, func() ([]search.IndexInfo, error) { return b.next.ListIndexes(ctx) })
}

func (b *BreakerBackend) DeleteIndex(ctx context.Context, uid string) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.DeleteIndex(ctx, uid) })
}

func (b *BreakerBackend) AddDocuments(ctx context.Context, uid string, docs []search.Document, primaryKey string) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.AddDocuments(ctx, uid, docs, primaryKey) })
}

func (b *BreakerBackend) DeleteDocuments(ctx context.Context, uid string, ids []string) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.DeleteDocuments(ctx, uid, ids) })
}

func (b *BreakerBackend) DeleteAllDocuments(ctx context.Context, uid string) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.DeleteAllDocuments(ctx, uid) })
}

func (b *BreakerBackend) UpdateSettings(ctx context.Context, uid string, settings search.Settings) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.UpdateSettings(ctx, uid, settings) })
}

func (b *BreakerBackend) GetSettings(ctx context.Context, uid string) (search.Settings, error) {
	return run(b, func() (search.Settings, error) { return b.next.GetSettings(ctx, uid) })
}

func (b *BreakerBackend) GetStats(ctx context.Context, uid string) (*search.IndexStats, error) {
	return run(b, func() (*search.IndexStats, error) { return b.next.GetStats(ctx, uid) })
}

func (b *BreakerBackend) Search(ctx context.Context, uid string, params *search.SearchParams) (*search.Response, error) {
	return run(b, func() (*search.Response, error) { return b.next.Search(ctx, uid, params) })
}

func (b *BreakerBackend) GetTask(ctx context.Context, taskUID int64) (*search.Task, error) {
	return run(b, func() (*search.Task, error) { return b.next.GetTask(ctx, taskUID) })
}

func (b *BreakerBackend) Health(ctx context.Context) error {
	_, err := run(b, func() (struct{}, error) { return struct{}{}, b.next.Health(ctx) })
	return err
}

var _ search.Backend = (*BreakerBackend)(nil)
