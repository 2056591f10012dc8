package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/terang55/rainbow-rich-auth-server/internal/metrics"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

// BreakerStore guards a Store with a circuit breaker so a failing backend is
// given time to recover instead of being hit by every request.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerStore(inner Store, name string, logger *slog.Logger) *BreakerStore {
	metrics.StoreBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// Caller cancellations say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, subscription.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("store circuit breaker changed state",
				"name", name, "from", from.String(), "to", to.String())
			metrics.StoreBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &BreakerStore{inner: inner, cb: cb}
}

func (b *BreakerStore) Get(ctx context.Context, scope, subjectID string) (*subscription.Record, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.Get(ctx, scope, subjectID)
	})
	if err != nil {
		return nil, err
	}
	rec, _ := res.(*subscription.Record)
	return rec, nil
}

func (b *BreakerStore) Put(ctx context.Context, scope, subjectID string, rec *subscription.Record) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Put(ctx, scope, subjectID, rec)
	})
	return err
}

func (b *BreakerStore) Patch(ctx context.Context, scope, subjectID string, p subscription.Patch) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Patch(ctx, scope, subjectID, p)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, scope, subjectID string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Delete(ctx, scope, subjectID)
	})
	return err
}

func (b *BreakerStore) List(ctx context.Context, scope string) ([]subscription.Record, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.List(ctx, scope)
	})
	if err != nil {
		return nil, err
	}
	records, _ := res.([]subscription.Record)
	return records, nil
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", subscription.ErrStoreUnavailable, err)
	}
	return res, err
}
