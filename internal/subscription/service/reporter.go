package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/terang55/rainbow-rich-auth-server/internal/metrics"
	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

// StatsReporter periodically publishes per-product subscription counts to
// the subscriptions gauge.
type StatsReporter struct {
	svc      *Service
	scopes   []string
	interval time.Duration
	logger   *slog.Logger
}

func NewStatsReporter(svc *Service, scopes []string, interval time.Duration, logger *slog.Logger) *StatsReporter {
	return &StatsReporter{svc: svc, scopes: scopes, interval: interval, logger: logger}
}

// Start runs one report immediately and then one per interval until ctx is
// done.
func (r *StatsReporter) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		r.Report(ctx)

		for {
			select {
			case <-ticker.C:
				r.Report(ctx)
			case <-ctx.Done():
				r.logger.Info("stats reporter stopped")
				return
			}
		}
	}()
}

func (r *StatsReporter) Report(ctx context.Context) {
	for _, scope := range r.scopes {
		stats, err := r.svc.Stats(ctx, scope)
		if err != nil {
			r.logger.Error("failed to collect subscription stats", "product", scope, "error", err)
			continue
		}
		metrics.Subscriptions.WithLabelValues(scope, string(subscription.StatusActive)).Set(float64(stats.Active))
		metrics.Subscriptions.WithLabelValues(scope, string(subscription.StatusExpired)).Set(float64(stats.Expired))
	}
}
