// Package service holds the marketplace business logic: negotiation,
// booking, rating aggregation, catalog lookups and accounts.
package service

import (
	"context"
	"time"

	"maid-market/internal/events"
	"maid-market/internal/metrics"

	"go.uber.org/zap"
)

// Observers are the side channels a service reports to after a successful
// mutation. Zero values are replaced with no-op implementations.
type Observers struct {
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

func (o Observers) withDefaults() Observers {
	if o.Publisher == nil {
		o.Publisher = events.Nop{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// publish sends an event and logs a failure instead of returning it
func (o Observers) publish(ctx context.Context, subject string, payload any) {
	if err := o.Publisher.Publish(ctx, subject, payload); err != nil {
		o.Logger.Warn("Failed to publish event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
