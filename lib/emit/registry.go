// Package emit fans detected change events out to downstream consumers.
// Delivery reliability is the subscriber's problem; the registry calls each
// subscriber once per event and moves on.
package emit

import (
	"context"

	"go.uber.org/zap"

	"github.com/aquaregwatch/regwatch/lib/models"
)

// Subscriber consumes change events read-only. Summarization and delivery
// services implement this on their side of the boundary.
type Subscriber interface {
	OnChangeDetected(ctx context.Context, event *models.ChangeEvent)
}

type Registry map[string]Subscriber

func NewRegistry(log *zap.Logger) Registry {
	return Registry{
		"log": &logSubscriber{log: log},
	}
}

// Register adds a named subscriber. Registering before the scheduler starts
// is the caller's responsibility; the registry itself is not synchronized.
func (r Registry) Register(name string, sub Subscriber) {
	r[name] = sub
}

func (r Registry) Dispatch(ctx context.Context, event *models.ChangeEvent) {
	for _, sub := range r {
		sub.OnChangeDetected(ctx, event)
	}
}

// logSubscriber is the built-in consumer; it makes every detected change
// visible in the service log even with no external subscribers attached.
type logSubscriber struct {
	log *zap.Logger
}

func (s *logSubscriber) OnChangeDetected(ctx context.Context, event *models.ChangeEvent) {
	s.log.Sugar().Infow("change event",
		"source", event.SourceID,
		"detected_at", event.DetectedAt,
		"priority", event.Priority,
		"change_percent", event.ChangePercent,
		"keywords", event.KeywordsFound,
	)
}
