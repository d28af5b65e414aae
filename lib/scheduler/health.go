package scheduler

import (
	"time"

	"go.uber.org/zap"
)

type HealthState string

const (
	HealthDegraded  HealthState = "degraded"
	HealthRecovered HealthState = "recovered"
)

// HealthEvent is emitted when a source crosses the degraded threshold or
// comes back from it. The observability side of the boundary consumes it.
type HealthEvent struct {
	SourceID            string
	State               HealthState
	ConsecutiveFailures int
	Timestamp           time.Time
}

type HealthObserver interface {
	OnSourceHealth(event HealthEvent)
}

// NewLogObserver returns the default observer, which only logs.
func NewLogObserver(log *zap.Logger) HealthObserver {
	return &logObserver{log: log}
}

type logObserver struct {
	log *zap.Logger
}

func (o *logObserver) OnSourceHealth(event HealthEvent) {
	o.log.Sugar().Warnw("source health changed",
		"source", event.SourceID,
		"state", event.State,
		"consecutive_failures", event.ConsecutiveFailures,
	)
}
