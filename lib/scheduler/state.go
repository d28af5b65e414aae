package scheduler

import (
	"time"

	"github.com/aquaregwatch/regwatch/lib/models"
)

// CycleState is where a source sits in its scheduling lifecycle:
// IDLE → DUE → FETCHING → DETECTING → IDLE on success, or
// FETCHING → FAILED → BACKOFF → DUE on failure.
type CycleState string

const (
	StateIdle     CycleState = "idle"
	StateFetching CycleState = "fetching"
	StateBackoff  CycleState = "backoff"
)

// sourceState is the scheduler-private runtime record for one source. All
// reads and writes go through the scheduler's mutex; nothing outside the
// package sees it directly.
type sourceState struct {
	src *models.Source

	nextRunAt           time.Time
	backoffUntil        time.Time
	consecutiveFailures int
	degraded            bool

	// running enforces strict per-source serialization: a new cycle never
	// starts while the previous one's commit is pending.
	running bool
}

func newSourceState(src *models.Source) *sourceState {
	// Zero nextRunAt makes the source due immediately on startup.
	return &sourceState{src: src}
}

func (st *sourceState) dueAt(now time.Time) bool {
	if st.running {
		return false
	}
	if now.Before(st.backoffUntil) {
		return false
	}
	return !now.Before(st.nextRunAt)
}

func (st *sourceState) cycleState(now time.Time) CycleState {
	switch {
	case st.running:
		return StateFetching
	case now.Before(st.backoffUntil):
		return StateBackoff
	default:
		return StateIdle
	}
}

// SourceStatus is the read-only view of a source's schedule exposed to the
// history API.
type SourceStatus struct {
	ID                  string          `json:"id"`
	URL                 string          `json:"url"`
	Category            string          `json:"category"`
	Priority            models.Priority `json:"priority"`
	Generation          int             `json:"generation"`
	State               CycleState      `json:"state"`
	NextRunAt           time.Time       `json:"next_run_at"`
	BackoffUntil        time.Time       `json:"backoff_until,omitempty"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	Degraded            bool            `json:"degraded"`
}
