package models

import "time"

// Priority is the severity ladder shared by sources and change events.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// AtLeast reports whether p ranks equal to or above other.
func (p Priority) AtLeast(other Priority) bool {
	return priorityRank[p] >= priorityRank[other]
}

// Source is one monitored endpoint. Sources come from configuration, are
// immutable for the lifetime of a generation, and are never persisted --
// only their snapshots and change events are.
type Source struct {
	ID            string
	URL           string
	Category      string
	Priority      Priority
	CheckInterval time.Duration

	// XPath expressions tried in order; first match wins. Empty means the
	// whole document body.
	Selectors []string

	// Extra keywords scanned for this source on top of the global list.
	Keywords []Keyword

	// Generation identifies which config load produced this source.
	Generation int
}

type Sources []*Source
