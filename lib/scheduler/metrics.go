package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regwatch_cycles_total",
		Help: "Completed fetch+detect cycles by outcome.",
	}, []string{"source", "outcome"})

	changesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regwatch_changes_total",
		Help: "Detected change events by priority.",
	}, []string{"source", "priority"})

	degradedSources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "regwatch_degraded_sources",
		Help: "Number of sources currently marked degraded.",
	})
)
