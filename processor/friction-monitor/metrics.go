package frictionmonitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	healthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reqgraph",
		Subsystem: "friction_monitor",
		Name:      "graph_health_score",
		Help:      "Overall graph health score, 0-100.",
	})

	aggregateFriction = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reqgraph",
		Subsystem: "friction_monitor",
		Name:      "aggregate_friction_score",
		Help:      "Mean friction score across live requirements, -1 to 0.",
	})

	requirementsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reqgraph",
		Subsystem: "friction_monitor",
		Name:      "requirements_total",
		Help:      "Live requirements in the graph.",
	})

	dependenciesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reqgraph",
		Subsystem: "friction_monitor",
		Name:      "dependencies_total",
		Help:      "Live dependency edges in the graph.",
	})

	requirementsByClass = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "reqgraph",
		Subsystem: "friction_monitor",
		Name:      "requirements_by_classification",
		Help:      "Live requirements per friction classification.",
	}, []string{"classification"})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reqgraph",
		Subsystem: "friction_monitor",
		Name:      "scans_total",
		Help:      "Whole-graph scans, by outcome.",
	}, []string{"status"})
)
