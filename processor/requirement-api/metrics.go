package requirementapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// commandsProcessed counts dispatched commands by name and outcome.
var commandsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reqgraph",
		Subsystem: "requirement_api",
		Name:      "commands_processed_total",
		Help:      "Commands dispatched through the requirement API, by command and status.",
	},
	[]string{"command", "status"},
)
