package billing

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "billing",
			Name:      "runs_total",
			Help:      "Billing cycles executed, partitioned by trigger and result.",
		},
		[]string{"trigger", "result"},
	)
	outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "billing",
			Name:      "outcomes_total",
			Help:      "Per-subscription billing outcomes, partitioned by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, outcomesTotal)
}
