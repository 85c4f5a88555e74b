package overlay

import "github.com/prometheus/client_golang/prometheus"

var (
	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "overlayd",
			Subsystem: "overlay",
			Name:      "step_duration_seconds",
			Help:      "Duration of overlay workflow steps in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"step", "outcome"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "overlayd",
			Subsystem: "overlay",
			Name:      "runs_total",
			Help:      "Completed overlay runs by outcome and failed step",
		},
		[]string{"outcome", "step"},
	)
)

func init() {
	prometheus.MustRegister(stepDuration, runsTotal)
}
