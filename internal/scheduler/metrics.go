package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dice_scheduler_in_flight",
		Help: "Upstream calls currently executing",
	})

	waitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dice_scheduler_wait_seconds",
		Help:    "Time spent queued before an upstream call starts",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Labels:
	//   - outcome: "ok", "error", "abandoned"
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dice_scheduler_tasks_total",
		Help: "Upstream calls run through the scheduler",
	}, []string{"outcome"})
)
