package service

import (
	"storepulse/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type jobMetrics struct {
	jobs     *prometheus.CounterVec
	entities *prometheus.CounterVec
	duration prometheus.Histogram
}

func newJobMetrics(reg *metrics.Registry, depth func() float64) *jobMetrics {
	f := reg.Factory()
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "reports",
		Name:      "queue_depth",
		Help:      "Report jobs waiting for a worker.",
	}, depth)
	return &jobMetrics{
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "reports",
			Name:      "jobs_total",
			Help:      "Report jobs by terminal result.",
		}, []string{"result"}),
		entities: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "reports",
			Name:      "entities_total",
			Help:      "Stores computed by report jobs, failed ones are zero filled.",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "reports",
			Name:      "job_duration_seconds",
			Help:      "Wall time of report jobs from dequeue to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
	}
}
