package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VideosProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clippulse_videos_processed_total",
		Help: "Total number of render jobs processed, by terminal status",
	}, []string{"status"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clippulse_render_duration_seconds",
		Help:    "End-to-end duration of the render pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"engine"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clippulse_active_workers",
		Help: "Number of worker slots currently processing a job",
	})

	NotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clippulse_notify_failures_total",
		Help: "Notification publishes that failed and were dropped",
	})
)
