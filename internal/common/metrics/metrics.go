package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// TripGenerations counts pipeline runs by outcome: "success" or the
	// failure error code.
	TripGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_generation_total",
			Help: "Trip generation pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	TripStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trip_generation_stage_duration_seconds",
			Help:    "Duration of each trip generation stage in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	ImageSearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trip_image_search_fallbacks_total",
			Help: "Image searches that failed and fell back to no images",
		},
	)

	ImageCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_image_cache_lookups_total",
			Help: "Image search cache lookups by result",
		},
		[]string{"result"},
	)
)
