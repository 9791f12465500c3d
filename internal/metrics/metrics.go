package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	SubmissionsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "submissions_written_total",
		Help: "Submission writes by kind (created, updated).",
	}, []string{"kind"})

	SubmissionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "submissions_rejected_max_updates_total",
		Help: "Submission writes rejected because the update cap was reached.",
	})

	PresignFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_presign_failures_total",
		Help: "Failed pre-signed URL generations by operation.",
	}, []string{"operation"})

	PointsUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "points_updates_total",
		Help: "Bulk points update batches by outcome.",
	}, []string{"outcome"})

	LeaderboardCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_cache_lookups_total",
		Help: "Leaderboard cache lookups by result (hit, miss, error).",
	}, []string{"result"})
)
