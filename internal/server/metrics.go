// metrics.go - Prometheus instrumentation, exposed at GET /metrics.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricUploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploadspool_uploads_total",
		Help: "Completed uploads.",
	})
	metricUploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploadspool_upload_bytes_total",
		Help: "Bytes written by completed uploads.",
	})
	metricUploadRejectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uploadspool_upload_rejects_total",
		Help: "Uploads rejected, by reason.",
	}, []string{"reason"})
	metricRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uploadspool_http_requests_total",
		Help: "HTTP requests served, by status code.",
	}, []string{"code"})
	metricSweeperRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploadspool_sweeper_runs_total",
		Help: "Retention sweeper cycles.",
	})
	metricSweeperErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploadspool_sweeper_errors_total",
		Help: "Retention sweeper cycles that failed.",
	})
	metricArtifactsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploadspool_artifacts_purged_total",
		Help: "Artifacts deleted by the retention sweeper.",
	})
)

// Reject reasons for metricUploadRejectsTotal.
const (
	rejectRateLimited     = "rate_limited"
	rejectTooLarge        = "too_large"
	rejectInvalidFilename = "invalid_filename"
	rejectInternal        = "internal"
)
