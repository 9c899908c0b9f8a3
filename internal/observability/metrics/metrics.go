// Package metrics exposes the Prometheus collectors for the API server and
// the content services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tenantcms_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	postWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_post_writes_total",
		Help: "Post create/edit/delete/archive operations by result",
	}, []string{"operation", "result"})

	mediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_media_uploads_total",
		Help: "Uploaded files by result",
	}, []string{"result"})

	mediaUploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantcms_media_upload_bytes_total",
		Help: "Bytes written to object storage by uploads",
	})

	slugRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_slug_retries_total",
		Help: "Slug inserts retried after a unique violation",
	}, []string{"entity"})

	postCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_post_cache_lookups_total",
		Help: "Single-post cache lookups by outcome",
	}, []string{"outcome"})

	termsPurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_terms_purged_total",
		Help: "Soft-deleted categories and tags removed by the purge job",
	}, []string{"kind"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"path"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObservePostWrite counts one post write operation.
func ObservePostWrite(operation string, err error) {
	postWrites.WithLabelValues(operation, result(err)).Inc()
}

// ObserveUpload counts one uploaded file and, on success, its size.
func ObserveUpload(size int64, err error) {
	mediaUploads.WithLabelValues(result(err)).Inc()
	if err == nil {
		mediaUploadBytes.Add(float64(size))
	}
}

// ObserveSlugRetry counts an insert retried after a slug collision.
func ObserveSlugRetry(entity string) {
	slugRetries.WithLabelValues(entity).Inc()
}

// ObservePostCache counts a cache hit or miss.
func ObservePostCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	postCacheLookups.WithLabelValues(outcome).Inc()
}

// ObservePurge adds the number of purged terms of a kind.
func ObservePurge(kind string, n int64) {
	termsPurged.WithLabelValues(kind).Add(float64(n))
}

// ObserveRateLimited counts a request rejected with 429.
func ObserveRateLimited(path string) {
	rateLimited.WithLabelValues(path).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
