package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "fleetwatch_"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	archiveUploads   prometheus.Counter
	archiveDownloads prometheus.Counter

	moduleConnects prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
)

// Init registers observability metrics and DB-backed fleet gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		archiveUploads = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "archive_uploads_total",
				Help: "Total archive file uploads",
			},
		)
		archiveDownloads = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "archive_downloads_total",
				Help: "Total archive file downloads",
			},
		)

		moduleConnects = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "module_connects_total",
				Help: "Total device-module connections created",
			},
		)

		cacheHits = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_cache_hits_total",
				Help: "Total device cache hits",
			},
		)
		cacheMisses = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_cache_misses_total",
				Help: "Total device cache misses",
			},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			archiveUploads,
			archiveDownloads,
			moduleConnects,
			cacheHits,
			cacheMisses,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// IncArchiveUpload increments the upload counter.
func IncArchiveUpload() {
	if archiveUploads != nil {
		archiveUploads.Inc()
	}
}

// IncArchiveDownload increments the download counter.
func IncArchiveDownload() {
	if archiveDownloads != nil {
		archiveDownloads.Inc()
	}
}

// IncModuleConnected increments the connection counter.
func IncModuleConnected() {
	if moduleConnects != nil {
		moduleConnects.Inc()
	}
}

// IncCacheHit increments the device cache hit counter.
func IncCacheHit() {
	if cacheHits != nil {
		cacheHits.Inc()
	}
}

// IncCacheMiss increments the device cache miss counter.
func IncCacheMiss() {
	if cacheMisses != nil {
		cacheMisses.Inc()
	}
}
