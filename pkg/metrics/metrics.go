package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every collector exposed on /api/metrics
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// Histogram buckets tuned for CMS calls ranging from a few ms to the section timeout
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// CMS Client Metrics
	CMSRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cms_client_operation_duration_seconds",
			Help:    "CMS client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"method", "status"},
	)

	CMSRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_client_operation_total",
			Help: "Total number of CMS client operations",
		},
		[]string{"method", "status"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Total number of cache writes by outcome",
		},
		[]string{"cache_name", "status"},
	)

	CacheEvictions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache entries removed, by reason",
		},
		[]string{"cache_name", "reason"},
	)

	CacheSize = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Content Metrics
	SectionResolutions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stemsite_section_resolutions_total",
			Help: "Page sections resolved, by source (live, cache, fallback)",
		},
		[]string{"page", "section", "source"},
	)

	PageLoads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stemsite_page_loads_total",
			Help: "Page loads by final state",
		},
		[]string{"page", "state"},
	)

	PageLoadDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stemsite_page_load_duration_seconds",
			Help:    "Time to settle all sections of a page",
			Buckets: CustomAPIBuckets,
		},
		[]string{"page"},
	)

	ContentMutations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stemsite_content_mutations_total",
			Help: "Admin content mutations by section and outcome",
		},
		[]string{"section", "operation", "status"},
	)

	// Business Metrics
	ContactFormSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stemsite_contact_form_submissions_total",
			Help: "Total number of contact form submissions",
		},
		[]string{"status"},
	)

	GalleryUploads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stemsite_gallery_uploads_total",
			Help: "Total number of gallery image uploads",
		},
		[]string{"status"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	// Storage Client Metrics
	MediaStorageRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	MediaStorageRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
