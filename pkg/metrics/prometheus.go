// Package metrics provides Prometheus metrics for the marque bounty tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion pipeline
	eventsIngested  prometheus.Counter
	eventsRejected  prometheus.Counter
	killsRecorded   prometheus.Counter
	eventsConfirmed prometheus.Counter
	playersTracked  prometheus.Gauge

	// Ranking
	scoreRecomputeDuration prometheus.Histogram

	// Enrichment queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Enrichment workers
	workerCount        prometheus.Gauge
	enrichmentJobs     prometheus.Counter
	enrichmentFailures prometheus.Counter
	enrichmentOrgless  prometheus.Counter
	enrichmentLatency  prometheus.Histogram

	// Watcher (log tailer) side
	watcherLines      prometheus.Counter
	watcherMatches    prometheus.Counter
	watcherDuplicates prometheus.Counter
	watcherSubmitErrs prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error sink by component
	errorsByComponent *prometheus.CounterVec
}

// Global manager on a dedicated registry. The default registry's Go and
// process collectors are not wanted on /healthz.
var globalManager *Manager

var customRegistry = prometheus.NewRegistry()

func init() {
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "marque",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_ingested_total",
		Help:      "Total number of kill events persisted",
	})
	m.eventsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rejected_total",
		Help:      "Total number of inbound events rejected by validation",
	})
	m.killsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kills_recorded_total",
		Help:      "Total number of events that credited a kill",
	})
	m.eventsConfirmed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_confirmed_total",
		Help:      "Total number of confirm actions applied",
	})
	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_tracked",
		Help:      "Number of player records in the directory",
	})

	m.scoreRecomputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_recompute_duration_milliseconds",
		Help:      "Duration of full bounty score recomputation in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_queue_capacity",
		Help:      "Configured capacity of the enrichment job queue",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_queue_size",
		Help:      "Current number of queued enrichment jobs",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_queue_utilization",
		Help:      "Queue fill ratio between 0 and 1",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_queue_enqueues_total",
		Help:      "Total number of jobs accepted by the enrichment queue",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_queue_enqueue_errors_total",
		Help:      "Total number of jobs dropped by the enrichment queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_worker_count",
		Help:      "Number of running enrichment workers",
	})
	m.enrichmentJobs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_jobs_total",
		Help:      "Total number of enrichment jobs processed",
	})
	m.enrichmentFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_job_failures_total",
		Help:      "Total number of enrichment jobs that failed",
	})
	m.enrichmentOrgless = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_orgless_total",
		Help:      "Total number of handles resolved to no organization",
	})
	m.enrichmentLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_latency_milliseconds",
		Help:      "Directory lookup plus upsert latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.watcherLines = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "watcher_lines_total",
		Help:      "Total number of log lines read by the tailer",
	})
	m.watcherMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "watcher_matches_total",
		Help:      "Total number of lines parsed as kill events",
	})
	m.watcherDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "watcher_duplicates_total",
		Help:      "Total number of events suppressed by the dedup window",
	})
	m.watcherSubmitErrs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "watcher_submit_errors_total",
		Help:      "Total number of failed event submissions",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by component and kind",
		},
		[]string{"component", "kind"},
	)
}

// Package-level recorders against the global manager.

func RecordEventIngested()  { globalManager.eventsIngested.Inc() }
func RecordEventRejected()  { globalManager.eventsRejected.Inc() }
func RecordKill()           { globalManager.killsRecorded.Inc() }
func RecordEventConfirmed() { globalManager.eventsConfirmed.Inc() }

func UpdatePlayersTracked(count int64) { globalManager.playersTracked.Set(float64(count)) }

func RecordScoreRecomputeDuration(ms float64) { globalManager.scoreRecomputeDuration.Observe(ms) }

func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueSize(size int)         { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueUtilization(u float64) { globalManager.queueUtilization.Set(u) }
func RecordQueueEnqueue()              { globalManager.queueEnqueues.Inc() }
func RecordQueueEnqueueError()         { globalManager.queueEnqueueErrors.Inc() }

func UpdateWorkerCount(count int)        { globalManager.workerCount.Set(float64(count)) }
func RecordEnrichmentJob()               { globalManager.enrichmentJobs.Inc() }
func RecordEnrichmentFailure()           { globalManager.enrichmentFailures.Inc() }
func RecordEnrichmentOrgless()           { globalManager.enrichmentOrgless.Inc() }
func RecordEnrichmentLatency(ms float64) { globalManager.enrichmentLatency.Observe(ms) }

func RecordWatcherLine()        { globalManager.watcherLines.Inc() }
func RecordWatcherMatch()       { globalManager.watcherMatches.Inc() }
func RecordWatcherDuplicate()   { globalManager.watcherDuplicates.Inc() }
func RecordWatcherSubmitError() { globalManager.watcherSubmitErrs.Inc() }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry exposes the dedicated registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
