// Package metrics provides Prometheus metrics for the leaderboard batch job.
//
// The job is not a server, so nothing is scraped. Metrics accumulate on a
// private registry during a run and are flushed to a textfile at the end
// (node-exporter textfile collector format).
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the leaderboard job.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	rowsRead         *prometheus.CounterVec
	rowsDropped      *prometheus.CounterVec
	sourcesRead      prometheus.Counter
	duplicatesMerged prometheus.Counter

	// Leaderboard
	studentsRanked  prometheus.Gauge
	recordsRetained prometheus.Gauge
	topTotalScore   prometheus.Gauge
	batchDuration   prometheus.Histogram
	batchLastUnix   prometheus.Gauge
	batchFailures   *prometheus.CounterVec

	// Rendering
	rendersTotal  *prometheus.CounterVec
	renderLatency *prometheus.HistogramVec
	renderPages   *prometheus.HistogramVec

	// Render queue / workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	workerActive     prometheus.Gauge
	workerErrors     prometheus.Counter
	workerJobLatency prometheus.Histogram

	// Display cache
	cacheLookups *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pylab",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.rowsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_read_total",
		Help:        "Raw rows read from input sources, by source format",
		ConstLabels: m.constLabels,
	}, []string{"format"})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_dropped_total",
		Help:        "Rows dropped during normalization, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.sourcesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sources_read_total",
		Help:        "Input files consumed",
		ConstLabels: m.constLabels,
	})

	m.duplicatesMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "duplicates_overwritten_total",
		Help:        "Records replaced by a later submission for the same student and lecture",
		ConstLabels: m.constLabels,
	})

	m.studentsRanked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "students_ranked",
		Help:        "Number of students on the last leaderboard",
		ConstLabels: m.constLabels,
	})

	m.recordsRetained = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_retained",
		Help:        "Deduplicated score records feeding the last leaderboard",
		ConstLabels: m.constLabels,
	})

	m.topTotalScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "top_total_score",
		Help:        "Total score of the rank 1 student",
		ConstLabels: m.constLabels,
	})

	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_duration_milliseconds",
		Help:        "Wall time of a full pipeline run",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.batchLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_last_success_unixtime",
		Help:        "Unix time of the last successful pipeline run",
		ConstLabels: m.constLabels,
	})

	m.batchFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_failures_total",
		Help:        "Pipeline runs that ended without an artifact, by stage",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.rendersTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "renders_total",
		Help:        "Report renders by format and outcome",
		ConstLabels: m.constLabels,
	}, []string{"format", "outcome"})

	m.renderLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_latency_milliseconds",
		Help:        "Time to render one report artifact",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"format"})

	m.renderPages = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_pages",
		Help:        "Pages per rendered report",
		Buckets:     []float64{1, 2, 3, 5, 8, 13},
		ConstLabels: m.constLabels,
	}, []string{"format"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_queue_size",
		Help:        "Render jobs waiting in the queue",
		ConstLabels: m.constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_queue_capacity",
		Help:        "Maximum number of queued render jobs",
		ConstLabels: m.constLabels,
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_queue_enqueued_total",
		Help:        "Render jobs accepted by the queue",
		ConstLabels: m.constLabels,
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_queue_rejected_total",
		Help:        "Render jobs refused by the queue, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_workers",
		Help:        "Render workers started for the current fan-out",
		ConstLabels: m.constLabels,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_worker_errors_total",
		Help:        "Render jobs that finished with an error",
		ConstLabels: m.constLabels,
	})

	m.workerJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "render_job_latency_milliseconds",
		Help:        "Time a worker spent on one student's job",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_cache_lookups_total",
		Help:        "Display table cache lookups by result",
		ConstLabels: m.constLabels,
	}, []string{"result"})
}

// RecordRowsRead adds n raw rows read from a source of the given format.
func RecordRowsRead(format string, n int) {
	globalManager.rowsRead.WithLabelValues(format).Add(float64(n))
}

// RecordSourceRead increments the consumed input files counter.
func RecordSourceRead() {
	globalManager.sourcesRead.Inc()
}

// RecordRowsDropped adds n rows dropped for reason.
func RecordRowsDropped(reason string, n int) {
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordDuplicatesOverwritten adds n overwritten duplicates.
func RecordDuplicatesOverwritten(n int) {
	globalManager.duplicatesMerged.Add(float64(n))
}

// UpdateLeaderboard sets the gauges describing the last leaderboard.
func UpdateLeaderboard(students, records int, topScore float64) {
	globalManager.studentsRanked.Set(float64(students))
	globalManager.recordsRetained.Set(float64(records))
	globalManager.topTotalScore.Set(topScore)
}

// RecordBatchSuccess observes the duration of a completed run.
func RecordBatchSuccess(durationMs float64, unix int64) {
	globalManager.batchDuration.Observe(durationMs)
	globalManager.batchLastUnix.Set(float64(unix))
}

// RecordBatchFailure counts a failed run at the given stage.
func RecordBatchFailure(stage string) {
	globalManager.batchFailures.WithLabelValues(stage).Inc()
}

// RecordRender counts one render attempt and its latency.
func RecordRender(format string, ok bool, latencyMs float64, pages int) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	globalManager.rendersTotal.WithLabelValues(format, outcome).Inc()
	globalManager.renderLatency.WithLabelValues(format).Observe(latencyMs)
	if ok {
		globalManager.renderPages.WithLabelValues(format).Observe(float64(pages))
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of started render workers.
func UpdateWorkerCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerJobLatency records how long one job took.
func RecordWorkerJobLatency(latencyMs float64) {
	globalManager.workerJobLatency.Observe(latencyMs)
}

// RecordCacheLookup counts a display cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile flushes the registry to path in the text exposition format.
// The write is atomic (temp file + rename), as required by textfile collectors.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
