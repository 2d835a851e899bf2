package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// triage pipeline.
type Metrics struct {
	ReportsIngested  *prometheus.CounterVec // labels: source
	ReportsProcessed prometheus.Counter
	ReportsFailed    prometheus.Counter

	CandidatesCreated prometheus.Counter
	CandidatesUpdated prometheus.Counter
	Decisions         *prometheus.CounterVec // labels: decision={VERIFY,REJECT}

	QueueDepth         prometheus.Gauge
	WorkerRunning      prometheus.Gauge
	ProcessingDuration prometheus.Histogram
	SensorMatches      prometheus.Histogram

	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	EventsBroadcast *prometheus.CounterVec // labels: type={CANDIDATE,DECISION}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsIngested,
		m.ReportsProcessed,
		m.ReportsFailed,
		m.CandidatesCreated,
		m.CandidatesUpdated,
		m.Decisions,
		m.QueueDepth,
		m.WorkerRunning,
		m.ProcessingDuration,
		m.SensorMatches,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.EventsBroadcast,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "reports_ingested_total",
			Help:      "Reports accepted at the ingestion boundary, by source channel.",
		}, []string{"source"}),
		ReportsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "reports_processed_total",
			Help:      "Communications the dispatch worker processed to completion.",
		}),
		ReportsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "reports_failed_total",
			Help:      "Communications that failed mid-pipeline and were skipped.",
		}),
		CandidatesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "candidates_created_total",
			Help:      "New PENDING alert candidates.",
		}),
		CandidatesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "candidates_updated_total",
			Help:      "Evidence merges into existing PENDING candidates.",
		}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "decisions_total",
			Help:      "Verification decisions by outcome.",
		}, []string{"decision"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alert_triage",
			Name:      "queue_depth",
			Help:      "Communications waiting in the dispatch queue.",
		}),
		WorkerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alert_triage",
			Name:      "worker_running",
			Help:      "1 when the dispatch worker is active, 0 when shut down.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alert_triage",
			Name:      "processing_duration_seconds",
			Help:      "Duration of a complete pipeline run for one communication.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		SensorMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alert_triage",
			Name:      "sensor_matches",
			Help:      "Corroborating sensor matches per processed communication.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		EventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_triage",
			Name:      "events_broadcast_total",
			Help:      "Events pushed to live subscribers, by type.",
		}, []string{"type"}),
	}
}
