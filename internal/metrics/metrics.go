// Package metrics provides the Prometheus collectors of the analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// Metric names.
const (
	MetricAnalysesTotal           = "cdrguard_analyses_total"
	MetricAnalysisErrors          = "cdrguard_analysis_errors_total"
	MetricAnalysisDuration        = "cdrguard_analysis_duration_seconds"
	MetricParseDroppedRows        = "cdrguard_parse_dropped_rows_total"
	MetricGeneratedConnections    = "cdrguard_generated_connections_total"
	MetricRuleTriggers            = "cdrguard_rule_triggers_total"
	MetricLastSuspiciousUserCount = "cdrguard_last_suspicious_user_count"
	MetricLastAnalysisTimestamp   = "cdrguard_last_analysis_timestamp"
)

// Metrics contains the Prometheus metrics of analysis runs.
// All operations are thread-safe.
type Metrics struct {
	analysesTotal           prometheus.Counter
	analysisErrors          prometheus.Counter
	analysisDuration        prometheus.Histogram
	parseDroppedRows        prometheus.Counter
	generatedConnections    prometheus.Counter
	ruleTriggers            *prometheus.CounterVec
	lastSuspiciousUserCount prometheus.Gauge
	lastAnalysisTimestamp   prometheus.Gauge
}

// NewMetrics creates a Metrics instance. The metrics are not registered; call
// Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		analysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricAnalysesTotal,
			Help: "Total number of completed CDR analyses",
		}),
		analysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricAnalysisErrors,
			Help: "Total number of analyses rejected because of invalid input",
		}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricAnalysisDuration,
			Help:    "Histogram of analysis duration in seconds, parsing included",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		parseDroppedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricParseDroppedRows,
			Help: "Total number of CSV rows dropped while parsing",
		}),
		generatedConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricGeneratedConnections,
			Help: "Total number of synthetic connections generated",
		}),
		ruleTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRuleTriggers,
			Help: "Total number of analyses in which a rule triggered",
		}, []string{"rule"}),
		lastSuspiciousUserCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastSuspiciousUserCount,
			Help: "Number of suspicious users found by the last analysis",
		}),
		lastAnalysisTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastAnalysisTimestamp,
			Help: "Unix timestamp of the last completed analysis",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveAnalysis records a completed analysis.
func (m *Metrics) ObserveAnalysis(result *models.AnalysisResult, seconds float64, finishedUnix float64) {
	m.analysesTotal.Inc()
	m.analysisDuration.Observe(seconds)
	m.lastAnalysisTimestamp.Set(finishedUnix)
	if result == nil {
		return
	}
	m.lastSuspiciousUserCount.Set(float64(result.SuspiciousUserCount))
	for _, r := range result.Rules {
		if r.Triggered {
			m.ruleTriggers.WithLabelValues(r.Name).Inc()
		}
	}
}

// IncAnalysisErrors increments the analysis errors counter.
func (m *Metrics) IncAnalysisErrors() {
	m.analysisErrors.Inc()
}

// AddParseDroppedRows adds n dropped rows.
func (m *Metrics) AddParseDroppedRows(n int) {
	if n > 0 {
		m.parseDroppedRows.Add(float64(n))
	}
}

// AddGeneratedConnections adds n generated connections.
func (m *Metrics) AddGeneratedConnections(n int) {
	if n > 0 {
		m.generatedConnections.Add(float64(n))
	}
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.analysesTotal,
		m.analysisErrors,
		m.analysisDuration,
		m.parseDroppedRows,
		m.generatedConnections,
		m.ruleTriggers,
		m.lastSuspiciousUserCount,
		m.lastAnalysisTimestamp,
	}
}
