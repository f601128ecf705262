package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

func getCounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.(prometheus.Metric).Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func getGaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.(prometheus.Metric).Write(&m); err != nil {
		return -1
	}
	return m.GetGauge().GetValue()
}

func getHistogramSampleCount(h prometheus.Histogram) uint64 {
	var m dto.Metric
	if err := h.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewMetrics()
		reg := prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			t.Fatalf("Register() returned error: %v", err)
		}

		// Vec metrics only appear once a label set exists.
		m.ruleTriggers.WithLabelValues("Blocked Country").Inc()

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("Gather() returned error: %v", err)
		}
		expected := map[string]bool{
			MetricAnalysesTotal:           false,
			MetricAnalysisErrors:          false,
			MetricAnalysisDuration:        false,
			MetricParseDroppedRows:        false,
			MetricGeneratedConnections:    false,
			MetricRuleTriggers:            false,
			MetricLastSuspiciousUserCount: false,
			MetricLastAnalysisTimestamp:   false,
		}
		for _, family := range families {
			if _, ok := expected[family.GetName()]; ok {
				expected[family.GetName()] = true
			}
		}
		for name, found := range expected {
			if !found {
				t.Errorf("metric %s not found in gathered metrics", name)
			}
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		if err := NewMetrics().Register(reg); err != nil {
			t.Fatalf("first Register() returned error: %v", err)
		}
		if err := NewMetrics().Register(reg); err == nil {
			t.Error("second Register() should have returned an error")
		}
	})
}

func TestMetrics_ObserveAnalysis(t *testing.T) {
	m := NewMetrics()
	result := &models.AnalysisResult{
		SuspiciousUserCount: 4,
		Rules: []models.RuleSummary{
			{Name: "High Call Frequency", Triggered: true, Count: 4},
			{Name: "Odd Hour Activity", Triggered: false},
		},
	}

	m.ObserveAnalysis(result, 0.2, 1700000000)
	m.ObserveAnalysis(result, 0.4, 1700000100)

	if got := getCounterValue(m.analysesTotal); got != 2 {
		t.Errorf("analyses total = %f, want 2", got)
	}
	if got := getHistogramSampleCount(m.analysisDuration); got != 2 {
		t.Errorf("duration samples = %d, want 2", got)
	}
	if got := getGaugeValue(m.lastSuspiciousUserCount); got != 4 {
		t.Errorf("last suspicious users = %f, want 4", got)
	}
	if got := getGaugeValue(m.lastAnalysisTimestamp); got != 1700000100 {
		t.Errorf("last timestamp = %f, want 1700000100", got)
	}
	if got := getCounterValue(m.ruleTriggers.WithLabelValues("High Call Frequency")); got != 2 {
		t.Errorf("frequency triggers = %f, want 2", got)
	}
	if got := getCounterValue(m.ruleTriggers.WithLabelValues("Odd Hour Activity")); got != 0 {
		t.Errorf("odd hour triggers = %f, want 0", got)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.IncAnalysisErrors()
	m.AddParseDroppedRows(3)
	m.AddParseDroppedRows(0)
	m.AddParseDroppedRows(-2)
	m.AddGeneratedConnections(340)

	if got := getCounterValue(m.analysisErrors); got != 1 {
		t.Errorf("analysis errors = %f, want 1", got)
	}
	if got := getCounterValue(m.parseDroppedRows); got != 3 {
		t.Errorf("dropped rows = %f, want 3", got)
	}
	if got := getCounterValue(m.generatedConnections); got != 340 {
		t.Errorf("generated connections = %f, want 340", got)
	}
}
