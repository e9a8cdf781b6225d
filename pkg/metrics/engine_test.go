package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEngineMetrics(reg)
	metrics.IncOrdersSettled()
	metrics.IncOrdersSettled()
	metrics.IncPurchasesReceived()
	metrics.IncReturnsProcessed("partial")
	metrics.IncTillOpened()
	metrics.IncTillClosed()
	metrics.ObserveRequest("POST", "/api/v1/checkout", "200", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := plainCounterValue(t, mfs, "orders_settled_total"); got != 2 {
		t.Fatalf("expected orders_settled_total=2, got %f", got)
	}
	if got := plainCounterValue(t, mfs, "purchases_received_total"); got != 1 {
		t.Fatalf("expected purchases_received_total=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "returns_processed_total", "type", "partial"); err != nil {
		t.Fatalf("fetch returns: %v", err)
	} else if got != 1 {
		t.Fatalf("expected returns_processed_total=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "till_sessions_total", "event", "opened"); err != nil {
		t.Fatalf("fetch till opened: %v", err)
	} else if got != 1 {
		t.Fatalf("expected till_sessions_total{opened}=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/checkout"); err != nil {
		t.Fatalf("fetch request duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var metrics *EngineMetrics
	metrics.IncOrdersSettled()
	metrics.IncReturnsProcessed("")
	metrics.ObserveRequest("", "", "", 0)

	empty := NewEngineMetrics(nil)
	empty.IncPurchasesReceived()
	empty.IncTillOpened()
	empty.IncTillClosed()
}

func plainCounterValue(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric %q not found", name)
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("expected a single series for %q", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
