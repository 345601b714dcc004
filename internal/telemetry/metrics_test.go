package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m.WebhookTotal == nil {
		t.Error("WebhookTotal should not be nil")
	}
	if m.CompletionTotal == nil {
		t.Error("CompletionTotal should not be nil")
	}
	if m.CompletionDurationMs == nil {
		t.Error("CompletionDurationMs should not be nil")
	}
	if m.SendTotal == nil {
		t.Error("SendTotal should not be nil")
	}
	if m.SMSTotal == nil {
		t.Error("SMSTotal should not be nil")
	}
	if m.BookingTotal == nil {
		t.Error("BookingTotal should not be nil")
	}
}

func TestRecordCompletion(t *testing.T) {
	// Use a fresh registry to avoid polluting the default one
	reg := prometheus.NewRegistry()

	completionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_relay_completion_total",
		Help: "Test counter",
	}, []string{"model", "status"})

	durationMs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_relay_completion_duration_ms",
		Help:    "Test histogram",
		Buckets: []float64{100, 500, 1000},
	}, []string{"model"})

	reg.MustRegister(completionTotal, durationMs)

	m := &Metrics{
		CompletionTotal:      completionTotal,
		CompletionDurationMs: durationMs,
	}

	m.RecordCompletion("gpt-3.5-turbo", "ok", 420)
	m.RecordCompletion("gpt-3.5-turbo", "ok", 210)
	m.RecordCompletion("gpt-3.5-turbo", "error", 5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	var counterFamily, histFamily *dto.MetricFamily
	for _, f := range families {
		switch f.GetName() {
		case "test_relay_completion_total":
			counterFamily = f
		case "test_relay_completion_duration_ms":
			histFamily = f
		}
	}

	if counterFamily == nil {
		t.Fatal("completion counter not gathered")
	}

	var okCount float64
	for _, metric := range counterFamily.Metric {
		for _, label := range metric.Label {
			if label.GetName() == "status" && label.GetValue() == "ok" {
				okCount = metric.Counter.GetValue()
			}
		}
	}
	if okCount != 2 {
		t.Errorf("expected 2 ok completions, got %v", okCount)
	}

	if histFamily == nil {
		t.Fatal("duration histogram not gathered")
	}
	if histFamily.Metric[0].Histogram.GetSampleCount() != 3 {
		t.Errorf("expected 3 histogram samples, got %d", histFamily.Metric[0].Histogram.GetSampleCount())
	}
}

func TestRecordWebhook(t *testing.T) {
	reg := prometheus.NewRegistry()

	webhookTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_relay_webhook_total",
		Help: "Test counter",
	}, []string{"endpoint", "outcome"})
	reg.MustRegister(webhookTotal)

	m := &Metrics{WebhookTotal: webhookTotal}
	m.RecordWebhook("messenger", "relayed")
	m.RecordWebhook("messenger", "no_text")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 1 || len(families[0].Metric) != 2 {
		t.Errorf("expected 2 labeled series, got %+v", families)
	}
}
