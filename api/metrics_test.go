package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return exporter
}

func TestTaskRequestMetricsEmitsEvent(t *testing.T) {
	exporter := newRecordingTracer(t)
	logger, hook := test.NewNullLogger()

	metrics, ctx := newTaskRequestMetrics(context.Background(), logger)
	if ctx == nil {
		t.Fatal("expected span context")
	}
	metrics.ObserveAuth(2 * time.Millisecond)
	metrics.ObserveFetch(5 * time.Millisecond)
	metrics.ObserveEncode(time.Millisecond)
	metrics.SetTasksReturned(3)
	metrics.Log(http.StatusOK, nil)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected an observability event to be logged")
	}
	if entry.Message != "observability.event" {
		t.Fatalf("unexpected message: %q", entry.Message)
	}
	if entry.Data["event.name"] != tasksEventName {
		t.Fatalf("unexpected event name: %v", entry.Data["event.name"])
	}
	if entry.Data["event.domain"] != tasksEventDomain {
		t.Fatalf("unexpected event domain: %v", entry.Data["event.domain"])
	}

	attrs, ok := entry.Data["attributes"].(map[string]any)
	if !ok {
		t.Fatalf("attributes missing or wrong type: %T", entry.Data["attributes"])
	}
	if attrs["http.route"] != tasksRoute {
		t.Fatalf("unexpected route: %v", attrs["http.route"])
	}
	if attrs["http.status_code"] != http.StatusOK {
		t.Fatalf("unexpected status: %v", attrs["http.status_code"])
	}
	if attrs["taskflow.tasks.returned"] != 3 {
		t.Fatalf("unexpected returned count: %v", attrs["taskflow.tasks.returned"])
	}
	if _, present := attrs["taskflow.tasks.auth_ms"]; !present {
		t.Fatal("auth timing missing")
	}
	if _, present := attrs["taskflow.tasks.error_stage"]; present {
		t.Fatal("error stage should be absent on success")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name != "GET "+tasksRoute {
		t.Fatalf("unexpected span name: %q", spans[0].Name)
	}
}

func TestTaskRequestMetricsRecordsFailure(t *testing.T) {
	newRecordingTracer(t)
	logger, hook := test.NewNullLogger()

	metrics, _ := newTaskRequestMetrics(context.Background(), logger)
	metrics.SetErrorStage("storage")
	metrics.Log(http.StatusInternalServerError, errors.New("table offline"))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected an observability event to be logged")
	}
	if entry.Data["error"] != "table offline" {
		t.Fatalf("unexpected error field: %v", entry.Data["error"])
	}
	attrs := entry.Data["attributes"].(map[string]any)
	if attrs["taskflow.tasks.error_stage"] != "storage" {
		t.Fatalf("unexpected error stage: %v", attrs["taskflow.tasks.error_stage"])
	}
}

func TestTaskRequestMetricsIgnoresNonPositiveObservations(t *testing.T) {
	newRecordingTracer(t)
	logger, hook := test.NewNullLogger()

	metrics, _ := newTaskRequestMetrics(context.Background(), logger)
	metrics.ObserveAuth(0)
	metrics.ObserveFetch(-time.Second)
	metrics.SetTasksReturned(-1)
	metrics.Log(http.StatusOK, nil)

	attrs := hook.LastEntry().Data["attributes"].(map[string]any)
	if _, present := attrs["taskflow.tasks.auth_ms"]; present {
		t.Fatal("zero auth duration should not be reported")
	}
	if _, present := attrs["taskflow.tasks.fetch_ms"]; present {
		t.Fatal("negative fetch duration should not be reported")
	}
	if attrs["taskflow.tasks.returned"] != 0 {
		t.Fatalf("negative count should clamp to zero, got %v", attrs["taskflow.tasks.returned"])
	}
}
