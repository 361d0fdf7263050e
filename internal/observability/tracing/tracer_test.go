package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartEndSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())
	tracer = otel.Tracer("daily-digest")

	_, ok := StartSpan(context.Background(), "digest.fetch_data", attribute.String("content_type", "60s"))
	EndSpan(ok, nil)

	_, failed := StartSpan(context.Background(), "digest.source_attempt")
	EndSpan(failed, errors.New("upstream returned 503"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	if spans[0].Status.Code == codes.Error {
		t.Error("expected successful span to keep an unset status")
	}
	if len(spans[0].Attributes) != 1 || spans[0].Attributes[0].Value.AsString() != "60s" {
		t.Errorf("expected content_type attribute, got %v", spans[0].Attributes)
	}

	if spans[1].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[1].Status.Code)
	}
	if spans[1].Status.Description != "upstream returned 503" {
		t.Errorf("expected error description, got %q", spans[1].Status.Description)
	}
	if len(spans[1].Events) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}
