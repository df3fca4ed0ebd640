package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "host and port", endpoint: "localhost:4318"},
		{name: "full URL", endpoint: "https://collector.example.com:4318/v1/traces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := NewProvider(ctx, Options{ServiceName: "dashcollect-test", Endpoint: tt.endpoint})
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if err := Shutdown(ctx, tp); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	t.Run("shutdown with nil provider", func(t *testing.T) {
		if err := Shutdown(context.Background(), nil); err != nil {
			t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
		}
	})
}

func TestNewResource_RunAttributes(t *testing.T) {
	res, err := newResource(context.Background(), Options{
		ServiceName: "dashcollect",
		Command:     "host",
		RunID:       "run-123",
	})
	if err != nil {
		t.Fatalf("newResource() error = %v", err)
	}

	want := map[attribute.Key]string{
		semconv.ServiceNameKey: "dashcollect",
		AttrCommand:            "host",
		AttrRunID:              "run-123",
	}
	set := res.Set()
	for key, value := range want {
		got, ok := set.Value(key)
		if !ok || got.AsString() != value {
			t.Errorf("Expected %s=%q, got %q (present %v)", key, value, got.AsString(), ok)
		}
	}
}

func TestNewResource_OmitsEmptyRunAttributes(t *testing.T) {
	res, err := newResource(context.Background(), Options{ServiceName: "dashcollect"})
	if err != nil {
		t.Fatalf("newResource() error = %v", err)
	}
	if _, ok := res.Set().Value(AttrRunID); ok {
		t.Error("Expected no run id attribute when none is set")
	}
}

func TestExporterOptions(t *testing.T) {
	if got := len(exporterOptions("localhost:4318")); got != 2 {
		t.Errorf("Expected endpoint and insecure options for host:port, got %d", got)
	}
	if got := len(exporterOptions("https://collector:4318")); got != 1 {
		t.Errorf("Expected a single endpoint URL option, got %d", got)
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		endpoint string
		wantLog  string
	}{
		{name: "disabled", enabled: false},
		{name: "enabled without endpoint", enabled: true, wantLog: "otel_enabled_but_endpoint_not_configured"},
		{name: "enabled", enabled: true, endpoint: "localhost:4318", wantLog: "otel_tracer_initialized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			logger := zap.New(core)

			shutdown := Setup(context.Background(), Options{
				Enabled:     tt.enabled,
				ServiceName: "dashcollect-test",
				Endpoint:    tt.endpoint,
				Command:     "activity",
				RunID:       "run-1",
			}, logger)
			if shutdown == nil {
				t.Fatal("Setup must always return a shutdown function")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				t.Errorf("shutdown() error = %v", err)
			}

			if tt.wantLog == "" {
				if logs.Len() != 0 {
					t.Errorf("Expected no logs, got %d", logs.Len())
				}
				return
			}
			if logs.FilterMessage(tt.wantLog).Len() != 1 {
				t.Errorf("Expected log %q, got %v", tt.wantLog, logs.All())
			}
		})
	}
}
