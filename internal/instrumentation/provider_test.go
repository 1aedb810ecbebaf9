package instrumentation

import (
	"context"
	"strings"
	"testing"
	"time"
)

// testConfig returns an enabled config with the given exporters, leaving
// the environment-driven defaults out of the picture.
func testConfig(metricsExporter, tracingExporter string) Config {
	return Config{
		ServiceName:       "outplan-test",
		ServiceVersion:    "0.0.0",
		Enabled:           true,
		MetricsExporter:   metricsExporter,
		TracingExporter:   tracingExporter,
		TraceSamplingRate: 0.1,
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected a no-op metrics recorder when disabled")
	}
	if provider.Tracer("planner") == nil {
		t.Error("expected a no-op tracer when disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "prometheus metrics without tracing",
			config: testConfig(ExporterPrometheus, ExporterNone),
		},
		{
			name:   "stdout metrics and traces",
			config: testConfig(ExporterStdout, ExporterStdout),
		},
		{
			name:    "unknown metrics exporter",
			config:  testConfig("carrier-pigeon", ExporterNone),
			wantErr: "invalid metrics exporter",
		},
		{
			name:    "unknown tracing exporter",
			config:  testConfig(ExporterPrometheus, "carrier-pigeon"),
			wantErr: "invalid tracing exporter",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  testConfig(ExporterOTLP, ExporterNone),
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp tracing without endpoint",
			config:  testConfig(ExporterPrometheus, ExporterOTLP),
			wantErr: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, tt.config)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer func() { _ = provider.Shutdown(ctx) }()

			if !provider.Enabled() {
				t.Error("expected provider to be enabled")
			}
			if provider.Metrics() == nil {
				t.Error("expected metrics recorder to be non-nil")
			}
			if provider.Tracer("planner") == nil {
				t.Error("expected tracer to be non-nil")
			}
		})
	}
}

func TestNewProvider_InvalidSamplingRate(t *testing.T) {
	config := testConfig(ExporterPrometheus, ExporterNone)
	config.TraceSamplingRate = 1.5

	_, err := NewProvider(context.Background(), config)
	if err == nil {
		t.Fatal("expected an error for an out-of-range sampling rate")
	}
	if !strings.Contains(err.Error(), "sampling rate") {
		t.Errorf("error %q does not mention the sampling rate", err)
	}
}

func TestProvider_Shutdown(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, testConfig(ExporterPrometheus, ExporterNone))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}
