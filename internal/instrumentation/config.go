package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
)

// Config controls the telemetry pipeline of the planning service. The
// zero value is not usable; start from DefaultConfig, which reads the
// standard OTEL_* environment variables and the service-specific knobs
// documented on each field.
type Config struct {
	// ServiceName identifies the service in exported telemetry
	// (OTEL_SERVICE_NAME, default "outplan").
	ServiceName string

	// ServiceVersion is stamped on every exported resource. The serve
	// command fills it in from the build version.
	ServiceVersion string

	// ServiceInstanceID distinguishes replicas (OTEL_SERVICE_INSTANCE_ID).
	// Empty means "use the hostname", which under Kubernetes is the pod
	// name.
	ServiceInstanceID string

	// K8sNamespace and K8sPodName annotate telemetry with Kubernetes
	// metadata when running in a cluster (K8S_NAMESPACE / POD_NAMESPACE,
	// K8S_POD_NAME / HOSTNAME).
	K8sNamespace string
	K8sPodName   string

	// Enabled switches the whole pipeline on or off
	// (INSTRUMENTATION_ENABLED, default true). When false the provider
	// hands out no-op recorders.
	Enabled bool

	// MetricsExporter selects where metrics go: "prometheus", "otlp" or
	// "stdout" (METRICS_EXPORTER, default "prometheus").
	MetricsExporter string

	// TracingExporter selects where spans go: "otlp", "stdout" or "none"
	// (TRACING_EXPORTER, default "none").
	TracingExporter string

	// OTLPEndpoint is the OTLP collector address without a scheme, e.g.
	// "localhost:4318" (OTEL_EXPORTER_OTLP_ENDPOINT). Required when
	// either exporter is "otlp".
	OTLPEndpoint string

	// OTLPInsecure exports over plaintext HTTP
	// (OTEL_EXPORTER_OTLP_INSECURE, default false). Spans carry tool
	// names and team codes; only use this against a local collector.
	OTLPInsecure bool

	// TraceSamplingRate is the head sampling ratio in [0, 1]
	// (OTEL_TRACES_SAMPLER_ARG, default 0.1).
	TraceSamplingRate float64

	// PrometheusEndpoint is the scrape path served by the metrics
	// sidecar (PROMETHEUS_ENDPOINT, default "/metrics").
	PrometheusEndpoint string

	// DetailedLabels adds high-cardinality labels such as the hashed
	// user id to tool metrics (METRICS_DETAILED_LABELS, default false).
	// Leave it off in production.
	DetailedLabels bool

	// AuditLogging configures the tool invocation audit trail.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit trail written for every MCP tool
// invocation.
type AuditLoggingConfig struct {
	// Enabled turns the audit trail on (AUDIT_LOGGING_ENABLED, default
	// true).
	Enabled bool

	// IncludePII logs raw user ids instead of anonymized hashes
	// (AUDIT_LOGGING_INCLUDE_PII, default false). Only enable when the
	// audit log is routed to access-controlled storage.
	IncludePII bool

	// LogLevel is the slog level for audit records
	// (AUDIT_LOGGING_LEVEL, default "info").
	LogLevel string
}

// DefaultConfig builds a Config from the environment, falling back to
// production-safe defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:        envString("OTEL_SERVICE_NAME", "outplan"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  envString("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       envString("K8S_NAMESPACE", envString("POD_NAMESPACE", "")),
		K8sPodName:         envString("K8S_POD_NAME", envString("HOSTNAME", "")),
		Enabled:            envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: envString("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     envBool("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envBool("AUDIT_LOGGING_ENABLED", true),
			IncludePII: envBool("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   envString("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate reports the first configuration problem found. Empty exporter
// names are tolerated here; the provider treats them as unsupported.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	if c.MetricsExporter != "" && !slices.Contains([]string{ExporterPrometheus, ExporterOTLP, ExporterStdout}, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	if c.TracingExporter != "" && !slices.Contains([]string{ExporterOTLP, ExporterStdout, ExporterNone}, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
	}
	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
	}

	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool and envFloat fall back on unset and on unparseable values.
func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// Label values and exporter names shared across the package.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Collaborator components, used as the "component" label on
	// collaborator operation metrics.
	ComponentStore  = "store"
	ComponentSearch = "search"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
