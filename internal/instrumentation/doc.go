// Package instrumentation wires OpenTelemetry metrics, tracing, and audit
// logging into the outplan MCP server.
//
// # Metrics
//
// Collaborator metrics cover the store and the search index:
//   - collaborator_operations_total: operations by component, operation, status
//   - collaborator_operation_duration_seconds: operation latency
//   - search_indexed_events_total: events written to the search index
//
// Tool metrics cover the MCP surface:
//   - mcp_tool_invocations_total: invocations by tool name and status
//   - mcp_tool_duration_seconds: tool execution latency
//
// With detailed labels enabled, tool invocations additionally carry an
// anonymized user_hash attribute. See cardinality.go for the label budget
// these metrics are held to.
//
// # Tracing
//
// Each instrumented tool invocation runs inside a span named tool.<name>
// carrying the collaborator component and operation as attributes. The
// span's trace and span ids also appear in the audit log record for the
// same invocation, so a log line can be joined to its trace.
//
// # Audit logging
//
// AuditLogger emits one structured record per tool invocation. User ids are
// anonymized by default; raw ids appear only when PII logging is switched on
// explicitly.
//
// # Configuration
//
// DefaultConfig reads the environment:
//   - INSTRUMENTATION_ENABLED: enable or disable the whole stack (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate between 0.0 and 1.0 (default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: outplan)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII: audit log behavior
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordCollaboratorOperation(ctx, "store", "query", "success", time.Since(start))
//	recorder.RecordToolInvocation(ctx, "get_personal_event_suggestions", "success", time.Since(start))
package instrumentation
