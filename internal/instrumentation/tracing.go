package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies this module's tracer on the global provider.
const TracerName = "github.com/outplan/outplan"

// Span attribute keys. The component and operation values match the
// labels on collaborator_operations_total so traces and metrics can be
// correlated.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrComponent = "outplan.component"
	SpanAttrOperation = "outplan.operation"
	SpanAttrUserHash  = "mcp.user_hash"
)

// StartToolSpan starts a server-kind span for an MCP tool invocation.
// Collaborator attributes are attached when component is non-empty. End
// the span with FinishSpan.
func StartToolSpan(ctx context.Context, toolName, component, operation string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}
	if component != "" {
		attrs = append(attrs,
			attribute.String(SpanAttrComponent, component),
			attribute.String(SpanAttrOperation, operation),
		)
	}

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// SetSpanUser tags the span with an anonymized user id. Empty hashes are
// ignored so unscoped tools add no attribute.
func SetSpanUser(span trace.Span, userHash string) {
	if userHash != "" {
		span.SetAttributes(attribute.String(SpanAttrUserHash, userHash))
	}
}

// FinishSpan records the outcome on the span and ends it. A tool can fail
// in-band (success false, err nil) and the span still gets an error
// status.
func FinishSpan(span trace.Span, success bool, err error) {
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !success:
		span.SetStatus(codes.Error, "tool returned an error result")
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
