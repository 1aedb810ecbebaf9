package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrComponent = "component"
	attrTool      = "tool"
	attrUserHash  = "user_hash"
)

// Metrics records the service's observability metrics. The zero value is
// a no-op recorder; every method tolerates uninitialized instruments so
// callers never guard recording behind an Enabled check.
type Metrics struct {
	// Collaborator metrics (store and search operations)
	collaboratorOpsTotal     metric.Int64Counter
	collaboratorOpDuration   metric.Float64Histogram
	searchIndexedEventsTotal metric.Int64Counter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the hashed user id to tool metrics. High
	// cardinality; off in production.
	detailedLabels bool
}

// NewMetrics registers the service's instruments on the given meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}
	var errs []error

	counter := func(name, description, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(description),
			metric.WithUnit(unit),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s counter: %w", name, err))
		}
		return c
	}
	durationHistogram := func(name, description string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name,
			metric.WithDescription(description),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s histogram: %w", name, err))
		}
		return h
	}

	m.collaboratorOpsTotal = counter("collaborator_operations_total",
		"Total number of store and search operations", "{operation}")
	m.collaboratorOpDuration = durationHistogram("collaborator_operation_duration_seconds",
		"Store and search operation duration in seconds")
	m.searchIndexedEventsTotal = counter("search_indexed_events_total",
		"Total number of events written to the search index", "{event}")
	m.toolInvocationsTotal = counter("mcp_tool_invocations_total",
		"Total number of MCP tool invocations", "{invocation}")
	m.toolDuration = durationHistogram("mcp_tool_duration_seconds",
		"MCP tool execution duration in seconds")

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// RecordCollaboratorOperation counts one store or search operation. The
// component and operation values come from the Component* and Operation*
// constants to keep label cardinality bounded.
func (m *Metrics) RecordCollaboratorOperation(ctx context.Context, component, operation, status string, duration time.Duration) {
	if m.collaboratorOpsTotal == nil || m.collaboratorOpDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrComponent, component),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.collaboratorOpsTotal.Add(ctx, 1, attrs)
	m.collaboratorOpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordIndexedEvents counts events written to the search index.
func (m *Metrics) RecordIndexedEvents(ctx context.Context, count int) {
	if m.searchIndexedEventsTotal == nil {
		return
	}

	m.searchIndexedEventsTotal.Add(ctx, int64(count))
}

// RecordToolInvocation counts one MCP tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithUser(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithUser counts one MCP tool invocation attributed
// to a hashed user id. The user label is only emitted when detailed
// labels are enabled.
func (m *Metrics) RecordToolInvocationWithUser(ctx context.Context, toolName, status, userHash string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && userHash != "" {
		attrs = append(attrs, attribute.String(attrUserHash, userHash))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
