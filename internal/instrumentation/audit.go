package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation is one audit record for an MCP tool call. Build it with
// NewToolInvocation and the With* setters, then finish it with one of the
// Complete methods before handing it to the AuditLogger.
//
// UserID is the caller's chat-platform id and counts as PII. General logs
// carry only the hash from UserHash; the raw id appears solely when the
// audit logger is configured with IncludePII.
type ToolInvocation struct {
	Tool string

	// UserID is 0 for tools that are not user-scoped.
	UserID int64

	// Component and Operation name the collaborator call behind the tool,
	// matching the labels on collaborator_operations_total.
	Component string
	Operation string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts an audit record for the named tool.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithUser records the acting user.
func (ti *ToolInvocation) WithUser(userID int64) *ToolInvocation {
	ti.UserID = userID
	return ti
}

// WithComponent records the collaborator and operation the tool exercises.
func (ti *ToolInvocation) WithComponent(component, operation string) *ToolInvocation {
	ti.Component = component
	ti.Operation = operation
	return ti
}

// WithSpanContext links the record to the active trace, if any.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stamps the duration and outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// UserHash returns the anonymized user id used for metrics and general
// logs, or "" when the invocation carries no user.
func (ti *ToolInvocation) UserHash() string {
	if ti.UserID == 0 {
		return ""
	}
	return AnonymizeUserID(ti.UserID)
}

// Status maps the outcome onto the metric status label.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// attrs renders the record for slog. With includePII the raw user id is
// emitted; otherwise only its hash.
func (ti *ToolInvocation) attrs(includePII bool) []any {
	attrs := []any{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	switch {
	case ti.UserID == 0:
	case includePII:
		attrs = append(attrs, slog.Int64("user_id", ti.UserID))
	default:
		attrs = append(attrs, slog.String("user_hash", ti.UserHash()))
	}

	if ti.Component != "" {
		attrs = append(attrs, slog.String("component", ti.Component))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// AuditLogger writes the tool invocation audit trail through slog.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger builds an audit logger. A nil logger falls back to
// slog.Default. When config.IncludePII is set, records carry raw user
// ids; route such logs to access-controlled storage.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation writes one audit record. Successful invocations log
// at info, failures at warn.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	if ti.Success {
		al.logger.Info("tool_executed", ti.attrs(al.includePII)...)
	} else {
		al.logger.Warn("tool_failed", ti.attrs(al.includePII)...)
	}
}
