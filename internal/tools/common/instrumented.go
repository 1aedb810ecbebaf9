package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/server"
)

// ToolHandlerFunc matches the mcp-go tool handler signature.
type ToolHandlerFunc = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with invocation metrics and
// audit logging. When the request carries a userId argument the invocation
// is attributed to that user (hashed in metrics and general logs).
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return instrumented(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithComponent additionally attributes the tool to
// the collaborator operation behind it, so the invocation shows up both in
// mcp_tool_invocations_total and collaborator_operations_total.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithComponent(
//		"my_tool", instrumentation.ComponentStore, instrumentation.OperationQuery, sc, handler))
func InstrumentedToolHandlerWithComponent(toolName, component, operation string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return instrumented(toolName, component, operation, sc, handler)
}

func instrumented(toolName, component, operation string, sc *server.ServerContext, handler ToolHandlerFunc) ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, component, operation)
		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if component != "" {
			invocation.WithComponent(component, operation)
		}
		if userID, err := UserIDFromArgs(request.GetArguments(), "userId"); err == nil {
			invocation.WithUser(userID)
			instrumentation.SetSpanUser(span, invocation.UserHash())
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		// A handler that returns an in-band tool error (result.IsError)
		// counts as failed even though the Go error is nil.
		switch {
		case err != nil:
			invocation.CompleteWithError(err)
		case result != nil && result.IsError:
			invocation.Complete(false, nil)
		default:
			invocation.CompleteSuccess()
		}
		instrumentation.FinishSpan(span, invocation.Success, err)

		if metrics != nil {
			metrics.RecordToolInvocationWithUser(ctx, toolName, invocation.Status(), invocation.UserHash(), duration)
			if component != "" {
				metrics.RecordCollaboratorOperation(ctx, component, operation, invocation.Status(), duration)
			}
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
