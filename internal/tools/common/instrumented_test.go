package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc := server.NewServerContext(context.Background(), server.Options{})
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func withNoopMetrics(t *testing.T, sc *server.ServerContext) {
	t.Helper()
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := instrumentation.NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	sc.SetMetrics(metrics)
}

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func textHandler(text string, called *bool) ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if called != nil {
			*called = true
		}
		return mcp.NewToolResultText(text), nil
	}
}

func TestInstrumentedToolHandler_PassthroughWithoutInstrumentation(t *testing.T) {
	sc := newTestServerContext(t)

	called := false
	wrapped := InstrumentedToolHandler("get_user_profile", sc, textHandler("ok", &called))

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner handler was not called")
	}
	if result == nil || result.IsError {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestInstrumentedToolHandler_PropagatesError(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wantErr := errors.New("store unavailable")
	wrapped := InstrumentedToolHandler("get_user_profile", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestInstrumentedToolHandler_PreservesErrorResult(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wrapped := InstrumentedToolHandler("get_joint_event_suggestions", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("at least two distinct users required"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Errorf("expected in-band error result, got %+v", result)
	}
}

func TestInstrumentedToolHandlerWithComponent_RecordsMetrics(t *testing.T) {
	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	called := false
	wrapped := InstrumentedToolHandlerWithComponent(
		"search_events", instrumentation.ComponentSearch, instrumentation.OperationSearch, sc,
		textHandler("[]", &called))

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || result == nil {
		t.Errorf("called=%v result=%+v", called, result)
	}
	// The noop meter accepts the recorded tool and collaborator samples
	// without exposing them; this covers the recording path end to end.
}

func TestInstrumentedToolHandlerWithComponent_EmitsSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wrapped := InstrumentedToolHandlerWithComponent(
		"search_events", instrumentation.ComponentSearch, instrumentation.OperationSearch, sc,
		textHandler("[]", nil))

	if _, err := wrapped(context.Background(), mcp.CallToolRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	span := ended[0]
	if span.Name() != "tool.search_events" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", span.Status().Code)
	}

	attrs := make(map[string]string)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[instrumentation.SpanAttrComponent] != instrumentation.ComponentSearch {
		t.Errorf("component attr = %q", attrs[instrumentation.SpanAttrComponent])
	}
	if attrs[instrumentation.SpanAttrOperation] != instrumentation.OperationSearch {
		t.Errorf("operation attr = %q", attrs[instrumentation.SpanAttrOperation])
	}
}

func TestInstrumentedToolHandlerWithComponent_SpanErrorStatus(t *testing.T) {
	recorder := withSpanRecorder(t)

	sc := newTestServerContext(t)
	withNoopMetrics(t, sc)

	wrapped := InstrumentedToolHandlerWithComponent(
		"update_user_profile", instrumentation.ComponentStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("write failed")
		})

	if _, err := wrapped(context.Background(), mcp.CallToolRequest{}); err == nil {
		t.Fatal("expected handler error")
	}

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", ended[0].Status().Code)
	}
}
