package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

const (
	testUserID       = int64(123456789)
	testToolProfile  = "get_user_profile"
	testToolPersonal = "get_personal_event_suggestions"
	testToolJoint    = "get_joint_event_suggestions"
)

// captureAuditLogger returns an audit logger that writes JSON records into
// the returned buffer.
func captureAuditLogger(config AuditLoggingConfig) (*AuditLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewAuditLogger(logger, config), &buf
}

func decodeAuditRecord(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode audit record %q: %v", buf.String(), err)
	}
	return record
}

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation(testToolPersonal).
		WithUser(testUserID).
		WithComponent(ComponentStore, OperationQuery).
		CompleteSuccess()

	if ti.Tool != testToolPersonal {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolPersonal)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should be stamped on creation")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.UserID != testUserID {
		t.Errorf("UserID = %d, want %d", ti.UserID, testUserID)
	}
	if ti.Component != ComponentStore || ti.Operation != OperationQuery {
		t.Errorf("collaborator = %s/%s, want %s/%s", ti.Component, ti.Operation, ComponentStore, OperationQuery)
	}
	if !ti.Success || ti.Error != "" {
		t.Errorf("expected a clean success, got success=%v error=%q", ti.Success, ti.Error)
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolJoint).
		CompleteWithError(errors.New("at least two distinct users required"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "at least two distinct users required" {
		t.Errorf("Error = %q", ti.Error)
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
}

func TestToolInvocation_UserHash(t *testing.T) {
	ti := NewToolInvocation(testToolProfile)

	if hash := ti.UserHash(); hash != "" {
		t.Errorf("UserHash() without a user = %q, want empty", hash)
	}

	ti.WithUser(testUserID)
	if hash := ti.UserHash(); hash != AnonymizeUserID(testUserID) {
		t.Errorf("UserHash() = %q, want %q", hash, AnonymizeUserID(testUserID))
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation(testToolProfile).WithSpanContext(context.Background())

	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("expected empty trace context, got trace_id=%q span_id=%q", ti.TraceID, ti.SpanID)
	}
}

func TestAuditLogger_AnonymizesUser(t *testing.T) {
	al, buf := captureAuditLogger(AuditLoggingConfig{Enabled: true})

	al.LogToolInvocation(NewToolInvocation(testToolPersonal).
		WithUser(testUserID).
		WithComponent(ComponentSearch, OperationSearch).
		CompleteSuccess())

	record := decodeAuditRecord(t, buf)
	if record["msg"] != "tool_executed" {
		t.Errorf("msg = %v, want tool_executed", record["msg"])
	}
	if record["tool"] != testToolPersonal {
		t.Errorf("tool = %v, want %q", record["tool"], testToolPersonal)
	}
	if record["user_hash"] != AnonymizeUserID(testUserID) {
		t.Errorf("user_hash = %v, want %q", record["user_hash"], AnonymizeUserID(testUserID))
	}
	if _, ok := record["user_id"]; ok {
		t.Error("raw user_id must not appear without IncludePII")
	}
	if record["component"] != ComponentSearch || record["operation"] != OperationSearch {
		t.Errorf("collaborator labels = %v/%v", record["component"], record["operation"])
	}
}

func TestAuditLogger_IncludePII(t *testing.T) {
	al, buf := captureAuditLogger(AuditLoggingConfig{Enabled: true, IncludePII: true})

	al.LogToolInvocation(NewToolInvocation(testToolProfile).
		WithUser(testUserID).
		CompleteSuccess())

	record := decodeAuditRecord(t, buf)
	if got := record["user_id"]; got != float64(testUserID) {
		t.Errorf("user_id = %v, want %d", got, testUserID)
	}
	if _, ok := record["user_hash"]; ok {
		t.Error("user_hash should be replaced by the raw id with IncludePII")
	}
}

func TestAuditLogger_FailureLogsWarning(t *testing.T) {
	al, buf := captureAuditLogger(AuditLoggingConfig{Enabled: true})

	al.LogToolInvocation(NewToolInvocation(testToolJoint).
		CompleteWithError(errors.New("team NOPE1234 not found")))

	record := decodeAuditRecord(t, buf)
	if record["msg"] != "tool_failed" {
		t.Errorf("msg = %v, want tool_failed", record["msg"])
	}
	if record["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", record["level"])
	}
	if record["error"] != "team NOPE1234 not found" {
		t.Errorf("error = %v", record["error"])
	}
	if record["success"] != false {
		t.Errorf("success = %v, want false", record["success"])
	}
}

func TestAuditLogger_OmitsUnsetFields(t *testing.T) {
	al, buf := captureAuditLogger(AuditLoggingConfig{Enabled: true})

	al.LogToolInvocation(NewToolInvocation(testToolProfile).CompleteSuccess())

	record := decodeAuditRecord(t, buf)
	for _, key := range []string{"user_hash", "user_id", "component", "operation", "trace_id", "span_id", "error"} {
		if _, ok := record[key]; ok {
			t.Errorf("%s should not be present when unset", key)
		}
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	al, buf := captureAuditLogger(AuditLoggingConfig{Enabled: false})

	al.LogToolInvocation(NewToolInvocation(testToolProfile).CompleteSuccess())

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}
}

func TestNewAuditLogger_NilLogger(t *testing.T) {
	al := NewAuditLogger(nil, AuditLoggingConfig{Enabled: true})
	if al.logger == nil {
		t.Error("nil logger should fall back to slog.Default")
	}
}
