package instrumentation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user identifiers.

// AnonymizeUserID returns a hashed representation of a chat-platform user id.
// The hash keeps entries correlatable without putting the raw id in metrics
// or general logs.
//
// Note: this intentionally mirrors the logging package's hashing so log and
// metric labels line up; the duplication avoids a circular dependency
// (logging must not import instrumentation).
//
// Example:
//
//	AnonymizeUserID(123456789)  // "user:ab12cd34ef56ab78"
//	AnonymizeUserID(0)          // "unknown"
func AnonymizeUserID(userID int64) string {
	if userID == 0 {
		return "unknown"
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("user:%d", userID)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// Common operation types for collaborator metrics.
// Status and Component constants are defined in config.go.
const (
	OperationGet     = "get"
	OperationUpdate  = "update"
	OperationQuery   = "query"
	OperationIndex   = "index"
	OperationRebuild = "rebuild"
	OperationSearch  = "search"
)
