package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Attribute keys shared across the codebase so log lines stay greppable.
const (
	KeyOperation = "operation"
	KeyUserHash  = "user_hash"
	KeyTeam      = "team"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values mirror the instrumentation package's metric labels. They are
// declared here too because instrumentation imports logging, not the other
// way around.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger that tags every record with the operation.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Team returns a slog attribute for a team join code. Join codes are
// randomly generated and safe to log.
func Team(code string) slog.Attr {
	return slog.String(KeyTeam, code)
}

// Status returns a slog attribute for an operation outcome.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error. A nil error yields an empty
// group, which slog omits, so call sites can pass a maybe-nil error without
// branching.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeUserID hashes a chat-platform user id for logging. The ids are
// PII; the hash still lets entries for one user be correlated. The same
// derivation is used for metric labels in the instrumentation package.
func AnonymizeUserID(userID int64) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("user:%d", userID)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute carrying the anonymized user id.
func UserHash(userID int64) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUserID(userID))
}
