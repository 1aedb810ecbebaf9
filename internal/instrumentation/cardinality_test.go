package instrumentation

import (
	"strings"
	"testing"
)

func TestAnonymizeUserID(t *testing.T) {
	hash := AnonymizeUserID(testUserID)

	if !strings.HasPrefix(hash, "user:") {
		t.Errorf("AnonymizeUserID(%d) = %q, want 'user:' prefix", testUserID, hash)
	}
	// "user:" plus 8 hex-encoded bytes
	if len(hash) != len("user:")+16 {
		t.Errorf("AnonymizeUserID(%d) length = %d, want %d", testUserID, len(hash), len("user:")+16)
	}

	// Same id always hashes the same
	if again := AnonymizeUserID(testUserID); again != hash {
		t.Errorf("AnonymizeUserID not deterministic: %q vs %q", hash, again)
	}

	// Distinct ids hash differently
	if other := AnonymizeUserID(testUserID + 1); other == hash {
		t.Errorf("distinct user ids produced the same hash %q", hash)
	}
}

func TestAnonymizeUserID_Zero(t *testing.T) {
	if result := AnonymizeUserID(0); result != "unknown" {
		t.Errorf("AnonymizeUserID(0) = %q, want %q", result, "unknown")
	}
}

func TestOperationConstants(t *testing.T) {
	operations := map[string]string{
		OperationGet:     "get",
		OperationUpdate:  "update",
		OperationQuery:   "query",
		OperationIndex:   "index",
		OperationRebuild: "rebuild",
		OperationSearch:  "search",
	}

	for constant, expected := range operations {
		if constant != expected {
			t.Errorf("Operation constant = %q, want %q", constant, expected)
		}
	}
}
