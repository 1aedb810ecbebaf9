package batch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the per-id result of one step in a batch tool call.
type Outcome struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the outcomes of a batch tool call. Partial failure is
// normal: callers inspect Failed and the per-id outcomes rather than a
// single error.
type Summary struct {
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Results    []Outcome `json:"results"`
}

// ParseIDs normalizes a tool argument holding one or more ids. The tool
// surface accepts either an array of strings or a flat string, and flat
// strings follow the comma-separated convention used by the list-valued
// arguments elsewhere ("ev-jazz,ev-expo"). Whitespace around ids is
// trimmed; empty ids are rejected.
func ParseIDs(arg interface{}, name string) ([]string, error) {
	if arg == nil {
		return nil, fmt.Errorf("%s is required", name)
	}

	var raw []string
	switch v := arg.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}

	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%s contains an empty id", name)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", name)
	}
	return ids, nil
}

// Run applies op to each id in order and records one Outcome per id. A
// failing id never stops the rest of the batch.
func Run(ids []string, op func(id string) (string, error)) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		detail, err := op(id)
		if err != nil {
			outcomes = append(outcomes, Outcome{ID: id, Status: "error", Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, Outcome{ID: id, Status: "success", Detail: detail})
	}
	return outcomes
}

// Format renders outcomes as the indented JSON summary returned by batch
// tools.
func Format(outcomes []Outcome) string {
	summary := Summary{
		Total:   len(outcomes),
		Results: outcomes,
	}
	for _, o := range outcomes {
		if o.Status == "success" {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	payload, _ := json.MarshalIndent(summary, "", "  ")
	return string(payload)
}
