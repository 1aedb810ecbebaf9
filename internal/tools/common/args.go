package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UserIDFromArgs extracts a user id from request arguments. JSON numbers
// arrive as float64; string values are accepted so chat bridges can pass
// platform ids verbatim.
func UserIDFromArgs(args map[string]interface{}, key string) (int64, error) {
	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument: %s", key)
	}
	return coerceUserID(val, key)
}

// UserIDsFromArgs extracts a list of user ids from request arguments.
// Accepts a JSON array of numbers or strings, or a comma-separated string.
func UserIDsFromArgs(args map[string]interface{}, key string) ([]int64, error) {
	val, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing required argument: %s", key)
	}

	var items []interface{}
	switch v := val.(type) {
	case []interface{}:
		items = v
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	default:
		return nil, fmt.Errorf("argument %s must be a list of user ids", key)
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := coerceUserID(item, key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func coerceUserID(val interface{}, key string) (int64, error) {
	switch v := val.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("argument %s must be an integer user id", key)
		}
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %s must be an integer user id", key)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("argument %s must be an integer user id", key)
	}
}

// StringArg extracts an optional string argument, returning "" when absent.
func StringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// StringListFromArgs extracts a list of strings from request arguments.
// Accepts a JSON array of strings or a single comma-separated string.
// Absent arguments yield an empty list.
func StringListFromArgs(args map[string]interface{}, key string) ([]string, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return nil, nil
	}
	switch v := val.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %s must be an array of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %s must be an array of strings", key)
	}
}

// BoolArg extracts an optional boolean argument, returning the fallback when
// absent or not a boolean.
func BoolArg(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
