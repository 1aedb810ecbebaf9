// Package batch supports MCP tools that operate on several catalog ids per
// call, such as delete_events.
//
// Ids arrive either as an array or as a comma-separated string, matching
// the convention used by the other list-valued tool arguments. Each id is
// processed independently and the tool reports a per-id outcome, so one
// missing event never aborts the rest of the batch.
package batch
