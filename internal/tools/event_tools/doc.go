// Package event_tools provides MCP tools for event suggestions: personal and
// joint matching against the relational catalog or the full-text search
// index, direct catalog search, and index rebuilds.
package event_tools
