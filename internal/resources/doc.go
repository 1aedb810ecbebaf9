// Package resources provides MCP resources exposing the events catalog.
// Resources are read-only data sources that MCP clients can fetch without
// issuing a tool call, such as the full catalog or its statistics.
package resources
