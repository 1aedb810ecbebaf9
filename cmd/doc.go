// Package cmd wires up the outplan command-line interface.
//
// Commands:
//   - serve: run the MCP server exposing the event-planning tools (default)
//   - ingest: load scraped event records into the catalog and search index
//   - generate-docs: emit markdown documentation for the MCP tool surface
//   - version: print build information
package cmd
