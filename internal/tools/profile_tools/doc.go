// Package profile_tools provides MCP tools for managing user profiles:
// display names, preference tags and recorded busy hours, plus the derived
// per-date free slots.
package profile_tools
