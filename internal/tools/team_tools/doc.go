// Package team_tools provides MCP tools for team management: creating teams
// with join codes, joining by code, and joint event suggestions across all
// team members.
package team_tools
