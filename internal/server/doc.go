// Package server provides the MCP server context, health probes, and the
// dedicated Prometheus metrics server for the outplan application.
//
// # Key Components
//
// ServerContext owns the shared collaborators every tool handler needs: the
// SQLite store, the bleve search index, and the planning window. It wires
// them into a match.Planner on demand and coordinates graceful shutdown.
//
// HealthChecker exposes Kubernetes-style probes:
//   - /healthz: liveness, process is running
//   - /readyz: readiness, includes store connectivity and shutdown state
//   - /healthz/detailed: uptime and search index document count
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolating
// operational metrics from MCP traffic.
package server
