package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/outplan/outplan/internal/server"
)

// RegisterCatalogResources registers read-only resources describing the
// events catalog. Clients can read the full catalog or a small stats
// document without going through a tool call.
func RegisterCatalogResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	catalogResource := mcp.NewResource(
		"outplan://catalog",
		"Events Catalog",
		mcp.WithResourceDescription("All events currently in the catalog, ordered by date and start time"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(catalogResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCatalog(ctx, request, sc)
	})

	statsResource := mcp.NewResource(
		"outplan://catalog/stats",
		"Catalog Statistics",
		mcp.WithResourceDescription("Event counts for the catalog store and the search index"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(statsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCatalogStats(ctx, request, sc)
	})

	return nil
}

func handleCatalog(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	events, err := sc.Store().AllEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	payload := map[string]interface{}{
		"count":  len(events),
		"events": events,
	}

	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func handleCatalogStats(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	events, err := sc.Store().AllEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	stats := map[string]interface{}{
		"stored_events":  len(events),
		"search_enabled": sc.Index() != nil,
	}
	if index := sc.Index(); index != nil {
		if indexed, err := index.DocumentCount(); err == nil {
			stats["indexed_events"] = indexed
		}
	}

	jsonData, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
