package event_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/match"
	"github.com/outplan/outplan/internal/search"
	"github.com/outplan/outplan/internal/server"
	"github.com/outplan/outplan/internal/store"
	"github.com/outplan/outplan/internal/tools/batch"
	"github.com/outplan/outplan/internal/tools/common"
)

// RegisterEventTools registers event suggestion and retrieval tools with the
// MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	personalTool := mcp.NewTool("get_personal_event_suggestions",
		mcp.WithDescription("Suggest events for one user: candidates matching their preference tags that fit entirely inside their free time"),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("Numeric id of the user"),
		),
		mcp.WithBoolean("useSearch",
			mcp.Description("Use the full-text search index instead of the relational catalog (default: false)"),
		),
	)

	s.AddTool(personalTool, common.InstrumentedToolHandlerWithComponent(
		"get_personal_event_suggestions", instrumentation.ComponentStore, instrumentation.OperationQuery, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handlePersonalSuggestions(ctx, request, sc)
		}))

	jointTool := mcp.NewTool("get_joint_event_suggestions",
		mcp.WithDescription("Suggest events a group can attend together: shared preference tags intersected with shared free time. Requires at least two distinct users."),
		mcp.WithString("userIds",
			mcp.Required(),
			mcp.Description("Comma-separated numeric user ids (e.g. '7,12,15')"),
		),
		mcp.WithBoolean("useSearch",
			mcp.Description("Use the full-text search index instead of the relational catalog (default: false)"),
		),
	)

	s.AddTool(jointTool, common.InstrumentedToolHandlerWithComponent(
		"get_joint_event_suggestions", instrumentation.ComponentStore, instrumentation.OperationQuery, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleJointSuggestions(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("search_events",
		mcp.WithDescription("Full-text search over the event catalog, ranked by relevance"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text query matched against titles, descriptions and tags"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of hits to return (default: %d)", search.DefaultLimit)),
		),
	)

	s.AddTool(searchTool, common.InstrumentedToolHandlerWithComponent(
		"search_events", instrumentation.ComponentSearch, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEvents(ctx, request, sc)
		}))

	refreshTool := mcp.NewTool("refresh_events_catalog",
		mcp.WithDescription("Rebuild the full-text search index from the stored event catalog"),
	)

	s.AddTool(refreshTool, common.InstrumentedToolHandlerWithComponent(
		"refresh_events_catalog", instrumentation.ComponentSearch, instrumentation.OperationRebuild, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRefreshCatalog(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("delete_events",
		mcp.WithDescription("Remove events from the catalog and the search index by id. Accepts a comma-separated list of ids or an array of ids and reports per-event results."),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("Comma-separated event ids (e.g., 'ev-jazz,ev-expo') or array of event ids to delete"),
		),
	)

	s.AddTool(deleteTool, common.InstrumentedToolHandlerWithComponent(
		"delete_events", instrumentation.ComponentStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvents(ctx, request, sc)
		}))

	return nil
}

func handlePersonalSuggestions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.UserIDFromArgs(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	useSearch := common.BoolArg(args, "useSearch", false)
	if useSearch && sc.Index() == nil {
		return mcp.NewToolResultError("search index not configured"), nil
	}

	result, err := sc.Planner().Personal(ctx, userID, useSearch)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to match events for user %d: %v", userID, err)), nil
	}

	payload, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleJointSuggestions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userIDs, err := common.UserIDsFromArgs(args, "userIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	useSearch := common.BoolArg(args, "useSearch", false)
	if useSearch && sc.Index() == nil {
		return mcp.NewToolResultError("search index not configured"), nil
	}

	result, err := sc.Planner().Joint(ctx, userIDs, useSearch)
	if err != nil {
		if errors.Is(err, match.ErrTooFewUsers) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to match events for users %v: %v", userIDs, err)), nil
	}

	payload, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := common.StringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("missing required argument: query"), nil
	}
	index := sc.Index()
	if index == nil {
		return mcp.NewToolResultError("search index not configured"), nil
	}

	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}

	hits, err := index.Search(ctx, search.Params{Query: query, Limit: limit})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	summary := map[string]interface{}{
		"query":  query,
		"count":  len(hits),
		"events": hits,
	}
	payload, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleDeleteEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseIDs(args["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.Run(ids, func(id string) (string, error) {
		if err := sc.Store().DeleteEvent(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", fmt.Errorf("event %s not found", id)
			}
			return "", err
		}
		if index := sc.Index(); index != nil {
			if err := index.DeleteEvent(id); err != nil {
				return "", fmt.Errorf("deleted from catalog but not from index: %w", err)
			}
		}
		return "deleted", nil
	})

	return mcp.NewToolResultText(batch.Format(results)), nil
}

func handleRefreshCatalog(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	index := sc.Index()
	if index == nil {
		return mcp.NewToolResultError("search index not configured"), nil
	}

	count, err := index.Rebuild(ctx, sc.Store())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to rebuild the search index: %v", err)), nil
	}

	if metrics := sc.Metrics(); metrics != nil {
		metrics.RecordIndexedEvents(ctx, count)
	}

	summary := map[string]interface{}{
		"indexed_events": count,
	}
	payload, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}
