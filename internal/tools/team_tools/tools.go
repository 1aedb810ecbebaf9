package team_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/match"
	"github.com/outplan/outplan/internal/server"
	"github.com/outplan/outplan/internal/store"
	"github.com/outplan/outplan/internal/tools/common"
)

// RegisterTeamTools registers team management tools with the MCP server
func RegisterTeamTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createTeamTool := mcp.NewTool("create_team",
		mcp.WithDescription("Create a team and return its join code"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Team name"),
		),
	)

	s.AddTool(createTeamTool, common.InstrumentedToolHandlerWithComponent(
		"create_team", instrumentation.ComponentStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTeam(ctx, request, sc)
		}))

	joinTeamTool := mcp.NewTool("join_team",
		mcp.WithDescription("Join a team by code. Creates the user on first use; rejoining is a no-op."),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("Numeric id of the joining user"),
		),
		mcp.WithString("teamCode",
			mcp.Required(),
			mcp.Description("Join code returned by create_team"),
		),
	)

	s.AddTool(joinTeamTool, common.InstrumentedToolHandlerWithComponent(
		"join_team", instrumentation.ComponentStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleJoinTeam(ctx, request, sc)
		}))

	teamSuggestionsTool := mcp.NewTool("get_team_event_suggestions",
		mcp.WithDescription("Suggest events a whole team can attend together. Requires at least two members."),
		mcp.WithString("teamCode",
			mcp.Required(),
			mcp.Description("Join code of the team"),
		),
		mcp.WithBoolean("useSearch",
			mcp.Description("Use the full-text search index instead of the relational catalog (default: false)"),
		),
	)

	s.AddTool(teamSuggestionsTool, common.InstrumentedToolHandlerWithComponent(
		"get_team_event_suggestions", instrumentation.ComponentStore, instrumentation.OperationQuery, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTeamSuggestions(ctx, request, sc)
		}))

	return nil
}

func handleCreateTeam(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name := strings.TrimSpace(common.StringArg(args, "name"))
	if name == "" {
		return mcp.NewToolResultError("missing required argument: name"), nil
	}

	team, err := sc.Store().CreateTeam(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create team: %v", err)), nil
	}

	summary := map[string]interface{}{
		"team_id": team.ID,
		"name":    team.Name,
		"code":    team.Code,
	}
	payload, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleJoinTeam(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.UserIDFromArgs(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	code := strings.TrimSpace(common.StringArg(args, "teamCode"))
	if code == "" {
		return mcp.NewToolResultError("missing required argument: teamCode"), nil
	}

	team, err := sc.Store().JoinTeam(ctx, userID, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("team %s not found", code)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to join team %s: %v", code, err)), nil
	}

	members, err := sc.Store().TeamMemberIDs(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load members of team %s: %v", code, err)), nil
	}

	summary := map[string]interface{}{
		"team_id": team.ID,
		"name":    team.Name,
		"code":    team.Code,
		"user_id": userID,
		"members": len(members),
	}
	payload, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleTeamSuggestions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	code := strings.TrimSpace(common.StringArg(args, "teamCode"))
	if code == "" {
		return mcp.NewToolResultError("missing required argument: teamCode"), nil
	}
	useSearch := common.BoolArg(args, "useSearch", false)
	if useSearch && sc.Index() == nil {
		return mcp.NewToolResultError("search index not configured"), nil
	}

	members, err := sc.Store().TeamMemberIDs(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("team %s not found", code)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load members of team %s: %v", code, err)), nil
	}

	result, err := sc.Planner().Joint(ctx, members, useSearch)
	if err != nil {
		if errors.Is(err, match.ErrTooFewUsers) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to match events for team %s: %v", code, err)), nil
	}

	payload, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}
