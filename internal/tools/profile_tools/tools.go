package profile_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/outplan/outplan/internal/availability"
	"github.com/outplan/outplan/internal/instrumentation"
	"github.com/outplan/outplan/internal/server"
	"github.com/outplan/outplan/internal/store"
	"github.com/outplan/outplan/internal/tools/common"
)

// RegisterProfileTools registers user profile tools with the MCP server
func RegisterProfileTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	updateProfileTool := mcp.NewTool("update_user_profile",
		mcp.WithDescription("Update a user's profile: display name, preference tags and busy hours. Creates the user on first use."),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("Numeric id of the user (chat-platform user id)"),
		),
		mcp.WithString("name",
			mcp.Description("Display name for the user"),
		),
		mcp.WithString("addPreferences",
			mcp.Description("Comma-separated preference tags to add (e.g. 'music, sport')"),
		),
		mcp.WithString("removePreferences",
			mcp.Description("Comma-separated preference tags to remove. Removal wins over addition of the same tag."),
		),
		mcp.WithArray("busySlots",
			mcp.Description("Busy intervals to record, each {date: 'YYYY-MM-DD', start: 'HH:MM', end: 'HH:MM'}"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date":  map[string]any{"type": "string"},
					"start": map[string]any{"type": "string"},
					"end":   map[string]any{"type": "string"},
				},
				"required": []string{"date", "start", "end"},
			}),
		),
		mcp.WithBoolean("clearBusySlots",
			mcp.Description("Clear all existing busy hours before recording new ones"),
		),
	)

	s.AddTool(updateProfileTool, common.InstrumentedToolHandlerWithComponent(
		"update_user_profile", instrumentation.ComponentStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateUserProfile(ctx, request, sc)
		}))

	updateBusyHoursTool := mcp.NewTool("update_busy_hours",
		mcp.WithDescription("Record busy hours for a user, optionally replacing everything recorded so far"),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("Numeric id of the user"),
		),
		mcp.WithArray("slots",
			mcp.Description("Busy intervals, each {date: 'YYYY-MM-DD', start: 'HH:MM', end: 'HH:MM'}"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date":  map[string]any{"type": "string"},
					"start": map[string]any{"type": "string"},
					"end":   map[string]any{"type": "string"},
				},
				"required": []string{"date", "start", "end"},
			}),
		),
		mcp.WithBoolean("clearExisting",
			mcp.Description("Clear previously recorded busy hours first (default: false)"),
		),
	)

	s.AddTool(updateBusyHoursTool, common.InstrumentedToolHandlerWithComponent(
		"update_busy_hours", instrumentation.ComponentStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateBusyHours(ctx, request, sc)
		}))

	getProfileTool := mcp.NewTool("get_user_profile",
		mcp.WithDescription("Get a user's preference tags and derived free slots per date"),
		mcp.WithNumber("userId",
			mcp.Required(),
			mcp.Description("Numeric id of the user"),
		),
	)

	s.AddTool(getProfileTool, common.InstrumentedToolHandlerWithComponent(
		"get_user_profile", instrumentation.ComponentStore, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetUserProfile(ctx, request, sc)
		}))

	return nil
}

// busySlotsFromArgs parses a structured busy-slot array argument.
func busySlotsFromArgs(args map[string]interface{}, key string, userID int64) ([]availability.BusySlot, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return nil, nil
	}
	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %s must be an array of {date, start, end} objects", key)
	}

	slots := make([]availability.BusySlot, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("argument %s[%d] must be an object with date, start and end", key, i)
		}
		slot := availability.BusySlot{
			UserID: userID,
			Date:   common.StringArg(obj, "date"),
			Start:  common.StringArg(obj, "start"),
			End:    common.StringArg(obj, "end"),
		}
		if slot.Date == "" || slot.Start == "" || slot.End == "" {
			return nil, fmt.Errorf("argument %s[%d] must carry date, start and end", key, i)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func handleUpdateUserProfile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.UserIDFromArgs(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	add, err := common.StringListFromArgs(args, "addPreferences")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remove, err := common.StringListFromArgs(args, "removePreferences")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slots, err := busySlotsFromArgs(args, "busySlots", userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := sc.Store()
	if err := st.EnsureUser(ctx, userID, common.StringArg(args, "name")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save user %d: %v", userID, err)), nil
	}

	preferences, err := st.UpdatePreferences(ctx, userID, add, remove)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update preferences for user %d: %v", userID, err)), nil
	}

	if common.BoolArg(args, "clearBusySlots", false) {
		if _, err := st.ClearBusySlots(ctx, userID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to clear busy hours for user %d: %v", userID, err)), nil
		}
	}
	if len(slots) > 0 {
		if err := st.AddBusySlots(ctx, userID, slots); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to record busy hours for user %d: %v", userID, err)), nil
		}
	}

	stored, err := st.BusySlotsForUser(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load busy hours for user %d: %v", userID, err)), nil
	}
	busyDays := make(map[string]struct{})
	for _, s := range stored {
		busyDays[s.Date] = struct{}{}
	}

	summary := map[string]interface{}{
		"user_id":     userID,
		"preferences": preferences,
		"busy_days":   len(busyDays),
	}
	payload, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleUpdateBusyHours(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.UserIDFromArgs(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slots, err := busySlotsFromArgs(args, "slots", userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := sc.Store()
	if err := st.EnsureUser(ctx, userID, ""); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save user %d: %v", userID, err)), nil
	}

	var cleared int64
	if common.BoolArg(args, "clearExisting", false) {
		cleared, err = st.ClearBusySlots(ctx, userID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to clear busy hours for user %d: %v", userID, err)), nil
		}
	}

	if len(slots) > 0 {
		if err := st.AddBusySlots(ctx, userID, slots); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to record busy hours for user %d: %v", userID, err)), nil
		}
	}

	summary := map[string]interface{}{
		"user_id": userID,
		"cleared": cleared,
		"added":   len(slots),
	}
	payload, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func handleGetUserProfile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, err := common.UserIDFromArgs(args, "userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := sc.Store()
	user, err := st.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("user %d not found", userID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load user %d: %v", userID, err)), nil
	}

	free, err := availability.UserFreeSlots(ctx, st, userID, sc.Window())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to derive free slots for user %d: %v", userID, err)), nil
	}

	profile := map[string]interface{}{
		"user_id":     user.ID,
		"name":        user.Name,
		"preferences": user.Preferences,
		"free_slots":  free,
	}
	payload, _ := json.MarshalIndent(profile, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}
