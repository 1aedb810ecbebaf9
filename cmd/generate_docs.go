package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/outplan/outplan/internal/server"
	"github.com/outplan/outplan/internal/store"
)

// Tool categories in the order they appear in the generated reference.
var toolCategories = []string{"Profile Tools", "Team Tools", "Event Tools", "Other"}

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference for the MCP tool surface.

The reference is built by registering the real tools against a throwaway
server context and introspecting their definitions, so it cannot drift from
the implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	tools, err := registeredTools()
	if err != nil {
		return err
	}
	markdown := toolsMarkdown(tools)

	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// registeredTools spins up a throwaway server context, registers the full
// tool surface, and returns the tool definitions for introspection.
func registeredTools() ([]mcp.Tool, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tmpDir, err := os.MkdirTemp("", "outplan-docs-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	st, err := store.Open(filepath.Join(tmpDir, "outplan.db"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext := server.NewServerContext(context.Background(), server.Options{Store: st})
	defer func() { _ = serverContext.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("outplan", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return nil, err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	return tools, nil
}

func toolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running outplan as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	grouped := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := toolCategory(tool.Name)
		grouped[category] = append(grouped[category], tool)
	}

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range toolCategories {
		if len(grouped[category]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Conventions\n\n")
	sb.WriteString("- User ids are the numeric ids assigned by the chat platform the assistant runs on\n")
	sb.WriteString("- Flat list arguments (user ids, preference tags) are comma-separated strings\n")
	sb.WriteString("- Busy slots are JSON objects with `date` (YYYY-MM-DD), `start` and `end` (HH:MM)\n")
	sb.WriteString("- Tools that accept `useSearch` require the server to be started with an index directory\n\n")

	for _, category := range toolCategories {
		categoryTools := grouped[category]
		if len(categoryTools) == 0 {
			continue
		}
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			writeToolMarkdown(&sb, tool)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func toolCategory(name string) string {
	switch {
	case strings.Contains(name, "profile") || strings.Contains(name, "busy_hours"):
		return "Profile Tools"
	case strings.Contains(name, "team"):
		return "Team Tools"
	case strings.Contains(name, "event"):
		return "Event Tools"
	default:
		return "Other"
	}
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) == 0 {
		return
	}
	sb.WriteString("**Arguments:**\n")

	propNames := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, name := range propNames {
		propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}

		requiredStr := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requiredStr = "required"
		}

		description, _ := propMap["description"].(string)
		if description == "" {
			propType, _ := propMap["type"].(string)
			if propType == "" {
				propType = "any"
			}
			description = propType + " parameter"
		}
		fmt.Fprintf(sb, "- `%s` (%s): %s\n", name, requiredStr, description)
	}
	sb.WriteString("\n")
}
