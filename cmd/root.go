package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outplan",
	Short: "Event-planning tool server for AI assistants",
	Long: `outplan is an MCP (Model Context Protocol) server that helps AI assistants
plan events for people and groups. It tracks busy hours and preference tags
per user, derives shared free time, and matches events from a local catalog
or a full-text search index.

It can run as:
  - An MCP server over stdio or streamable HTTP (serve)
  - A catalog loader for scraped event records (ingest)`,
	SilenceUsage: true,
}

// version is injected via SetVersion before Execute runs.
var version = "dev"

// SetVersion records the build version on the root command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the CLI. With no subcommand it defaults to serve.
func Execute() {
	// Optional .env file for local development; missing files are fine.
	_ = godotenv.Load()

	rootCmd.SetVersionTemplate(`{{printf "outplan version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
