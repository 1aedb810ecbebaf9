package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outplan/outplan/internal/logging"
	"github.com/outplan/outplan/internal/match"
	"github.com/outplan/outplan/internal/store"
)

func newIngestCmd() *cobra.Command {
	var (
		inputFile string
		dbPath    string
		indexPath string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load scraped event records into the catalog",
		Long: `Read event records in NDJSON format (one JSON object per line) and upsert
them into the SQLite catalog. Records without an id are assigned one; records
with a known id are updated in place.

When an index directory is configured, the search index is rebuilt from the
catalog after the load so search-backed tools see the new events.

Record format:
  {"id": "...", "title": "...", "description": "...", "date": "YYYY-MM-DD",
   "start": "HH:MM", "end": "HH:MM", "tags": ["music"], "source_url": "..."}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db-path") {
				if path := os.Getenv("OUTPLAN_DB_PATH"); path != "" {
					dbPath = path
				}
			}
			if !cmd.Flags().Changed("index-path") {
				if path := os.Getenv("OUTPLAN_INDEX_PATH"); path != "" {
					indexPath = path
				}
			}
			return runIngest(inputFile, dbPath, indexPath)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "-", "Input NDJSON file, or - for stdin")
	cmd.Flags().StringVar(&dbPath, "db-path", "outplan.db", "Path to the SQLite database file. Can also use OUTPLAN_DB_PATH env var.")
	cmd.Flags().StringVar(&indexPath, "index-path", "", "Directory for the event search index. Empty skips the index rebuild. Can also use OUTPLAN_INDEX_PATH env var.")

	return cmd
}

func runIngest(inputFile, dbPath, indexPath string) error {
	ctx := context.Background()
	logger := newLogger(false)

	var input io.Reader = os.Stdin
	if inputFile != "-" {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		input = f
	}

	events, skipped, err := decodeEvents(input, logger)
	if err != nil {
		return err
	}
	if len(events) == 0 && skipped == 0 {
		return fmt.Errorf("no event records found in input")
	}

	serverContext, err := newServerContext(ctx, dbPath, indexPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	stored := 0
	for _, ev := range events {
		if _, err := serverContext.Store().UpsertEvent(ctx, ev); err != nil {
			if errors.Is(err, store.ErrInvalid) {
				logger.Warn("skipping invalid event record", "title", ev.Title, logging.Err(err))
				skipped++
				continue
			}
			return fmt.Errorf("failed to store event %q: %w", ev.Title, err)
		}
		stored++
	}
	if stored == 0 {
		return fmt.Errorf("no usable event records in input (%d skipped)", skipped)
	}
	logger.Info("events stored", "count", stored, "skipped", skipped, "db_path", dbPath)

	if index := serverContext.Index(); index != nil {
		indexed, err := index.Rebuild(ctx, serverContext.Store())
		if err != nil {
			return fmt.Errorf("failed to rebuild event index: %w", err)
		}
		logger.Info("event index rebuilt", "indexed", indexed, "index_path", indexPath)
	}

	return nil
}

// decodeEvents parses NDJSON event records. Blank lines are ignored.
// Scraped feeds are messy, so a malformed line is logged with its line
// number and skipped rather than aborting the whole load. Returns the
// decoded events and the number of skipped lines.
func decodeEvents(r io.Reader, logger *slog.Logger) ([]match.Event, int, error) {
	var events []match.Event

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	skipped := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ev match.Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			logger.Warn("skipping malformed event record", "line", line, logging.Err(err))
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("failed to read input: %w", err)
	}
	return events, skipped, nil
}
