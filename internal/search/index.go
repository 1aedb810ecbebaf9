package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/outplan/outplan/internal/match"
)

// Index wraps a Bleve index over event documents.
//
// All public methods are safe for concurrent use; the mutex guards the
// index swap during rebuilds.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses stderr text handler if nil
}

// mappingVersion is bumped whenever the index mapping changes, forcing a
// rebuild of indexes created with an older mapping.
const mappingVersion = "1"

// NewIndex creates or opens the event index under opts.DataPath. An index
// with a missing or mismatched mapping version is removed and recreated
// empty; callers should reindex from the catalog afterwards.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "events.bleve")
	versionPath := filepath.Join(opts.DataPath, "events.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("event index has no version file, will rebuild",
				"new_version", mappingVersion)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("event index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing event index, will recreate",
				"path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			logger.Warn("failed to write event index version file", "error", writeErr)
		}
		logger.Info("created new event index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing event index", "path", indexPath)
	}

	return &Index{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index and releases resources.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}

// IndexEvents indexes events in batches.
func (ix *Index) IndexEvents(events []match.Event) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(events); i += batchSize {
		end := i + batchSize
		if end > len(events) {
			end = len(events)
		}

		batch := ix.index.NewBatch()
		for _, ev := range events[i:end] {
			doc := FromEvent(ev)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := ix.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteEvent removes one event document from the index.
func (ix *Index) DeleteEvent(id string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.Delete(id)
}

// DocumentCount returns the number of indexed events.
func (ix *Index) DocumentCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// EventSource supplies the full catalog for rebuilds.
type EventSource interface {
	AllEvents(ctx context.Context) ([]match.Event, error)
}

// Rebuild drops the index, recreates it with the current mapping and
// reindexes the whole catalog. Blocks all other index operations while it
// runs. Returns the number of events indexed.
func (ix *Index) Rebuild(ctx context.Context, src EventSource) (int, error) {
	events, err := src.AllEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog for reindex: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.index.Close(); err != nil {
		return 0, fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(ix.path); err != nil {
		return 0, fmt.Errorf("remove index: %w", err)
	}
	index, err := bleve.New(ix.path, buildIndexMapping())
	if err != nil {
		return 0, fmt.Errorf("create index: %w", err)
	}
	ix.index = index

	batch := ix.index.NewBatch()
	for _, ev := range events {
		doc := FromEvent(ev)
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return 0, fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	if err := ix.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("commit reindex batch: %w", err)
	}

	ix.logger.Info("rebuilt event index", "path", ix.path, "events", len(events))
	return len(events), nil
}
