package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"runlog/internal/ingest"
	"runlog/internal/store"
)

// Watcher polls a folder and imports activity files it has not seen
type Watcher struct {
	importer *ImportService
	store    *store.DB
	folder   string
	interval time.Duration
	logger   *slog.Logger

	// failed remembers files that could not be imported, keyed by name,
	// so they are retried only after they change
	failed map[string]time.Time
}

// NewWatcher creates a watcher for folder. A nil logger uses slog.Default.
func NewWatcher(importer *ImportService, db *store.DB, folder string, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		importer: importer,
		store:    db,
		folder:   folder,
		interval: interval,
		logger:   logger,
		failed:   make(map[string]time.Time),
	}
}

// Run scans once immediately and then every interval until ctx is cancelled.
// The folder is created if it does not exist.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.folder, 0755); err != nil {
		return fmt.Errorf("creating watch folder: %w", err)
	}
	w.logger.Info("watching folder", "folder", w.folder, "interval", w.interval)

	if _, err := w.Scan(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("scan failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case <-ticker.C:
			if _, err := w.Scan(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("scan failed", "error", err)
			}
		}
	}
}

// Scan imports every supported file in the folder whose name is not yet
// stored. Files that failed before are skipped until their mtime changes.
func (w *Watcher) Scan(ctx context.Context) ([]ImportResult, error) {
	known, err := w.store.KnownFileNames()
	if err != nil {
		return nil, fmt.Errorf("loading known files: %w", err)
	}

	entries, err := os.ReadDir(w.folder)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", w.folder, err)
	}

	var pending []os.DirEntry
	for _, e := range entries {
		if e.IsDir() || !ingest.IsSupported(e.Name()) || known[e.Name()] {
			continue
		}
		pending = append(pending, e)
	}
	slices.SortFunc(pending, func(a, b os.DirEntry) int {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		}
		return 0
	})

	var results []ImportResult
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if mtime, ok := w.failed[e.Name()]; ok && mtime.Equal(info.ModTime()) {
			continue
		}

		r, err := w.importer.ImportFile(ctx, filepath.Join(w.folder, e.Name()))
		if r == nil {
			return results, err
		}
		if r.Status == StatusFailed {
			w.failed[e.Name()] = info.ModTime()
		} else {
			delete(w.failed, e.Name())
		}
		results = append(results, *r)
	}

	if len(results) > 0 {
		s := Summarize(results)
		w.logger.Info("scan complete", "imported", s.Imported, "duplicates", s.Duplicates, "failed", s.Failed)
	}
	return results, nil
}
