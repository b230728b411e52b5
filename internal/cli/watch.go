package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/dataflow"
	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets editors finish writing before the file is read.
const reloadDelay = 100 * time.Millisecond

// WatchGraphFile loads path into the guarded engine and reloads it whenever
// the file changes, until ctx is done. onReload, if set, runs after every
// load attempt with its outcome. A failed reload keeps the previous graph.
func WatchGraphFile(ctx context.Context, path string, guard *dataflow.Guard, logger *slog.Logger, onReload func(dataflow.Report, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	load := func() {
		var report dataflow.Report
		err := guard.Do(func(e *dataflow.Engine) error {
			var err error
			report, err = e.LoadFile(abs)
			return err
		})
		if err != nil {
			logger.Error("Reload failed, keeping previous graph", "path", abs, "err", err)
		} else {
			logger.Info("Graph reloaded", "path", abs, "nodes", report.Nodes, "links", report.Links, "skipped", len(report.Skipped))
		}
		if onReload != nil {
			onReload(report, err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("graph watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("graph watcher add %s: %w", filepath.Dir(abs), err)
	}

	load()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				logger.Debug("Change detected", "event", ev.String())
				pending = time.After(reloadDelay)
			}
		case <-pending:
			pending = nil
			load()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		}
	}
}
