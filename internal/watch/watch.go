// Package watch reloads single files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// File watches the directory containing path and calls onChange whenever
// path is written or (re)created. Editors commonly replace files with a
// rename, so the directory is watched rather than the file itself.
//
// File returns once the watcher is running. The watcher stops when ctx is
// cancelled.
func File(ctx context.Context, path string, onChange func(path string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	go loop(ctx, watcher, abs, onChange)

	slog.Debug("Watching file for changes", "path", abs)
	return nil
}

func loop(ctx context.Context, watcher *fsnotify.Watcher, path string, onChange func(string)) {
	defer func() {
		watcher.Close()
		slog.Debug("File watcher stopped", "path", path)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				slog.Debug("File changed", "event", event.Op.String(), "path", event.Name)
				onChange(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File system watcher error", "error", err)
		}
	}
}
