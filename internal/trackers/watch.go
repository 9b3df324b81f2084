package trackers

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors a descriptor file and calls cb with the freshly loaded
// table after each change, until ctx is cancelled. Editors typically write
// through a rename, so the parent directory is watched and events are
// debounced before reloading. A file that fails to load keeps the previous
// table.
func Watch(ctx context.Context, path string, logger *slog.Logger, cb func([]Descriptor)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Info("trackers: watching descriptor file", slog.String("path", path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("trackers: watcher stopped")
			return nil

		case <-reloadCh:
			descriptors, err := Load(path)
			if err != nil {
				logger.Warn("trackers: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("trackers: descriptors reloaded", slog.Int("count", len(descriptors)))
			cb(descriptors)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("trackers: watcher error", slog.String("error", err.Error()))
		}
	}
}
