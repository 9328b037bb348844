package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"segstitch/logger"
)

// settleDelay is how long a changed file must stay quiet before a re-run
// is triggered; media files are written incrementally.
const settleDelay = 500 * time.Millisecond

// Watch re-invokes run whenever a file under one of the paths changes and
// then settles. Directories are watched recursively one level (the input
// layout is flat); plan files may be passed directly. Blocks until ctx is
// canceled.
func Watch(ctx context.Context, paths []string, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := watcher.Add(p); err != nil {
			return err
		}
		logger.Info("watching for changes", logger.String("path", p))
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			now := time.Now()
			settled := true
			for _, at := range pending {
				if now.Sub(at) < settleDelay {
					settled = false
					break
				}
			}
			if !settled {
				continue
			}
			for name := range pending {
				logger.Debug("input changed", logger.String("file", filepath.Base(name)))
				delete(pending, name)
			}
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", logger.ErrorField(err))
		}
	}
}
