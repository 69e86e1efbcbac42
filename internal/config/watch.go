package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/rotorsim/pkg/logger"
)

// Watch monitors path for changes and calls onChange with the reloaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// A failed reload is logged and onChange is not called; the previous
// config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: watcher: %w", ErrLoadConfig, err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("%w: watch %s: %w", ErrLoadConfig, path, err)
	}

	log := logger.Get().Named("config")
	log.Info(ctx, "watching for changes", logger.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts too.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(ctx, path)
			if err != nil {
				log.Error(ctx, "reload failed, keeping previous config",
					logger.String("path", path), logger.Error(err))
				continue
			}

			log.Info(ctx, "config reloaded", logger.String("path", path))
			onChange(cfg)

			// Re-add in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}
