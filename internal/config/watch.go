package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchSettle is how long the file must stay quiet before a reload.
const DefaultWatchSettle = 250 * time.Millisecond

// Watch reloads the config file at path whenever it changes and reports each
// reload to onChange. It blocks until ctx is cancelled. The parent directory is
// watched so editors that replace the file on save still trigger a reload.
func Watch(ctx context.Context, path string, defaults Config, onChange func(Config, error)) error {
	return watch(ctx, path, defaults, DefaultWatchSettle, onChange)
}

func watch(ctx context.Context, path string, defaults Config, settle time.Duration, onChange func(Config, error)) error {
	if onChange == nil {
		return fmt.Errorf("watch config: onChange is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := EnsureConfigDir(absPath); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(Config{}, fmt.Errorf("watch config: %w", err))
		case <-timer.C:
			cfg, err := Load(absPath, defaults)
			onChange(cfg, err)
		}
	}
}
