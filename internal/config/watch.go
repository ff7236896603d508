package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

// Watch reloads path with LoadFromPath whenever it changes and passes the
// result to onChange. A reload error is passed instead of a config; the
// previous config stays in effect for the caller. The parent directory is
// watched so files replaced by rename are still picked up. Watch returns once
// the watcher is installed and stops when ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				cfg, err := LoadFromPath(abs)
				onChange(cfg, err)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, fmt.Errorf("config watcher: %w", err))
			}
		}
	}()

	return nil
}
