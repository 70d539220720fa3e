// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/ragchat-tui/internal/logging"
)

// DefaultWatchDebounce coalesces the burst of events an editor save produces.
const DefaultWatchDebounce = 200 * time.Millisecond

// ReloadFunc receives each reloaded configuration, or the error that
// prevented loading it.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads the file at path whenever it changes and calls fn with the
// result until ctx is cancelled.
//
// The parent directory is watched rather than the file so that editors
// which save by rename keep being tracked. Watch returns once the watcher
// is running.
func Watch(ctx context.Context, path string, fn ReloadFunc) error {
	return WatchWithDebounce(ctx, path, DefaultWatchDebounce, fn)
}

// WatchWithDebounce is Watch with a caller-chosen debounce interval.
func WatchWithDebounce(ctx context.Context, path string, debounce time.Duration, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go runWatcher(ctx, watcher, abs, debounce, fn)
	return nil
}

// runWatcher processes file system events until ctx is done.
func runWatcher(ctx context.Context, watcher *fsnotify.Watcher, path string, debounce time.Duration, fn ReloadFunc) {
	defer watcher.Close()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			cfg, err := LoadFromPath(path)
			if err != nil {
				logging.Warn("config reload failed", "path", path, "err", err)
			} else {
				logging.Info("config reloaded", "path", path, "backend", cfg.Backend.URL)
			}
			fn(cfg, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("config watcher error", "err", err)
		}
	}
}
