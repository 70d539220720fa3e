// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the process-wide structured logger.
//
// The chat UI owns the terminal, so records go to a file rather than
// stdout. Until Init is called every helper is a no-op.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxFileSize is the size at which the log file is rotated on open.
const MaxFileSize = 10 * 1024 * 1024

var (
	mu   sync.RWMutex
	log  *slog.Logger
	file *os.File
)

// ParseLevel converts a level name to a slog level.
// Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init opens path for appending and installs a text logger at the given
// level. An empty path discards all records. A previous log file is closed.
func Init(level, path string) error {
	if path == "" {
		setLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	rotate(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: ParseLevel(level)})
	setLogger(slog.New(h), f)
	return nil
}

// InitWriter installs a logger writing to w. Used by tests and by commands
// that log to stderr.
func InitWriter(level string, w io.Writer) {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	setLogger(slog.New(h), nil)
}

// Close flushes and closes the log file, if any, and disables logging.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	log = nil
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Logger returns the current logger, or nil before Init.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func setLogger(l *slog.Logger, f *os.File) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	log = l
	file = f
}

// rotate renames an oversized log file out of the way.
func rotate(path string) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() <= MaxFileSize {
		return
	}
	_ = os.Rename(path, path+".1")
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	if l := Logger(); l != nil {
		l.Debug(msg, args...)
	}
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if l := Logger(); l != nil {
		l.Info(msg, args...)
	}
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if l := Logger(); l != nil {
		l.Warn(msg, args...)
	}
}

// Error logs at error level.
func Error(msg string, args ...any) {
	if l := Logger(); l != nil {
		l.Error(msg, args...)
	}
}
