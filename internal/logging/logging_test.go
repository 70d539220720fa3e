// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestHelpersNoopBeforeInit(t *testing.T) {
	require.NoError(t, Close())
	assert.Nil(t, Logger())

	// Must not panic.
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}

func TestInitWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("warn", &buf)
	t.Cleanup(func() { _ = Close() })

	Info("hidden")
	Warn("shown", "turn", "t1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "turn=t1")
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ragchat.log")
	require.NoError(t, Init("debug", path))

	Debug("stream opened", "turn", "abc")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stream opened")

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestInit_EmptyPathDiscards(t *testing.T) {
	require.NoError(t, Init("debug", ""))
	t.Cleanup(func() { _ = Close() })

	assert.NotNil(t, Logger())
	Info("nowhere")
}

func TestRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), MaxFileSize+1), 0o600))

	rotate(path)

	_, err := os.Stat(path + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
