// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.toml")

	require.NoError(t, AtomicWriteFile(path, []byte("x = 1\n"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	require.NoError(t, AtomicWriteFile(path, []byte("old"), 0o600))
	require.NoError(t, AtomicWriteFile(path, []byte("new"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "ruling.pdf", 20, "ruling.pdf"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdefgh", 5, "abcd…"},
		{"zero", "abc", 0, ""},
		{"wide runes not split", "日本語資料", 5, "日本…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWidth(tt.in, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, StringWidth(got), tt.width)
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := TruncateMiddle("Exhibit-0042-deposition-transcript.pdf", 15)

	assert.Equal(t, 15, StringWidth(got))
	assert.Equal(t, "Exhibit…ipt.pdf", got)
	assert.Equal(t, "short.pdf", TruncateMiddle("short.pdf", 15))
}

func TestStringWidth(t *testing.T) {
	assert.Equal(t, 5, StringWidth("hello"))
	assert.Equal(t, 4, StringWidth("日本"))
	assert.Equal(t, 0, StringWidth(""))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", FirstLine("one\ntwo"))
	assert.Equal(t, "solo", FirstLine("solo"))
}
