// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to truncated strings.
const Ellipsis = "…"

// TruncateWidth truncates s to at most maxWidth terminal columns,
// appending an ellipsis when anything was cut. Wide runes are never split.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// TruncateMiddle keeps the start and end of s and drops the middle, which
// keeps file extensions visible in long citation labels.
func TruncateMiddle(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= runewidth.StringWidth(Ellipsis)+2 {
		return TruncateWidth(s, maxWidth)
	}

	budget := maxWidth - runewidth.StringWidth(Ellipsis)
	headWidth := (budget + 1) / 2
	tailWidth := budget - headWidth

	head := runewidth.Truncate(s, headWidth, "")
	tail := lastColumns(s, tailWidth)
	return head + Ellipsis + tail
}

// lastColumns returns the longest suffix of s no wider than width.
func lastColumns(s string, width int) string {
	runes := []rune(s)
	w := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if w+rw > width {
			break
		}
		w += rw
		i--
	}
	return string(runes[i:])
}

// StringWidth returns the display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// FirstLine returns s up to the first newline.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
