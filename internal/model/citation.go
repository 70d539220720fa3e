// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SourceLabel returns the display label for a citation: the final
// slash-separated segment of the source path, NFC-normalised so that
// decomposed file names from some filesystems render as single glyphs.
// A source ending in "/" yields an empty label.
func SourceLabel(source string) string {
	return norm.NFC.String(SourceFileName(source))
}

// SourceFileName returns the final slash-separated segment of the source
// path exactly as received. Link targets use this form so they match the
// file name the backend serves.
func SourceFileName(source string) string {
	if i := strings.LastIndex(source, "/"); i >= 0 {
		return source[i+1:]
	}
	return source
}
