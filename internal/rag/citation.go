// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"net/url"
	"strings"

	"github.com/jeranaias/ragchat-tui/internal/model"
)

// Citation is a source rendered as a download link.
type Citation struct {
	Source string `json:"source"`        // identifier as sent by the backend
	Label  string `json:"label"`         // display text
	URL    string `json:"url,omitempty"` // empty when no static base is known
}

// StaticBase returns the URL prefix under which the backend serves cited
// files. An explicit override wins; otherwise the path is joined onto the
// backend origin. The result always ends in "/".
func StaticBase(backendURL, staticPath, override string) string {
	base := strings.TrimSpace(override)
	if base == "" {
		if backendURL == "" {
			return ""
		}
		base = strings.TrimRight(backendURL, "/") + "/" + strings.TrimLeft(staticPath, "/")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// Link returns the download URL for source under base.
func Link(base, source string) string {
	if base == "" {
		return ""
	}
	return base + url.PathEscape(model.SourceFileName(source))
}

// Citations resolves sources into labelled links, preserving order.
func Citations(base string, sources []string) []Citation {
	out := make([]Citation, 0, len(sources))
	for _, src := range sources {
		out = append(out, Citation{
			Source: src,
			Label:  model.SourceLabel(src),
			URL:    Link(base, src),
		})
	}
	return out
}
