// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/ragchat-tui/internal/logging"
)

// markdownCache renders closed answers with glamour. Closed messages never
// change, so output is cached by message ID until the width changes.
type markdownCache struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	entries  map[string]string
}

func newMarkdownCache(dark bool) *markdownCache {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdownCache{style: style, entries: make(map[string]string)}
}

// resize drops cached output when the wrap width changes.
func (c *markdownCache) resize(width int) {
	if width == c.width {
		return
	}
	c.width = width
	c.renderer = nil
	c.entries = make(map[string]string)
}

// render returns the markdown rendering of text, or false if glamour
// could not render it.
// PERFORMANCE: closed answers never change, so each id renders once per
// width; the renderer itself is built lazily and reused.
func (c *markdownCache) render(id, text string) (string, bool) {
	if out, ok := c.entries[id]; ok {
		return out, true
	}
	if c.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(c.style),
			glamour.WithWordWrap(c.width),
		)
		if err != nil {
			logging.Warn("markdown renderer unavailable", "error", err)
			return "", false
		}
		c.renderer = r
	}
	out, err := c.renderer.Render(text)
	if err != nil {
		logging.Debug("markdown render failed", "id", id, "error", err)
		return "", false
	}
	out = strings.Trim(out, "\n")
	c.entries[id] = out
	return out, true
}
