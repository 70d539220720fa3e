// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/rag"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(doc.Title)))
	sb.WriteString(fmt.Sprintf("date: %s\n", doc.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("messages: %d\n", doc.Transcript.Len()))
	sb.WriteString("generator: ragchat\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(doc.Title)))

	for i, msg := range doc.Transcript {
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				msg.Role.DisplayName(),
				msg.Timestamp.Format("15:04:05")))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", msg.Role.DisplayName()))
		}

		sb.WriteString(strings.TrimSpace(msg.Text))
		sb.WriteString("\n\n")

		if sources := e.formatSources(doc.StaticBase, msg); sources != "" {
			sb.WriteString(sources)
			sb.WriteString("\n")
		}

		if i < doc.Transcript.Len()-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// formatSources lists a message's citations as Markdown links.
func (e *MarkdownExporter) formatSources(base string, msg model.Message) string {
	if len(msg.Sources) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("**Sources**\n\n")
	for i, c := range rag.Citations(base, msg.Sources) {
		label := escapeMarkdown(c.Label)
		if c.URL != "" {
			sb.WriteString(fmt.Sprintf("%d. [%s](<%s>)\n", i+1, label, c.URL))
		} else {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, label))
		}
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values containing YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
