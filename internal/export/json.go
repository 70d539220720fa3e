// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/ragchat-tui/internal/rag"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON with resolved citation links.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

type jsonDocument struct {
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Timestamp time.Time      `json:"timestamp"`
	Text      string         `json:"text"`
	Citations []rag.Citation `json:"citations,omitempty"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	out := jsonDocument{
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		Messages:  make([]jsonMessage, 0, doc.Transcript.Len()),
	}
	for _, msg := range doc.Transcript {
		jm := jsonMessage{
			ID:        msg.ID,
			Role:      msg.Role.String(),
			Timestamp: msg.Timestamp,
			Text:      msg.Text,
		}
		if len(msg.Sources) > 0 {
			jm.Citations = rag.Citations(doc.StaticBase, msg.Sources)
		}
		out.Messages = append(out.Messages, jm)
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
