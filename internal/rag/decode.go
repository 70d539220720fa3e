// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"encoding/json"

	"github.com/jeranaias/ragchat-tui/internal/model"
)

// chunkPayload is the JSON body of a data event. Nested fields are kept raw
// so a field with an unexpected shape is skipped instead of failing the
// whole chunk.
type chunkPayload struct {
	Answer json.RawMessage `json:"answer"`
	Docs   json.RawMessage `json:"docs"`
}

// DecodeChunk parses the payload of a data event.
//
// answer.content becomes the chunk text and each docs[i].metadata.source
// becomes a citation in document order. Missing fields yield an empty
// chunk. Fields of the wrong shape are ignored: a non-string content gives
// no text, and documents whose metadata is not an object holding a
// non-empty string source are skipped. Only a payload that is not a JSON
// object returns a *DecodeError.
func DecodeChunk(data []byte) (model.Chunk, error) {
	var p chunkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		payload := make([]byte, len(data))
		copy(payload, data)
		return model.Chunk{}, &DecodeError{Payload: payload, Err: err}
	}

	return model.Chunk{
		Text:      answerText(p.Answer),
		Citations: docSources(p.Docs),
	}, nil
}

// answerText extracts answer.content when it is a string.
func answerText(raw json.RawMessage) string {
	var answer struct {
		Content json.RawMessage `json:"content"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &answer) != nil {
		return ""
	}
	var text string
	if json.Unmarshal(answer.Content, &text) != nil {
		return ""
	}
	return text
}

// docSources extracts docs[i].metadata.source in document order.
func docSources(raw json.RawMessage) []string {
	var docs []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &docs) != nil {
		return nil
	}

	var sources []string
	for _, d := range docs {
		var doc struct {
			Metadata json.RawMessage `json:"metadata"`
		}
		if json.Unmarshal(d, &doc) != nil {
			continue
		}
		var meta struct {
			Source json.RawMessage `json:"source"`
		}
		if len(doc.Metadata) == 0 || json.Unmarshal(doc.Metadata, &meta) != nil {
			continue
		}
		var src string
		if json.Unmarshal(meta.Source, &src) != nil || src == "" {
			continue
		}
		sources = append(sources, src)
	}
	return sources
}
