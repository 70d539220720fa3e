// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Chunk is one decoded unit of streamed data. Either field may be empty.
type Chunk struct {
	Text      string
	Citations []string
}

// IsEmpty returns true if the chunk carries neither text nor citations.
func (c Chunk) IsEmpty() bool {
	return c.Text == "" && len(c.Citations) == 0
}

// ApplyChunk folds one chunk into the transcript and returns the result.
//
// When the last message is an open assistant answer the chunk amends it:
// text is concatenated and citations are appended in order. In every other
// case (empty transcript, last message from the user, last answer already
// closed) the chunk starts a new open assistant message.
//
// An empty chunk returns t unchanged. The result is always either the same
// length as t or one longer.
func ApplyChunk(t Transcript, c Chunk) Transcript {
	if c.IsEmpty() {
		return t
	}

	if !t.HasOpenTurn() {
		return t.Append(NewAssistantMessage(c.Text, c.Citations))
	}

	last, _ := t.Last()
	amended := last
	amended.Text = last.Text + c.Text
	sources := make([]string, 0, len(last.Sources)+len(c.Citations))
	sources = append(sources, last.Sources...)
	amended.Sources = append(sources, c.Citations...)

	return t.ReplaceLast(amended)
}

// CloseTurn marks the open assistant answer at the end of t as final.
// Returns t unchanged when no turn is open.
func CloseTurn(t Transcript) Transcript {
	if !t.HasOpenTurn() {
		return t
	}
	last, _ := t.Last()
	last.State = TurnClosed
	return t.ReplaceLast(last)
}
