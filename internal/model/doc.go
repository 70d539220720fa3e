// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the transcript types and the stream reducer.
//
// A Transcript is an ordered, append-only list of messages. It is treated as
// an immutable value: every operation returns a new Transcript and never
// writes through the receiver's backing array, so the UI loop can hold the
// current value and replace it after each streamed event.
//
// # Key Types
//
//   - Message: one turn entry (user or assistant) with text and citations
//   - Transcript: the ordered record of all messages in the session
//   - Chunk: one decoded unit of streamed data (text fragment and/or citations)
//   - TurnState: explicit open/closed marker for assistant messages
//
// # Usage
//
// Fold streamed chunks into a transcript:
//
//	t := model.Transcript{}.Append(model.NewUserMessage("What was the ruling?"))
//	t = model.ApplyChunk(t, model.Chunk{Text: "The court "})
//	t = model.ApplyChunk(t, model.Chunk{Text: "found...", Citations: []string{"docs/ruling.pdf"}})
//	t = model.CloseTurn(t)
package model
