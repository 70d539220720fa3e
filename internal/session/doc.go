// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the turn controller for a chat session.
//
// A Session is a plain value. Every operation returns a new Session and
// leaves the receiver untouched, so the UI can hold it directly in its
// Bubble Tea model and replace it from Update.
//
// # Lifecycle
//
//	Idle --Submit--> Streaming --end event / Finish(nil) / Cancel--> Idle
//	                 Streaming --error event / decode error / Finish(err)--> Errored
//	Errored --Submit--> Streaming
//
// # Usage
//
//	s := session.New()
//	s, turn, err := s.Submit("What did the court hold?")
//	if err != nil {
//	    return // ErrEmptyInput or ErrTurnInProgress
//	}
//	go client.Stream(ctx, turn.Question, func(ev rag.Event) {
//	    program.Send(EventMsg{TurnID: turn.ID, Event: ev})
//	})
//
//	// in Update:
//	s, err = s.Apply(msg.TurnID, msg.Event)
//
// Events carry the ID of the turn that produced them. Events for any turn
// other than the active one are dropped, which makes cancellation safe
// against frames already in flight.
package session
