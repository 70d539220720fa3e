// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/rag"
)

// Error variables for rejected transitions.
var (
	// ErrEmptyInput indicates the submitted text was blank after trimming.
	ErrEmptyInput = errors.New("input is empty")

	// ErrTurnInProgress indicates a submission while a stream is open.
	ErrTurnInProgress = errors.New("a response is still streaming")

	// ErrStaleTurn indicates an event for a turn that is no longer active.
	ErrStaleTurn = errors.New("event for inactive turn")
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the session's stream state.
type Status int

const (
	// StatusIdle means no stream is open.
	StatusIdle Status = iota
	// StatusStreaming means a turn is receiving events.
	StatusStreaming
	// StatusErrored means the last turn failed. Err holds the reason.
	StatusErrored
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// =============================================================================
// TURN
// =============================================================================

// Turn identifies one question/answer exchange.
type Turn struct {
	ID       string
	Question string
	Started  time.Time
}

// IsZero reports whether t is the empty turn.
func (t Turn) IsZero() bool {
	return t.ID == ""
}

// =============================================================================
// SESSION
// =============================================================================

// Session holds the transcript, the input buffer and the stream state.
type Session struct {
	Transcript model.Transcript
	Input      string
	Status     Status
	Err        error
	Turn       Turn // active turn, zero when idle
}

// New returns an idle session with an empty transcript.
func New() Session {
	return Session{Transcript: model.Transcript{}}
}

// Streaming reports whether a turn is in progress.
func (s Session) Streaming() bool {
	return s.Status == StatusStreaming
}

// WithInput returns s with the input buffer replaced.
func (s Session) WithInput(input string) Session {
	s.Input = input
	return s
}

// Submit starts a new turn from input.
//
// Blank input returns ErrEmptyInput and s unchanged. While a stream is open
// it returns ErrTurnInProgress; the caller must Cancel first. Otherwise the
// input buffer is cleared, a closed user message is appended and the
// returned Turn carries the trimmed question for the transport.
func (s Session) Submit(input string) (Session, Turn, error) {
	question := strings.TrimSpace(input)
	if question == "" {
		return s, Turn{}, ErrEmptyInput
	}
	if s.Streaming() {
		return s, Turn{}, ErrTurnInProgress
	}

	turn := Turn{
		ID:       "turn_" + uuid.NewString(),
		Question: question,
		Started:  time.Now(),
	}

	next := s
	next.Transcript = model.CloseTurn(s.Transcript).Append(model.NewUserMessage(question))
	next.Input = ""
	next.Status = StatusStreaming
	next.Err = nil
	next.Turn = turn
	return next, turn, nil
}

// Apply folds one stream event into the session.
//
// Data events are decoded and reduced into the transcript. An end event
// closes the turn. An error event, or a data payload that fails to decode,
// closes the turn and moves the session to StatusErrored; the error is also
// returned. Other event types are ignored. Events for an inactive turn
// return ErrStaleTurn and s unchanged.
func (s Session) Apply(turnID string, ev rag.Event) (Session, error) {
	if !s.active(turnID) {
		return s, ErrStaleTurn
	}

	switch ev.Type {
	case rag.EventData:
		chunk, err := rag.DecodeChunk(ev.Data)
		if err != nil {
			return s.Fail(turnID, err), err
		}
		next := s
		next.Transcript = model.ApplyChunk(s.Transcript, chunk)
		return next, nil

	case rag.EventEnd:
		return s.closeTurn(StatusIdle, nil), nil

	case rag.EventError:
		err := rag.ParseBackendError(ev.Data)
		return s.Fail(turnID, err), err

	default:
		return s, nil
	}
}

// Finish records that the transport for turnID returned. A nil error or a
// context cancellation closes the turn and returns to idle. Any other error
// moves the session to StatusErrored. Finishing an inactive turn is a no-op.
func (s Session) Finish(turnID string, err error) Session {
	if !s.active(turnID) {
		return s
	}
	if err == nil || errors.Is(err, context.Canceled) {
		return s.closeTurn(StatusIdle, nil)
	}
	return s.Fail(turnID, asTransportError(err))
}

// Fail closes turnID with err and moves the session to StatusErrored.
// Failing an inactive turn is a no-op.
func (s Session) Fail(turnID string, err error) Session {
	if !s.active(turnID) {
		return s
	}
	return s.closeTurn(StatusErrored, err)
}

// Cancel aborts the active turn, keeping whatever was streamed so far.
func (s Session) Cancel() Session {
	if !s.Streaming() {
		return s
	}
	return s.closeTurn(StatusIdle, nil)
}

// ClearError acknowledges an error and returns to idle.
func (s Session) ClearError() Session {
	if s.Status != StatusErrored {
		return s
	}
	s.Status = StatusIdle
	s.Err = nil
	return s
}

// active reports whether turnID is the turn currently streaming.
func (s Session) active(turnID string) bool {
	return s.Streaming() && !s.Turn.IsZero() && s.Turn.ID == turnID
}

// closeTurn seals the open answer and leaves the streaming state.
func (s Session) closeTurn(status Status, err error) Session {
	next := s
	next.Transcript = model.CloseTurn(s.Transcript)
	next.Status = status
	next.Err = err
	next.Turn = Turn{}
	return next
}

// asTransportError keeps typed transport failures and wraps anything else.
func asTransportError(err error) error {
	var te *rag.TransportError
	var se *rag.StatusError
	if errors.As(err, &te) || errors.As(err, &se) {
		return err
	}
	return &rag.TransportError{Op: "stream", Err: err}
}
