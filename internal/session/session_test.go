// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/rag"
)

func dataEvent(payload string) rag.Event {
	return rag.Event{Type: rag.EventData, Data: []byte(payload)}
}

var endEvent = rag.Event{Type: rag.EventEnd}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_BlankInputIsIgnored(t *testing.T) {
	for _, in := range []string{"", " ", "\n\t  \n"} {
		s := New().WithInput(in)

		got, turn, err := s.Submit(in)

		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.True(t, turn.IsZero())
		assert.Equal(t, s, got)
		assert.Empty(t, got.Transcript)
		assert.Equal(t, StatusIdle, got.Status)
	}
}

func TestSubmit_AppendsUserMessageAndStartsTurn(t *testing.T) {
	s := New().WithInput("  hello  ")

	got, turn, err := s.Submit(s.Input)

	require.NoError(t, err)
	assert.Equal(t, "hello", turn.Question)
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, turn, got.Turn)
	assert.Equal(t, StatusStreaming, got.Status)
	assert.Empty(t, got.Input)
	require.Len(t, got.Transcript, 1)
	assert.True(t, got.Transcript[0].IsUser())
	assert.Equal(t, "hello", got.Transcript[0].Text)

	// Receiver untouched.
	assert.Empty(t, s.Transcript)
	assert.Equal(t, "  hello  ", s.Input)
}

func TestSubmit_RejectsWhileStreaming(t *testing.T) {
	s, first, err := New().Submit("one")
	require.NoError(t, err)

	got, turn, err := s.Submit("two")

	assert.ErrorIs(t, err, ErrTurnInProgress)
	assert.True(t, turn.IsZero())
	assert.Equal(t, first.ID, got.Turn.ID)
	assert.Len(t, got.Transcript, 1)
}

func TestSubmit_AfterErrorClearsIt(t *testing.T) {
	s, turn, _ := New().Submit("one")
	s = s.Finish(turn.ID, io.ErrUnexpectedEOF)
	require.Equal(t, StatusErrored, s.Status)

	s, _, err := s.Submit("two")

	require.NoError(t, err)
	assert.Equal(t, StatusStreaming, s.Status)
	assert.NoError(t, s.Err)
}

// =============================================================================
// APPLY TESTS
// =============================================================================

func TestApply_FullTurn(t *testing.T) {
	s, turn, err := New().Submit("What happened?")
	require.NoError(t, err)

	events := []rag.Event{
		{Type: "metadata", Data: []byte(`{"run_id":"x"}`)},
		dataEvent(`{"docs":[{"metadata":{"source":"corpus/ruling.pdf"}}]}`),
		dataEvent(`{"answer":{"content":"The court "}}`),
		dataEvent(`{"answer":{"content":"ruled."}}`),
		endEvent,
	}
	for _, ev := range events {
		s, err = s.Apply(turn.ID, ev)
		require.NoError(t, err)
	}

	assert.Equal(t, StatusIdle, s.Status)
	assert.True(t, s.Turn.IsZero())
	require.Len(t, s.Transcript, 2)
	answer := s.Transcript[1]
	assert.Equal(t, "The court ruled.", answer.Text)
	assert.Equal(t, []string{"corpus/ruling.pdf"}, answer.Sources)
	assert.False(t, answer.IsOpen())
}

func TestApply_TwoTurnsStayAlternating(t *testing.T) {
	s := New()
	for _, q := range []string{"q1", "q2"} {
		var turn Turn
		var err error
		s, turn, err = s.Submit(q)
		require.NoError(t, err)
		s, _ = s.Apply(turn.ID, dataEvent(`{"answer":{"content":"a"}}`))
		s, _ = s.Apply(turn.ID, endEvent)
	}

	require.Len(t, s.Transcript, 4)
	for i, m := range s.Transcript {
		assert.Equal(t, i%2 == 0, m.IsUser())
	}
}

func TestApply_UnknownEventIgnored(t *testing.T) {
	s, turn, _ := New().Submit("q")

	got, err := s.Apply(turn.ID, rag.Event{Type: "metadata", Data: []byte("not json")})

	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestApply_DecodeErrorSetsErrored(t *testing.T) {
	s, turn, _ := New().Submit("q")
	s, _ = s.Apply(turn.ID, dataEvent(`{"answer":{"content":"partial"}}`))

	got, err := s.Apply(turn.ID, dataEvent(`{broken`))

	var de *rag.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, StatusErrored, got.Status)
	assert.True(t, errors.As(got.Err, &de))
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, "partial", got.Transcript[1].Text)
	assert.False(t, got.Transcript.HasOpenTurn())
}

func TestApply_BackendErrorEvent(t *testing.T) {
	s, turn, _ := New().Submit("q")

	got, err := s.Apply(turn.ID, rag.Event{
		Type: rag.EventError,
		Data: []byte(`{"status_code":500,"message":"Internal Server Error"}`),
	})

	var be *rag.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 500, be.StatusCode)
	assert.Equal(t, StatusErrored, got.Status)
}

func TestApply_StaleTurnDropped(t *testing.T) {
	s, old, _ := New().Submit("q1")
	s = s.Cancel()
	s, current, _ := s.Submit("q2")

	got, err := s.Apply(old.ID, dataEvent(`{"answer":{"content":"late"}}`))

	assert.ErrorIs(t, err, ErrStaleTurn)
	assert.Equal(t, s, got)

	got, err = got.Apply(current.ID, dataEvent(`{"answer":{"content":"fresh"}}`))
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Transcript[len(got.Transcript)-1].Text)
}

func TestApply_AfterEndIsStale(t *testing.T) {
	s, turn, _ := New().Submit("q")
	s, _ = s.Apply(turn.ID, endEvent)

	got, err := s.Apply(turn.ID, dataEvent(`{"answer":{"content":"x"}}`))

	assert.ErrorIs(t, err, ErrStaleTurn)
	assert.Len(t, got.Transcript, 1)
}

// =============================================================================
// FINISH / CANCEL TESTS
// =============================================================================

func TestFinish(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantErrAs  any
	}{
		{"clean close", nil, StatusIdle, nil},
		{"cancelled", context.Canceled, StatusIdle, nil},
		{"wrapped cancel", &rag.TransportError{Op: "read", Err: context.Canceled}, StatusIdle, nil},
		{"raw error wrapped", io.ErrUnexpectedEOF, StatusErrored, new(*rag.TransportError)},
		{"status error kept", &rag.StatusError{StatusCode: 502, Status: "502 Bad Gateway"}, StatusErrored, new(*rag.StatusError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, turn, _ := New().Submit("q")
			s, _ = s.Apply(turn.ID, dataEvent(`{"answer":{"content":"x"}}`))

			got := s.Finish(turn.ID, tt.err)

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.False(t, got.Transcript.HasOpenTurn())
			if tt.wantErrAs != nil {
				assert.ErrorAs(t, got.Err, tt.wantErrAs)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}
}

func TestFinish_InactiveTurnNoop(t *testing.T) {
	s, turn, _ := New().Submit("q")
	s, _ = s.Apply(turn.ID, endEvent)

	got := s.Finish(turn.ID, io.ErrUnexpectedEOF)

	assert.Equal(t, StatusIdle, got.Status)
	assert.NoError(t, got.Err)
}

func TestCancel_KeepsPartialAnswer(t *testing.T) {
	s, turn, _ := New().Submit("q")
	s, _ = s.Apply(turn.ID, dataEvent(`{"answer":{"content":"part"}}`))

	got := s.Cancel()

	assert.Equal(t, StatusIdle, got.Status)
	assert.True(t, got.Turn.IsZero())
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, "part", got.Transcript[1].Text)
	assert.False(t, got.Transcript[1].IsOpen())
	assert.True(t, s.Transcript.HasOpenTurn(), "receiver untouched")
}

func TestCancel_IdleNoop(t *testing.T) {
	s := New()
	assert.Equal(t, s, s.Cancel())
}

func TestClearError(t *testing.T) {
	s, turn, _ := New().Submit("q")
	s = s.Fail(turn.ID, errors.New("x"))
	require.Equal(t, StatusErrored, s.Status)

	got := s.ClearError()
	assert.Equal(t, StatusIdle, got.Status)
	assert.NoError(t, got.Err)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "streaming", StatusStreaming.String())
	assert.Equal(t, "errored", StatusErrored.String())
	assert.Equal(t, "unknown", Status(9).String())
}
