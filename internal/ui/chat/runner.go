// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

// ErrNotAttached is returned when a stream starts before a program is attached.
var ErrNotAttached = errors.New("stream runner is not attached to a program")

// Sender delivers messages into a running Bubble Tea program.
// *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// StreamRunner runs one turn's transport and forwards every frame to the
// program. Send blocks until the event loop accepts the message, so frames
// arrive in wire order.
type StreamRunner struct {
	mu     sync.Mutex
	sender Sender
}

// NewStreamRunner creates a runner. sender may be nil and attached later.
func NewStreamRunner(sender Sender) *StreamRunner {
	return &StreamRunner{sender: sender}
}

// SetSender attaches the program that receives stream messages.
func (r *StreamRunner) SetSender(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sender = s
}

func (r *StreamRunner) getSender() Sender {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sender
}

// Run streams turn's question and blocks until the transport returns.
// Each frame is sent as a StreamEventMsg; the returned StreamDoneMsg is
// meant to be the result of the tea.Cmd that called Run.
func (r *StreamRunner) Run(ctx context.Context, client *rag.Client, turn session.Turn) StreamDoneMsg {
	sender := r.getSender()
	if sender == nil {
		return StreamDoneMsg{TurnID: turn.ID, Err: ErrNotAttached}
	}

	frames := 0
	err := client.Stream(ctx, turn.Question, func(ev rag.Event) {
		frames++
		sender.Send(StreamEventMsg{TurnID: turn.ID, Event: ev})
	})

	elapsed := time.Since(turn.Started)
	logging.Debug("turn finished", "turn", turn.ID, "frames", frames, "elapsed", elapsed, "err", err)
	return StreamDoneMsg{TurnID: turn.ID, Err: err, Elapsed: elapsed}
}
