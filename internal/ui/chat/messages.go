// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/rag"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamEventMsg delivers one SSE frame for a turn.
type StreamEventMsg struct {
	TurnID string
	Event  rag.Event
}

// StreamDoneMsg signals that the transport for a turn has returned.
// Err is nil on a clean close.
type StreamDoneMsg struct {
	TurnID  string
	Err     error
	Elapsed time.Duration
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a configuration reloaded from disk.
// The new backend settings apply from the next turn.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportDoneMsg reports the result of saving the transcript.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// renderTickMsg asks the model to flush a deferred redraw.
type renderTickMsg struct{}
