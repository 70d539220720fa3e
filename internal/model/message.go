// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN STATE
// =============================================================================

// TurnState marks whether a message can still receive streamed chunks.
type TurnState int

const (
	// TurnClosed messages are final. User messages are always closed.
	TurnClosed TurnState = iota
	// TurnOpen messages are still being streamed into.
	TurnOpen
)

// String returns the string representation of the turn state.
func (s TurnState) String() string {
	if s == TurnOpen {
		return "open"
	}
	return "closed"
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in the transcript.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Text string `json:"text"`

	// Sources holds citation identifiers in arrival order (assistant only).
	Sources []string `json:"sources,omitempty"`

	// State is TurnOpen while the assistant answer is still streaming.
	State TurnState `json:"-"`
}

// NewUserMessage creates a closed user message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleUser,
		Timestamp: time.Now(),
		Text:      text,
		State:     TurnClosed,
	}
}

// NewAssistantMessage creates an open assistant message seeded with the
// first chunk of a turn.
func NewAssistantMessage(text string, sources []string) Message {
	return Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Text:      text,
		Sources:   cloneSources(sources),
		State:     TurnOpen,
	}
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsOpen reports whether the message is an assistant answer still streaming.
func (m Message) IsOpen() bool {
	return m.Role == RoleAssistant && m.State == TurnOpen
}

// IsEmpty returns true if the message has neither text nor citations.
func (m Message) IsEmpty() bool {
	return m.Text == "" && len(m.Sources) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}

// cloneSources copies a citation slice so callers cannot alias it.
// Always returns a non-nil slice.
func cloneSources(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
