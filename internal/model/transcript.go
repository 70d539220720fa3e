// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Transcript is the ordered record of all messages in the current session.
// Insertion order is conversation order. Entries are never reordered or
// removed; only appended or, for the last entry, amended.
type Transcript []Message

// Len returns the number of messages.
func (t Transcript) Len() int {
	return len(t)
}

// IsEmpty returns true if there are no messages.
func (t Transcript) IsEmpty() bool {
	return len(t) == 0
}

// Last returns the most recent message and whether one exists.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// HasOpenTurn reports whether the last message is an assistant answer that
// is still receiving chunks.
func (t Transcript) HasOpenTurn() bool {
	last, ok := t.Last()
	return ok && last.IsOpen()
}

// Append returns a new transcript with msg added at the end.
// The receiver is left untouched even if it has spare capacity.
func (t Transcript) Append(msg Message) Transcript {
	out := make(Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, msg)
}

// ReplaceLast returns a new transcript whose last message is msg.
// On an empty transcript it behaves like Append.
func (t Transcript) ReplaceLast(msg Message) Transcript {
	if len(t) == 0 {
		return t.Append(msg)
	}
	out := make(Transcript, len(t))
	copy(out, t)
	out[len(out)-1] = msg
	return out
}
