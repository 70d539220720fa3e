// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Event types sent by the backend.
const (
	EventData  = "data"
	EventEnd   = "end"
	EventError = "error"

	// EventMessage is the type of a frame that carries no event field.
	EventMessage = "message"
)

// MaxEventSize is the maximum size of a single SSE frame (1 MiB).
// SECURITY: bounds memory per line so a misbehaving backend cannot grow the
// scanner buffer without limit.
const MaxEventSize = 1 << 20

// ErrEventTooLarge is returned when a frame exceeds MaxEventSize.
var ErrEventTooLarge = errors.New("sse event exceeds maximum size")

// Event is one Server-Sent Event frame.
type Event struct {
	Type string
	Data []byte
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxEventSize)
	return &SSEReader{scanner: s}
}

// ReadEvent reads the next event from the stream.
//
// Data lines are joined with "\n". One space after the field colon is
// stripped. id, retry and comment lines are ignored. A frame is dispatched
// at a blank line when it carried an event or data field, so a bare
// "event: end" frame is delivered too. A pending frame is returned at EOF.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (Event, error) {
	var (
		eventType string
		data      bytes.Buffer
		hasData   bool
		pending   bool
	)

	dispatch := func() Event {
		ev := Event{Type: eventType, Data: data.Bytes()}
		if ev.Type == "" {
			ev.Type = EventMessage
		}
		return ev
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()

		if len(line) == 0 {
			if pending {
				return dispatch(), nil
			}
			continue
		}

		// Comment line
		if line[0] == ':' {
			continue
		}

		field, value := splitField(line)
		switch string(field) {
		case "event":
			eventType = string(value)
			pending = true
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.Write(value)
			hasData = true
			pending = true
		}
		// id, retry and unknown fields are ignored

		if data.Len() > MaxEventSize {
			return Event{}, ErrEventTooLarge
		}
	}

	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Event{}, ErrEventTooLarge
		}
		return Event{}, err
	}

	if pending {
		return dispatch(), nil
	}
	return Event{}, io.EOF
}

// splitField splits an SSE line into field name and value. A single space
// after the colon is removed. A line without a colon is a field with an
// empty value.
func splitField(line []byte) ([]byte, []byte) {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return line, nil
	}
	value := line[i+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return line[:i], value
}
