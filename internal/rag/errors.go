// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error variables for requests that never reach the backend.
var (
	// ErrEmptyQuestion indicates the question was blank after trimming.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoBackend indicates no backend URL is configured.
	ErrNoBackend = errors.New("backend URL not configured")
)

// =============================================================================
// TRANSPORT ERRORS
// =============================================================================

// TransportError is a failure to open or read the event stream.
type TransportError struct {
	Op  string // "connect" or "read"
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response to the stream request.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string // first bytes of the response body
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend returned %s", e.Status)
}

// =============================================================================
// PROTOCOL ERRORS
// =============================================================================

// DecodeError is a data event whose payload is not well-formed JSON.
type DecodeError struct {
	Payload []byte
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode stream chunk: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// BackendError is an error event sent by the backend mid-stream.
type BackendError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
	}
	return "backend error: " + e.Message
}

// ParseBackendError builds a BackendError from an error event payload.
// The payload is usually {"status_code":500,"message":"..."}; anything
// else is kept verbatim as the message.
func ParseBackendError(data []byte) *BackendError {
	var body struct {
		StatusCode int    `json:"status_code"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return &BackendError{StatusCode: body.StatusCode, Message: body.Message}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = "unknown error"
	}
	return &BackendError{Message: msg}
}
