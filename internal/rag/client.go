// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/ragchat-tui/internal/logging"
)

// Configuration constants for the stream endpoint.
const (
	// DefaultStreamPath is the path of the streaming endpoint.
	DefaultStreamPath = "/rag/stream"

	// DefaultUserAgent identifies the client to the backend.
	DefaultUserAgent = "ragchat"

	// maxErrorBody bounds how much of a non-2xx body is kept.
	maxErrorBody = 4 * 1024
)

// sharedStreamingClient is used for streaming requests (no timeout, context-controlled).
// PERFORMANCE: Connection pooling for streaming requests.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// EventHandler receives each frame of a stream in arrival order.
type EventHandler func(Event)

// streamRequest is the JSON body of a stream request.
type streamRequest struct {
	Input struct {
		Question string `json:"question"`
	} `json:"input"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client opens streaming turns against a RAG backend.
type Client struct {
	baseURL    string
	streamPath string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		streamPath: DefaultStreamPath,
		userAgent:  DefaultUserAgent,
		httpClient: sharedStreamingClient,
	}
}

// WithStreamPath sets the endpoint path and returns the client for chaining.
func (c *Client) WithStreamPath(path string) *Client {
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		c.streamPath = path
	}
	return c
}

// WithHTTPClient sets the HTTP client and returns the client for chaining.
// The client must not impose an overall timeout on streaming bodies.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithUserAgent sets the User-Agent header and returns the client for chaining.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// Endpoint returns the full URL of the streaming endpoint.
func (c *Client) Endpoint() string {
	return c.baseURL + c.streamPath
}

// Stream posts question to the backend and calls fn for every event frame
// in arrival order. It returns nil once an "end" event arrives or the
// server closes the stream cleanly. Cancelling ctx aborts the request and
// returns ctx.Err().
//
// Events are delivered verbatim; interpreting "data" and "error" frames is
// the caller's job.
func (c *Client) Stream(ctx context.Context, question string, fn EventHandler) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}
	if c.baseURL == "" {
		return ErrNoBackend
	}

	var body streamRequest
	body.Input.Question = question
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	logging.Debug("stream opening", "endpoint", c.Endpoint())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: "connect", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := readStatusError(resp)
		logging.Warn("stream rejected", "status", resp.StatusCode)
		return statusErr
	}

	frames, err := c.processStream(ctx, resp.Body, fn)
	logging.Debug("stream closed",
		"frames", frames,
		"duration", time.Since(start).Round(time.Millisecond),
		"err", err)
	return err
}

// setHeaders sets the common headers for stream requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)
}

// processStream reads frames until end, EOF or error and returns how many
// frames were delivered.
func (c *Client) processStream(ctx context.Context, body io.Reader, fn EventHandler) (int, error) {
	reader := NewSSEReader(body)
	frames := 0

	for {
		ev, err := reader.ReadEvent()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return frames, ctxErr
			}
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, &TransportError{Op: "read", Err: err}
		}

		// Drop frames that race with cancellation.
		if ctx.Err() != nil {
			return frames, ctx.Err()
		}

		frames++
		if fn != nil {
			fn(ev)
		}
		if ev.Type == EventEnd {
			return frames, nil
		}
	}
}

// readStatusError builds a StatusError from a non-2xx response.
func readStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
