// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseHandler writes frames as SSE and flushes after each one.
func sseHandler(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprint(w, f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func collect() (*[]Event, EventHandler) {
	var events []Event
	return &events, func(ev Event) { events = append(events, ev) }
}

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotHeader http.Header
		gotBody   map[string]map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		sseHandler("event: end\n\n")(w, r)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).WithHTTPClient(srv.Client()).Stream(context.Background(), "  What was ruled?  ", nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, DefaultStreamPath, gotPath)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", gotHeader.Get("Accept"))
	assert.Equal(t, "What was ruled?", gotBody["input"]["question"])
}

func TestClient_CustomStreamPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		sseHandler("event: end\n\n")(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/").WithStreamPath("api/stream")
	require.NoError(t, c.Stream(context.Background(), "q", nil))

	assert.Equal(t, "/api/stream", gotPath)
	assert.Equal(t, srv.URL+"/api/stream", c.Endpoint())
}

func TestClient_DeliversEventsInOrderAndStopsAtEnd(t *testing.T) {
	srv := httptest.NewServer(sseHandler(
		"event: metadata\ndata: {\"run_id\":\"r\"}\n\n",
		"event: data\ndata: {\"docs\":[{\"metadata\":{\"source\":\"a.pdf\"}}]}\n\n",
		"event: data\ndata: {\"answer\":{\"content\":\"Hel\"}}\n\n",
		"event: data\ndata: {\"answer\":{\"content\":\"lo\"}}\n\n",
		"event: end\n\n",
		"event: data\ndata: {\"answer\":{\"content\":\"after end\"}}\n\n",
	))
	defer srv.Close()

	events, fn := collect()
	require.NoError(t, NewClient(srv.URL).WithHTTPClient(srv.Client()).Stream(context.Background(), "q", fn))

	require.Len(t, *events, 5)
	types := make([]string, 0, 5)
	for _, ev := range *events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"metadata", "data", "data", "data", "end"}, types)
	assert.JSONEq(t, `{"answer":{"content":"lo"}}`, string((*events)[3].Data))
}

func TestClient_CleanCloseWithoutEnd(t *testing.T) {
	srv := httptest.NewServer(sseHandler("event: data\ndata: {}\n\n"))
	defer srv.Close()

	events, fn := collect()
	require.NoError(t, NewClient(srv.URL).WithHTTPClient(srv.Client()).Stream(context.Background(), "q", fn))
	assert.Len(t, *events, 1)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such chain", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Stream(context.Background(), "q", nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no such chain", se.Body)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(sseHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url).Stream(context.Background(), "q", nil)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "connect", te.Op)
}

func TestClient_EmptyQuestion(t *testing.T) {
	err := NewClient("http://unused").Stream(context.Background(), " \n\t", nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestClient_NoBackend(t *testing.T) {
	err := NewClient("").Stream(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestClient_Cancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: data\ndata: {\"answer\":{\"content\":\"x\"}}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	err := NewClient(srv.URL).Stream(ctx, "q", func(Event) {
		once.Do(cancel)
	})

	assert.ErrorIs(t, err, context.Canceled)
}

// countingTransport records how many requests pass through it.
type countingTransport struct {
	mu    sync.Mutex
	count int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return c.next.RoundTrip(r)
}

func TestClient_WithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(sseHandler("event: end\n\n"))
	defer srv.Close()

	rt := &countingTransport{next: srv.Client().Transport}
	c := NewClient(srv.URL).WithHTTPClient(&http.Client{Transport: rt})
	require.NoError(t, c.Stream(context.Background(), "q", nil))
	assert.Equal(t, 1, rt.count)

	// nil keeps the current client.
	require.NoError(t, c.WithHTTPClient(nil).Stream(context.Background(), "q", nil))
	assert.Equal(t, 2, rt.count)
}
