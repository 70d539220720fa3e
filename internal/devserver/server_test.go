// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(opts))
	t.Cleanup(srv.Close)
	return srv
}

// runTurn submits question through a session and applies every event.
func runTurn(t *testing.T, srv *httptest.Server, question string) session.Session {
	t.Helper()
	s, turn, err := session.New().Submit(question)
	require.NoError(t, err)

	streamErr := rag.NewClient(srv.URL).Stream(context.Background(), turn.Question, func(ev rag.Event) {
		s, _ = s.Apply(turn.ID, ev)
	})
	return s.Finish(turn.ID, streamErr)
}

func TestStream_EndToEnd(t *testing.T) {
	srv := newTestServer(t, Options{})

	s := runTurn(t, srv, "What did the court find about anti-steering provisions?")

	assert.Equal(t, session.StatusIdle, s.Status)
	require.Len(t, s.Transcript, 2)
	answer := s.Transcript[1]
	assert.Contains(t, answer.Text, "anti-steering")
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "corpus/epic-v-apple/rule-52-findings.pdf", answer.Sources[0])
	assert.False(t, answer.IsOpen())
}

func TestStream_TextMatchesResponderExactly(t *testing.T) {
	want := "Line one.\n\nLine  two with  spaces."
	srv := newTestServer(t, Options{Responder: func(string) Answer {
		return Answer{Text: want, Sources: []string{"a/b.pdf"}}
	}})

	s := runTurn(t, srv, "anything")

	require.Len(t, s.Transcript, 2)
	assert.Equal(t, want, s.Transcript[1].Text)
	assert.Equal(t, []string{"a/b.pdf"}, s.Transcript[1].Sources)
}

func TestStream_ErrorFrame(t *testing.T) {
	srv := newTestServer(t, Options{})

	s := runTurn(t, srv, "!error model overloaded")

	assert.Equal(t, session.StatusErrored, s.Status)
	var be *rag.BackendError
	require.True(t, errors.As(s.Err, &be))
	assert.Equal(t, "model overloaded", be.Message)
	assert.Equal(t, "Partial answer before failure.", s.Transcript[1].Text)
}

func TestStream_NoMatch(t *testing.T) {
	srv := newTestServer(t, Options{})

	s := runTurn(t, srv, "zzzz qqqq")

	require.Len(t, s.Transcript, 2)
	assert.Empty(t, s.Transcript[1].Sources)
}

func TestStream_RejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, body := range []string{`{`, `{"input":{"question":"  "}}`} {
		resp, err := http.Post(srv.URL+"/rag/stream", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	}
}

func TestStream_CustomPath(t *testing.T) {
	srv := newTestServer(t, Options{StreamPath: "/chat/stream"})

	err := rag.NewClient(srv.URL).WithStreamPath("/chat/stream").Stream(context.Background(), "market", nil)
	assert.NoError(t, err)

	err = rag.NewClient(srv.URL).Stream(context.Background(), "market", nil)
	var se *rag.StatusError
	assert.True(t, errors.As(err, &se))
}

func TestStatic_CorpusFile(t *testing.T) {
	srv := newTestServer(t, Options{})
	link := rag.Link(srv.URL+"/rag/static/", "corpus/epic-v-apple/market-definition.txt")

	resp, err := http.Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "digital mobile gaming")

	resp2, err := http.Get(srv.URL + "/rag/static/missing.pdf")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestStatic_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeTestFile(dir, "Exhibit 12.pdf", "pdf-bytes"))
	srv := newTestServer(t, Options{StaticDir: dir})

	resp, err := http.Get(rag.Link(srv.URL+"/rag/static/", "uploads/Exhibit 12.pdf"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pdf-bytes", string(body))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// CORPUS HELPERS
// =============================================================================

func TestTokenize_Concatenates(t *testing.T) {
	for _, text := range []string{"", "one", "a b c", "  lead", "trail  ", "x\n\ny"} {
		assert.Equal(t, text, strings.Join(tokenize(text), ""))
	}
	assert.Equal(t, []string{"The", " court", " held."}, tokenize("The court held."))
}

func TestRank(t *testing.T) {
	hits := rank(DefaultCorpus, "Was Apple held in contempt?")
	require.NotEmpty(t, hits)
	assert.Equal(t, "corpus/epic-v-apple/contempt-order-2025.pdf", hits[0].Source)

	assert.Empty(t, rank(DefaultCorpus, "the of and"))
}
