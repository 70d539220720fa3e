// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/rag"
)

// maxRequestBody bounds the stream request body.
const maxRequestBody = 64 * 1024

// Options configures the fixture server.
type Options struct {
	// StreamPath is the POST endpoint (default /rag/stream).
	StreamPath string
	// StaticPath is the prefix cited files are served under (default /rag/static/).
	StaticPath string
	// StaticDir, when set, serves files from disk instead of the corpus.
	StaticDir string
	// Delay is the pause between answer tokens.
	Delay time.Duration
	// Corpus is searched by the default responder and served as static files.
	Corpus []Document
	// Responder overrides keyword retrieval.
	Responder Responder
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.StreamPath == "" {
		o.StreamPath = rag.DefaultStreamPath
	}
	if o.StaticPath == "" {
		o.StaticPath = "/rag/static/"
	}
	if !strings.HasSuffix(o.StaticPath, "/") {
		o.StaticPath += "/"
	}
	if o.Corpus == nil {
		o.Corpus = DefaultCorpus
	}
	if o.Responder == nil {
		o.Responder = KeywordResponder(o.Corpus, 2)
	}
	return o
}

// Server is the fixture backend.
type Server struct {
	opts Options
}

// New returns the fixture backend as an http.Handler.
func New(opts Options) http.Handler {
	s := &Server{opts: opts.withDefaults()}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post(s.opts.StreamPath, s.handleStream)

	if s.opts.StaticDir != "" {
		fs := http.StripPrefix(s.opts.StaticPath, http.FileServer(http.Dir(s.opts.StaticDir)))
		r.Handle(s.opts.StaticPath+"*", fs)
	} else {
		r.Get(s.opts.StaticPath+"{name}", s.handleCorpusFile)
	}

	return r
}

// requestLogger logs each request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// STREAM ENDPOINT
// =============================================================================

type streamRequest struct {
	Input struct {
		Question string `json:"question"`
	} `json:"input"`
}

type wireDoc struct {
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	body := io.LimitReader(r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Input.Question)
	if question == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "input.question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sse := &sseWriter{w: w, flusher: flusher}
	if err := s.stream(r.Context(), sse, question); err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("stream aborted", "err", err)
	}
}

// stream writes one full answer.
func (s *Server) stream(ctx context.Context, sse *sseWriter, question string) error {
	answer := s.opts.Responder(question)

	if err := sse.send("metadata", map[string]string{"run_id": uuid.NewString()}); err != nil {
		return err
	}

	if len(answer.Sources) > 0 {
		docs := make([]wireDoc, 0, len(answer.Sources))
		for _, src := range answer.Sources {
			docs = append(docs, wireDoc{
				PageContent: s.contentOf(src),
				Metadata:    map[string]string{"source": src},
			})
		}
		if err := sse.send(rag.EventData, map[string]any{"docs": docs}); err != nil {
			return err
		}
	}

	for _, tok := range tokenize(answer.Text) {
		if err := sleep(ctx, s.opts.Delay); err != nil {
			return err
		}
		payload := map[string]any{"answer": map[string]string{"content": tok, "type": "AIMessageChunk"}}
		if err := sse.send(rag.EventData, payload); err != nil {
			return err
		}
	}

	if answer.Err != "" {
		return sse.send(rag.EventError, map[string]any{"status_code": http.StatusInternalServerError, "message": answer.Err})
	}
	return sse.sendBare(rag.EventEnd)
}

// contentOf returns the corpus text for source, if known.
func (s *Server) contentOf(source string) string {
	for _, doc := range s.opts.Corpus {
		if doc.Source == source {
			return doc.Content
		}
	}
	return ""
}

// =============================================================================
// STATIC FILES
// =============================================================================

func (s *Server) handleCorpusFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, doc := range s.opts.Corpus {
		if model.SourceFileName(doc.Source) == name {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, doc.Content)
			return
		}
	}
	http.NotFound(w, r)
}

// =============================================================================
// HELPERS
// =============================================================================

// sseWriter frames and flushes events.
type sseWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func (s *sseWriter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) sendBare(event string) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\n\n", event); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
