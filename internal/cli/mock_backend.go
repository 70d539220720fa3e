// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/devserver"
	"github.com/jeranaias/ragchat-tui/internal/logging"
)

type mockBackendOptions struct {
	addr      string
	staticDir string
	delay     time.Duration
}

func newMockBackendCmd(root *rootOptions) *cobra.Command {
	opts := &mockBackendOptions{}

	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run a fixture RAG backend for local testing",
		Long: `Run a fixture RAG backend for local testing.

The server answers POST /rag/stream with a keyword match over a small
built-in corpus, streamed as SSE data events and closed with an end event.
Cited files are served under /rag/static/. Start a question with "!error"
to receive a backend error event.`,
		Example: `  ragchat mock-backend --addr 127.0.0.1:8000
  ragchat --backend http://127.0.0.1:8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMockBackend(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringVar(&opts.staticDir, "static-dir", "", "serve cited files from this directory instead of the built-in corpus")
	cmd.Flags().DurationVar(&opts.delay, "delay", 30*time.Millisecond, "pause between streamed tokens")
	return cmd
}

func runMockBackend(cmd *cobra.Command, root *rootOptions, opts *mockBackendOptions) error {
	level := root.logLevel
	if level == "" {
		level = "info"
	}
	logging.InitWriter(level, cmd.ErrOrStderr())
	defer logging.Close()

	if opts.staticDir != "" {
		if info, err := os.Stat(opts.staticDir); err != nil || !info.IsDir() {
			return fmt.Errorf("static dir %q is not a directory", opts.staticDir)
		}
	}

	handler := devserver.New(devserver.Options{
		StaticDir: opts.staticDir,
		Delay:     opts.delay,
	})

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "mock backend listening on http://%s\n", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
