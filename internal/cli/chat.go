// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/chat"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with input history",
		Long: `Line-mode chat with input history.

Type a question and press Enter. Ctrl+C stops an answer in progress; at the
prompt it exits. Commands: /clear starts a new conversation, /quit exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, root)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader provides line editing and persistent history for chat.
type lineReader struct {
	line        *liner.State
	historyFile string
}

// newLineReader opens a liner session backed by ~/.ragchat/chat_history.
func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, "chat_history")}
	r.loadHistory()
	return r
}

func (r *lineReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
}

// readLine prompts for one line and records non-blank input in history.
func (r *lineReader) readLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// close saves history with owner-only permissions and restores the terminal.
func (r *lineReader) close() {
	defer r.line.Close()
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = r.line.WriteHistory(f)
}

// =============================================================================
// REPL
// =============================================================================

// chatREPL holds the state of a line-mode chat.
type chatREPL struct {
	client  *rag.Client
	printer *answerPrinter
	sess    session.Session

	mu     sync.Mutex
	cancel context.CancelFunc // stops the answer in progress
}

// interrupt stops the answer in progress, if any.
func (c *chatREPL) interrupt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

// ask runs one turn. Errors are reported and the session stays usable.
func (c *chatREPL) ask(ctx context.Context, question string) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer c.interrupt()

	var err error
	c.sess, err = runTurn(ctx, c.client, c.sess, question, c.printer, nil)
	if err != nil && !errors.Is(err, session.ErrEmptyInput) {
		fmt.Fprintln(c.printer.out, errorStyle.Render("[Error]"), err)
	}
	c.sess = c.sess.ClearError()
}

// handle processes one input line. It returns false when the user quits.
func (c *chatREPL) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return true
	case input == "/quit" || input == "/exit":
		return false
	case input == "/clear":
		c.sess = session.New()
		fmt.Fprintln(c.printer.out, dimStyle.Render("Started a new conversation."))
		return true
	}
	c.ask(ctx, input)
	return true
}

func runChat(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	defer logging.Close()

	out := cmd.OutOrStdout()
	repl := &chatREPL{
		client: cfg.NewClient(),
		sess:   session.New(),
		printer: &answerPrinter{
			out:        out,
			staticBase: cfg.StaticBase(),
			width:      terminalWidth(out),
			markdown:   cfg.UI.Markdown,
			hyperlinks: cfg.UI.Hyperlinks && colorProfile(out) != termenv.Ascii,
		},
	}

	// Ctrl+C while an answer streams cancels it; at the prompt liner
	// reports ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()
	go func() {
		for range sigChan {
			if repl.interrupt() {
				fmt.Fprintln(os.Stderr, "\n"+dimStyle.Render("[Cancelled]"))
			}
		}
	}()

	fmt.Fprintln(out, titleStyle.Render(cfg.UI.Title)+" "+dimStyle.Render(cfg.Backend.URL))
	fmt.Fprintln(out, dimStyle.Render(chat.Disclaimer))

	reader := newLineReader()
	defer reader.close()

	for {
		input, err := reader.readLine(promptStyle.Render("ragchat> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		}
		if !repl.handle(cmd.Context(), input) {
			return nil
		}
	}
}
