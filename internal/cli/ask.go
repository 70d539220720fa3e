// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/export"
	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
)

type askOptions struct {
	markdown bool
	events   bool
	output   string
}

func newAskCmd(root *rootOptions) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and stream the answer to stdout",
		Long: `Ask one question and stream the answer to stdout.

The question may be given as arguments or piped on stdin. Cited sources are
listed after the answer.`,
		Example: `  ragchat ask "What did the court decide about anti-steering?"
  echo "Who testified?" | ragchat ask
  ragchat ask --events "hello"
  ragchat ask --output answer.md "Summarize the ruling"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runAsk(cmd, root, opts, question)
		},
	}

	cmd.Flags().BoolVarP(&opts.markdown, "markdown", "m", false, "render the final answer as markdown")
	cmd.Flags().BoolVarP(&opts.events, "events", "e", false, "print raw stream events instead of the answer")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also save the exchange to a .md or .json file")
	return cmd
}

// readQuestion joins args, or reads stdin when no args are given and stdin
// is not a terminal.
func readQuestion(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && isTerminalWriter(f) {
		return "", fmt.Errorf("no question given")
	}
	data, err := io.ReadAll(io.LimitReader(stdin, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read question: %w", err)
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", fmt.Errorf("no question given")
	}
	return q, nil
}

func runAsk(cmd *cobra.Command, root *rootOptions, opts *askOptions, question string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	defer logging.Close()

	out := cmd.OutOrStdout()
	profile := colorProfile(out)

	p := &answerPrinter{
		out:        out,
		staticBase: cfg.StaticBase(),
		width:      terminalWidth(out),
		markdown:   opts.markdown,
		hyperlinks: cfg.UI.Hyperlinks && profile != termenv.Ascii,
		quiet:      opts.events,
	}

	if opts.output != "" {
		if _, err := export.ForPath(opts.output, nil); err != nil {
			return err
		}
	}

	var onEvent func(rag.Event)
	if opts.events {
		onEvent = func(ev rag.Event) {
			printEvent(out, ev, profile != termenv.Ascii)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sess, err := runTurn(ctx, cfg.NewClient(), session.New(), question, p, onEvent)
	if opts.output != "" && !sess.Transcript.IsEmpty() {
		doc := export.NewDocument(cfg.UI.Title, cfg.StaticBase(), sess.Transcript)
		if werr := export.WriteFile(doc, opts.output, nil); werr != nil {
			return errors.Join(err, werr)
		}
		if !opts.events {
			fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render("[OK]")+" saved "+opts.output)
		}
	}
	return err
}

// printEvent writes one frame as "event: <type>" followed by its data,
// pretty-printed and highlighted when it is JSON.
func printEvent(w io.Writer, ev rag.Event, color bool) {
	fmt.Fprintln(w, dimStyle.Render("event: "+ev.Type))
	if len(ev.Data) == 0 {
		fmt.Fprintln(w)
		return
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, ev.Data, "", "  "); err != nil {
		fmt.Fprintf(w, "%s\n\n", ev.Data)
		return
	}
	if color {
		if err := quick.Highlight(w, buf.String(), "json", "terminal256", "monokai"); err == nil {
			fmt.Fprint(w, "\n\n")
			return
		}
	}
	fmt.Fprintf(w, "%s\n\n", buf.String())
}
