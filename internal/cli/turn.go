// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// answerPrinter writes one turn's answer to a line-oriented terminal.
// Text is written as it streams unless markdown is on, in which case the
// complete answer is rendered with glamour when the turn closes.
type answerPrinter struct {
	out        io.Writer
	staticBase string
	width      int
	markdown   bool
	hyperlinks bool
	quiet      bool // suppress the answer, e.g. when dumping raw events

	written int // bytes of answer text already written
}

// progress writes any answer text not yet printed.
func (p *answerPrinter) progress(t model.Transcript) {
	if p.quiet || p.markdown {
		return
	}
	last, ok := t.Last()
	if !ok || last.IsUser() || len(last.Text) <= p.written {
		return
	}
	fmt.Fprint(p.out, last.Text[p.written:])
	p.written = len(last.Text)
}

// finish completes the answer and lists its citations.
func (p *answerPrinter) finish(t model.Transcript) {
	if p.quiet {
		return
	}
	last, ok := t.Last()
	if !ok || last.IsUser() {
		return
	}

	if p.markdown && last.Text != "" {
		fmt.Fprint(p.out, renderMarkdown(last.Text, p.width))
	}
	if p.written > 0 || p.markdown {
		fmt.Fprintln(p.out)
	}

	if len(last.Sources) == 0 {
		return
	}
	fmt.Fprintln(p.out, titleStyle.Render("Sources"))
	for i, c := range rag.Citations(p.staticBase, last.Sources) {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, p.link(c))
	}
}

// link renders a citation as an OSC 8 hyperlink or as "label <url>".
func (p *answerPrinter) link(c rag.Citation) string {
	label := util.TruncateMiddle(c.Label, p.width-8)
	if c.URL == "" {
		return label
	}
	if p.hyperlinks {
		return termenv.Hyperlink(c.URL, linkStyle.Render(label))
	}
	return label + " " + dimStyle.Render("<"+c.URL+">")
}

// renderMarkdown renders markdown for the terminal, returning text unchanged
// if glamour fails.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// runTurn submits question on sess, streams the answer through p and returns
// the updated session. onEvent, when set, sees every raw frame.
//
// A stream error, a backend error event or an undecodable chunk leaves the
// session in StatusErrored and is returned.
func runTurn(ctx context.Context, client *rag.Client, sess session.Session, question string,
	p *answerPrinter, onEvent func(rag.Event)) (session.Session, error) {

	next, turn, err := sess.Submit(question)
	if err != nil {
		return sess, err
	}
	sess = next
	p.written = 0

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streamErr := client.Stream(ctx, turn.Question, func(ev rag.Event) {
		if onEvent != nil {
			onEvent(ev)
		}
		var applyErr error
		sess, applyErr = sess.Apply(turn.ID, ev)
		if errors.Is(applyErr, session.ErrStaleTurn) {
			return
		}
		p.progress(sess.Transcript)
		if !sess.Streaming() {
			// end or failure; stop reading.
			cancel()
		}
	})
	sess = sess.Finish(turn.ID, streamErr)
	p.finish(sess.Transcript)

	logging.Info("turn finished", "turn", turn.ID, "status", sess.Status, "elapsed", time.Since(turn.Started))
	if sess.Status == session.StatusErrored {
		return sess, sess.Err
	}
	return sess, nil
}
