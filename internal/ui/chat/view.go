// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// View implements tea.Model.
// Layout: header (1) + transcript viewport + input (3 + border) + footer (2).
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.theme.InputBorder.Width(m.width).Render(m.input.View()),
		m.renderStatus(),
		m.renderDisclaimer(),
	)
}

// contentWidth is the text width inside a message bubble.
func (m Model) contentWidth() int {
	// border (2) + padding (2)
	return m.theme.BubbleWidth() - 4
}

// =============================================================================
// HEADER AND FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.cfg.UI.Title)
	meta := m.theme.HeaderMeta.Render(backendHost(m.cfg.Backend.URL))

	gap := m.width - 2 - lipgloss.Width(title) - lipgloss.Width(meta)
	if gap < 1 {
		return m.theme.Header.Width(m.width).Render(util.TruncateWidth(title, m.width-2))
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + meta)
}

func (m Model) renderStatus() string {
	width := m.width - 2
	var line string

	switch m.session.Status {
	case session.StatusErrored:
		text := styles.StatusIndicators.Error + " " + errorText(m.session.Err)
		line = m.theme.StatusError.Render(util.TruncateWidth(text, width))

	case session.StatusStreaming:
		line = m.spinner.View() + " " + m.theme.StatusBusy.Render("Answering")
		if m.hint != "" {
			line += "  " + m.theme.ShortcutDesc.Render(m.hint)
		}

	default:
		if m.hint != "" {
			line = m.theme.StatusReady.Render(styles.StatusIndicators.Ready) + " " +
				m.theme.ShortcutDesc.Render(util.TruncateWidth(m.hint, width-5))
		} else {
			line = m.renderShortcuts()
		}
	}
	return m.theme.Footer.Width(m.width).Render(line)
}

func (m Model) renderShortcuts() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderDisclaimer() string {
	return m.theme.Disclaimer.
		Width(m.width).
		Align(lipgloss.Center).
		Render(Disclaimer)
}

// errorText returns the first line of err for the status bar.
func errorText(err error) string {
	if err == nil {
		return "Error"
	}
	return "Error: " + util.FirstLine(err.Error())
}

// backendHost returns the host of raw, or raw itself if it does not parse.
func backendHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	msgs := m.session.Transcript
	if msgs.IsEmpty() {
		return m.theme.HeaderMeta.Render("Ask a question about the indexed documents.")
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.IsUser() {
			parts = append(parts, m.renderUser(msg))
		} else {
			parts = append(parts, m.renderAssistant(msg))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderUser(msg model.Message) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	bubble := m.theme.UserBubble.Width(m.theme.BubbleWidth()).Render(msg.Text)
	block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
}

func (m Model) renderAssistant(msg model.Message) string {
	width := m.contentWidth()

	body := msg.Text
	if !msg.IsOpen() && m.cfg.UI.Markdown && body != "" {
		if out, ok := m.markdown.render(msg.ID, body); ok {
			body = out
		}
	}
	if msg.IsOpen() && body == "" {
		body = m.spinner.View() + " Searching documents..."
	}
	if cites := m.renderCitations(msg, width); cites != "" {
		body += "\n" + cites
	}

	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	return label + "\n" + m.theme.AssistantBubble.Width(m.theme.BubbleWidth()).Render(body)
}

// renderCitations lists the message's sources under a rule, one per line.
func (m Model) renderCitations(msg model.Message, width int) string {
	if len(msg.Sources) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.CitationRule.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(m.theme.CitationHeader.Render("Sources"))
	for i, c := range rag.Citations(m.staticBase, msg.Sources) {
		prefix := fmt.Sprintf("%d. ", i+1)
		b.WriteString("\n")
		b.WriteString(prefix)
		b.WriteString(m.citationLink(c, width-len(prefix)))
	}
	return b.String()
}

// citationLink renders c as an OSC 8 hyperlink when the terminal supports
// it, otherwise as the label followed by the URL.
func (m Model) citationLink(c rag.Citation, width int) string {
	label := c.Label
	if label == "" {
		label = c.Source
	}
	label = util.TruncateMiddle(label, width)

	if c.URL == "" {
		return label
	}
	if m.cfg.UI.Hyperlinks && m.theme.SupportsHyperlinks() {
		return termenv.Hyperlink(c.URL, m.theme.Link.Render(label))
	}
	return label + " " + m.theme.HeaderMeta.Render(c.URL)
}
