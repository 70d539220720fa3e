// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// Message bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style

	// Citations
	CitationHeader lipgloss.Style
	CitationRule   lipgloss.Style
	Link           lipgloss.Style

	// Input area
	InputBorder lipgloss.Style
	Spinner     lipgloss.Style

	// Footer and status line
	Footer       lipgloss.Style
	Disclaimer   lipgloss.Style
	StatusReady  lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a theme for the given mode: "dark", "light" or "auto".
// Auto asks the terminal for its background color.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.CitationHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.CitationRule = lipgloss.NewStyle().
		Foreground(Overlay)

	t.Link = lipgloss.NewStyle().
		Foreground(Cyan).
		Underline(true)

	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Cyan)

	t.Footer = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.Disclaimer = lipgloss.NewStyle().
		Italic(true).
		Foreground(TextMuted)

	t.StatusReady = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Bold(true).Foreground(Rose)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme's dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth returns the content width for message bubbles: the terminal
// width less margins, capped so long answers stay readable.
func (t *Theme) BubbleWidth() int {
	const (
		margin   = 4
		maxWidth = 100
		minWidth = 20
	)
	w := t.Width - margin
	if w > maxWidth {
		w = maxWidth
	}
	if w < minWidth {
		w = minWidth
	}
	return w
}

// SupportsHyperlinks reports whether the terminal is likely to render OSC 8
// links. Plain ASCII profiles (pipes, dumb terminals) get plain text.
func (t *Theme) SupportsHyperlinks() bool {
	return t.ColorProfile != termenv.Ascii
}
