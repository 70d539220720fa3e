// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the ragchat TUI.
//
// All colors are lipgloss.AdaptiveColor values so one palette serves light
// and dark terminals. NewTheme resolves the background mode once, from the
// ui.theme setting or by asking the terminal.
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	theme.SetSize(width, height)
//	bubble := theme.UserBubble.Width(theme.BubbleWidth()).Render(text)
package styles
