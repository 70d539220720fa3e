// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// init configures lipgloss for stdout's capabilities.
func init() {
	lipgloss.SetColorProfile(colorProfile(os.Stdout))
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// titleStyle is used for section titles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// promptStyle is the chat prompt
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("141")) // Purple

	// errorStyle is used for error messages
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	// successStyle is used for success messages
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	// dimStyle is used for secondary information
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// linkStyle is used for citation labels
	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44")). // Teal
			Underline(true)
)
