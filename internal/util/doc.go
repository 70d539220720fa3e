// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the UI and CLI.
//
// String helpers measure display width with go-runewidth so that CJK and
// emoji in citation labels and answers line up in the terminal.
//
//	label := util.TruncateWidth(citation.Label, 40)
//
// AtomicWriteFile writes the config file crash-safely.
package util
