// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ragchat command line.
//
// Commands:
//
//	ragchat [tui]              full-screen chat
//	ragchat ask "question"     one streamed answer on stdout
//	ragchat chat               line-mode chat with history
//	ragchat config show|path|validate|init
//	ragchat mock-backend       fixture RAG backend for local testing
//	ragchat version
//
// Configuration precedence is defaults < config file < .env/environment <
// command-line flags.
package cli
