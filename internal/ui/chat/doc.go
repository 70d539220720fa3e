// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for ragchat.
//
// The Model owns a session.Session value and replaces it on every message.
// Streaming runs on a StreamRunner goroutine that forwards each SSE frame to
// the program as a StreamEventMsg tagged with its turn ID, so frames from a
// cancelled or superseded turn are recognised and dropped by the session.
//
// Redraws during a stream are capped by a rate limiter; the viewport is
// rebuilt at most RenderFPS times per second and once more when the turn
// closes.
package chat
