// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

// =============================================================================
// RENDER THROTTLE
// =============================================================================

// frameLimiter caps viewport rebuilds while tokens stream in.
//
// PERFORMANCE: a backend can emit hundreds of tokens per second and each
// rebuild re-wraps the whole transcript. Rebuilds are capped at the
// configured fps:
//   - a request within budget draws immediately
//   - otherwise one renderTickMsg is scheduled for the next frame
//   - requests while a tick is pending only mark the content dirty
//
// The final event of a turn always forces a full refresh, so nothing is
// lost to throttling.
type frameLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	dirty    bool
	pending  bool
}

func newFrameLimiter(fps int) *frameLimiter {
	f := &frameLimiter{}
	f.setFPS(fps)
	return f
}

// setFPS changes the frame cap. Non-positive values fall back to 30.
func (f *frameLimiter) setFPS(fps int) {
	if fps <= 0 {
		fps = 30
	}
	f.interval = time.Second / time.Duration(fps)
	f.limiter = rate.NewLimiter(rate.Every(f.interval), 1)
}

// request marks the view dirty. It returns true when a frame may be drawn
// immediately; otherwise the returned command delivers a renderTickMsg once
// the frame budget allows.
func (f *frameLimiter) request() (bool, tea.Cmd) {
	f.dirty = true
	if f.limiter.Allow() {
		return true, nil
	}
	if f.pending {
		return false, nil
	}
	f.pending = true
	return false, tea.Tick(f.interval, func(time.Time) tea.Msg {
		return renderTickMsg{}
	})
}

// tick consumes a deferred tick and reports whether a redraw is owed.
func (f *frameLimiter) tick() bool {
	f.pending = false
	return f.dirty
}

// drawn records that the view is up to date.
func (f *frameLimiter) drawn() {
	f.dirty = false
}
