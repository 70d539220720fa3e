// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/export"
	"github.com/jeranaias/ragchat-tui/internal/logging"
	"github.com/jeranaias/ragchat-tui/internal/rag"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight = 1
	inputHeight  = 3
	inputBorder  = 1
	footerHeight = 2

	mouseWheelLines = 3

	// Placeholder is shown in the empty input box.
	Placeholder = "Enter your message here..."

	// Disclaimer is shown under the input box.
	Disclaimer = "AI answers can be wrong. Check important information."

	hintBusy = "Still answering. Press Esc to stop."

	hintNothingToSave = "Nothing to save yet."
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme
	keys  KeyMap

	// Conversation state
	session    session.Session
	client     *rag.Client
	staticBase string

	// Streaming
	runner    *StreamRunner
	cancelMgr *cancelManager
	frames    *frameLimiter
	markdown  *markdownCache

	// Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// Dimensions
	width  int
	height int
	ready  bool

	// hint is a one-shot status message cleared on the next key press.
	hint string

	// exportDir receives transcripts saved with the Export key.
	exportDir string
}

// New creates a chat model for cfg. A nil theme gets the configured default.
func New(cfg *config.Config, theme *styles.Theme) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = Placeholder
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	return Model{
		cfg:        cfg,
		theme:      theme,
		keys:       keys,
		session:    session.New(),
		client:     cfg.NewClient(),
		staticBase: cfg.StaticBase(),
		runner:     NewStreamRunner(nil),
		cancelMgr:  newCancelManager(),
		frames:     newFrameLimiter(cfg.UI.RenderFPS),
		markdown:   newMarkdownCache(theme.IsDark),
		viewport:   viewport.New(0, 0),
		input:      ta,
		spinner:    sp,
		exportDir:  ".",
	}
}

// AttachProgram connects the stream runner to the running program.
// Call it once tea.NewProgram has returned and before the first turn.
func (m *Model) AttachProgram(s Sender) {
	m.runner.SetSender(s)
}

// Session returns the current session value.
func (m Model) Session() session.Session {
	return m.session
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case ExportDoneMsg:
		if msg.Err != nil {
			logging.Warn("transcript export failed", "error", msg.Err)
			m.hint = "Save failed: " + msg.Err.Error()
		} else {
			logging.Info("transcript exported", "path", msg.Path)
			m.hint = "Saved " + msg.Path
		}
		return m, nil

	case renderTickMsg:
		if m.frames.tick() {
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Streaming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, tea.Batch(cmd, m.requestRender())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.input.SetWidth(msg.Width)

	vpHeight := msg.Height - headerHeight - inputHeight - inputBorder - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
	m.markdown.resize(m.contentWidth())
	m.ready = true

	m.refresh()
	return m, nil
}

// handleMouse scrolls the transcript with the wheel. Other mouse events
// are dropped so clicks never reach the input box.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.MouseWheelUp:
		m.viewport.LineUp(mouseWheelLines)
	case tea.MouseWheelDown:
		m.viewport.LineDown(mouseWheelLines)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.hint = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelMgr.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Interrupt):
		if m.session.Streaming() {
			return m.cancelTurn()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.session.Streaming() {
			return m.cancelTurn()
		}
		m.session = m.session.ClearError()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Export):
		return m.saveTranscript()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session = m.session.WithInput(m.input.Value())
	return m, cmd
}

// submit starts a turn from the input buffer. Blank input is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	next, turn, err := m.session.Submit(m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case errors.Is(err, session.ErrTurnInProgress):
		m.hint = hintBusy
		return m, nil
	case err != nil:
		logging.Warn("submit failed", "error", err)
		return m, nil
	}

	m.session = next
	m.input.Reset()
	logging.Info("turn submitted", "turn", turn.ID, "backend", m.client.Endpoint())

	m.refresh()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.startStream(turn), m.spinner.Tick)
}

// startStream returns a command that runs turn on the stream runner.
func (m Model) startStream(turn session.Turn) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	runner, client := m.runner, m.client
	return func() tea.Msg {
		return runner.Run(ctx, client, turn)
	}
}

// saveTranscript writes the closed turns of the conversation to Markdown
// in the export directory.
func (m Model) saveTranscript() (tea.Model, tea.Cmd) {
	t := m.session.Transcript
	if m.session.Streaming() {
		// Leave out the question and answer still in flight.
		for i := len(t) - 1; i >= 0; i-- {
			if t[i].IsUser() {
				t = t[:i]
				break
			}
		}
	}
	if t.IsEmpty() {
		m.hint = hintNothingToSave
		return m, nil
	}

	doc := export.NewDocument(m.cfg.UI.Title, m.staticBase, t)
	opts := &export.Options{OutputDir: m.exportDir, IncludeTimestamps: true}
	return m, func() tea.Msg {
		path, err := export.ExportToFile(doc, export.NewMarkdownExporter(opts), opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// cancelTurn stops the stream in flight and keeps the partial answer.
func (m Model) cancelTurn() (tea.Model, tea.Cmd) {
	logging.Info("turn cancelled", "turn", m.session.Turn.ID)
	m.cancelMgr.cancel()
	m.session = m.session.Cancel()
	m.refresh()
	return m, nil
}

func (m Model) handleStreamEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	next, err := m.session.Apply(msg.TurnID, msg.Event)
	if errors.Is(err, session.ErrStaleTurn) {
		logging.Debug("dropped stale event", "turn", msg.TurnID, "type", msg.Event.Type)
		return m, nil
	}
	m.session = next

	if err != nil {
		logging.Error("turn failed", "turn", msg.TurnID, "error", err)
	}
	if !m.session.Streaming() {
		// end, error or decode failure: the turn is over.
		m.cancelMgr.cancel()
		m.refresh()
		return m, nil
	}
	return m, m.requestRender()
}

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if !m.session.Streaming() || m.session.Turn.ID != msg.TurnID {
		return m, nil
	}

	m.session = m.session.Finish(msg.TurnID, msg.Err)
	m.cancelMgr.cancel()
	if m.session.Err != nil {
		logging.Error("stream failed", "turn", msg.TurnID, "error", m.session.Err)
	}
	m.refresh()
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Warn("config reload rejected", "error", msg.Err)
		m.hint = "Config reload failed: " + msg.Err.Error()
		return m, nil
	}
	if msg.Config == nil {
		return m, nil
	}

	m.cfg = msg.Config
	m.client = m.cfg.NewClient()
	m.staticBase = m.cfg.StaticBase()
	m.frames.setFPS(m.cfg.UI.RenderFPS)
	m.hint = "Config reloaded"
	logging.Info("config reloaded", "backend", m.client.Endpoint())

	m.refresh()
	return m, nil
}

// =============================================================================
// RENDER SCHEDULING
// =============================================================================

// requestRender redraws now if the frame budget allows, otherwise defers.
func (m *Model) requestRender() tea.Cmd {
	now, cmd := m.frames.request()
	if now {
		m.refresh()
	}
	return cmd
}

// refresh rebuilds the viewport content, following the bottom if the user
// had not scrolled away.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
	m.frames.drawn()
}
