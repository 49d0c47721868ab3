// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sidebar

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/history"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/session"
	"github.com/jeranaias/echo-history/internal/ui/styles"
	"github.com/jeranaias/echo-history/internal/util"
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures the sidebar.
type Options struct {
	// History is the controller the sidebar renders and mutates. Required.
	History *history.Manager

	// Session drives idle timeout and autosave ticks. Optional.
	Session *session.Manager

	// Theme defaults to styles.NewTheme().
	Theme *styles.Theme

	// ExportDir receives markdown exports. Default: current directory.
	ExportDir string
	Export    export.Options
}

// Model is the sidebar's Bubble Tea model.
type Model struct {
	hist  *history.Manager
	sess  *session.Manager
	theme *styles.Theme
	keys  KeyMap

	search    textinput.Model
	searching bool

	cursor int
	offset int
	width  int
	height int

	exportDir string
	exportOpt export.Options

	// pendingDelete holds the ID awaiting a second delete press.
	pendingDelete string

	status      string
	statusLevel styles.StatusLevel
	quitting    bool
}

// New creates a sidebar model.
func New(opts Options) Model {
	if opts.History == nil {
		panic("sidebar: Options.History is required")
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search titles and messages"
	ti.PromptStyle = opts.Theme.SearchPrompt
	ti.CharLimit = 200
	ti.SetValue(opts.History.Query())

	return Model{
		hist:      opts.History,
		sess:      opts.Session,
		theme:     opts.Theme,
		keys:      DefaultKeyMap(),
		search:    ti,
		exportDir: opts.ExportDir,
		exportOpt: opts.Export,
	}
}

// Init starts the session ticker when a session is attached.
func (m Model) Init() tea.Cmd {
	if m.sess != nil {
		return session.TickCmd()
	}
	return nil
}

// Cursor returns the selected row index.
func (m Model) Cursor() int {
	return m.cursor
}

// Searching reports whether the search box has focus.
func (m Model) Searching() bool {
	return m.searching
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}

// Selected returns the conversation under the cursor.
func (m Model) Selected() (model.Conversation, bool) {
	items := m.hist.Filtered()
	if len(items) == 0 {
		return model.Conversation{}, false
	}
	return items[min(m.cursor, len(items)-1)], true
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, m.listWidth()-4)
		m.scroll()
		return m, nil

	case session.TickMsg:
		if m.sess == nil {
			return m, nil
		}
		return m, m.sess.HandleTick()

	case session.TimeoutWarningMsg:
		m.setStatus(styles.StatusWarning, "Session ends in %s without activity", session.FormatDuration(msg.Remaining))
		return m, nil

	case session.TimeoutMsg:
		m.quitting = true
		return m, tea.Quit

	case session.AutoSaveMsg:
		if msg.Err != nil {
			m.setStatus(styles.StatusError, "Autosave failed: %v", msg.Err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.sess != nil {
			m.sess.RecordActivity()
		}
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.hist.SearchConversations("")
		m.cursor, m.offset = 0, 0
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.hist.SearchConversations(m.search.Value())
	m.cursor, m.offset = 0, 0
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.pendingDelete
	m.pendingDelete = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.status = ""
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Cancel):
		if pending != "" {
			m.setStatus(styles.StatusInfo, "Delete cancelled")
			return m, nil
		}
		if m.hist.Query() != "" {
			m.search.SetValue("")
			m.hist.SearchConversations("")
			m.cursor, m.offset = 0, 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.hist.Filtered()))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.hist.Filtered()))

	case key.Matches(msg, m.keys.Select):
		if conv, ok := m.Selected(); ok {
			m.hist.SetCurrentConversation(conv.ID)
			m.setStatus(styles.StatusInfo, "Opened %q", conv.Title)
		}

	case key.Matches(msg, m.keys.Bookmark):
		m.toggleBookmark()

	case key.Matches(msg, m.keys.Delete):
		m.delete(pending)

	case key.Matches(msg, m.keys.Export):
		m.export()
	}

	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) move(delta int) {
	n := len(m.hist.Filtered())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = max(0, min(n-1, m.cursor+delta))
	m.scroll()
}

func (m *Model) toggleBookmark() {
	conv, ok := m.Selected()
	if !ok {
		return
	}
	bookmarked, _, err := m.hist.ToggleBookmark(conv.ID)
	m.follow(conv.ID)
	if m.reportErr(err) {
		return
	}
	if bookmarked {
		m.setStatus(styles.StatusSuccess, "Bookmarked %q", conv.Title)
	} else {
		m.setStatus(styles.StatusInfo, "Removed bookmark from %q", conv.Title)
	}
}

// delete asks for confirmation on the first press and deletes on the second.
func (m *Model) delete(pending string) {
	conv, ok := m.Selected()
	if !ok {
		return
	}
	if pending != conv.ID {
		m.pendingDelete = conv.ID
		m.setStatus(styles.StatusWarning, "Press d again to delete %q", conv.Title)
		return
	}

	err := m.hist.DeleteConversation(conv.ID)
	m.move(0)
	if m.reportErr(err) {
		return
	}
	m.setStatus(styles.StatusSuccess, "Deleted %q", conv.Title)
}

func (m *Model) export() {
	conv, ok := m.Selected()
	if !ok {
		return
	}
	path, err := export.WriteFile(m.exportDir, &conv, export.FormatMarkdown, m.exportOpt)
	if err != nil {
		m.setStatus(styles.StatusError, "Export failed: %v", err)
		return
	}
	m.setStatus(styles.StatusSuccess, "Exported to %s", path)
}

// follow keeps the cursor on id after the list reorders.
func (m *Model) follow(id string) {
	for i, c := range m.hist.Filtered() {
		if c.ID == id {
			m.cursor = i
			m.scroll()
			return
		}
	}
	m.move(0)
}

// reportErr shows err on the status line. Persistence failures are warnings:
// the change is kept in memory and retried on the next save.
func (m *Model) reportErr(err error) bool {
	if err == nil {
		return false
	}
	var perr *history.PersistError
	if errors.As(err, &perr) {
		m.setStatus(styles.StatusWarning, "Not saved (will retry): %v", perr.Err)
		return true
	}
	m.setStatus(styles.StatusError, "%v", err)
	return true
}

func (m *Model) setStatus(level styles.StatusLevel, format string, args ...any) {
	m.statusLevel = level
	m.status = util.SingleLine(fmt.Sprintf(format, args...))
}

// scroll keeps the cursor inside the visible window.
func (m *Model) scroll() {
	rows := m.visibleRows()
	if rows <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}
