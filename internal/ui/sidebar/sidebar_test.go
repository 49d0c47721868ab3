// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sidebar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/history"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/session"
	"github.com/jeranaias/echo-history/internal/storage"
	"github.com/jeranaias/echo-history/internal/ui/styles"
)

// =============================================================================
// FIXTURES
// =============================================================================

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// failingRepo wraps a store and fails saves while fail is set.
type failingRepo struct {
	*storage.Store
	fail bool
}

func (r *failingRepo) Save(convs []model.Conversation) error {
	if r.fail {
		return errors.New("disk full")
	}
	return r.Store.Save(convs)
}

func newHistory(t *testing.T, repo storage.Repository, titles ...string) *history.Manager {
	t.Helper()
	clock := &stepClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	h := history.New(history.Options{Repository: repo, Clock: clock.Now})
	h.LoadConversations()
	for _, title := range titles {
		_, err := h.CreateConversation(model.DefaultSettings(), title)
		require.NoError(t, err)
	}
	return h
}

func newModel(t *testing.T, h *history.Manager) Model {
	t.Helper()
	return New(Options{
		History:   h,
		Theme:     styles.NewThemeWithProfile(termenv.Ascii),
		ExportDir: t.TempDir(),
	})
}

func memRepo() *failingRepo {
	return &failingRepo{Store: storage.NewStore(storage.NewMemoryBackend(), "", nil)}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func selectedTitle(t *testing.T, m Model) string {
	t.Helper()
	conv, ok := m.Selected()
	require.True(t, ok)
	return conv.Title
}

// =============================================================================
// NAVIGATION
// =============================================================================

func TestNavigation(t *testing.T) {
	// Most recent first: gamma, beta, alpha.
	m := newModel(t, newHistory(t, memRepo(), "alpha", "beta", "gamma"))
	assert.Equal(t, "gamma", selectedTitle(t, m))

	m, _ = send(m, runes("j"))
	assert.Equal(t, 1, m.Cursor())
	assert.Equal(t, "beta", selectedTitle(t, m))

	m, _ = send(m, runes("k"), runes("k"))
	assert.Equal(t, 0, m.Cursor(), "cursor stops at the top")

	m, _ = send(m, runes("G"))
	assert.Equal(t, "alpha", selectedTitle(t, m))

	m, _ = send(m, runes("j"))
	assert.Equal(t, 2, m.Cursor(), "cursor stops at the bottom")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.Cursor())
}

func TestSelect_SetsCurrent(t *testing.T) {
	h := newHistory(t, memRepo(), "alpha", "beta")
	m := newModel(t, h)

	m, _ = send(m, runes("j"), tea.KeyMsg{Type: tea.KeyEnter})

	conv, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "alpha", conv.Title)
	assert.Contains(t, m.Status(), "alpha")
}

// =============================================================================
// SEARCH
// =============================================================================

func TestSearch(t *testing.T) {
	h := newHistory(t, memRepo(), "Go generics", "Cooking pasta", "Going hiking")
	m := newModel(t, h)

	m, _ = send(m, runes("/"))
	require.True(t, m.Searching())

	m, _ = send(m, runes("g"), runes("o"))
	assert.Equal(t, "go", h.Query())
	assert.Len(t, h.Filtered(), 2)

	// Keys typed while searching go to the input, not to the list.
	m, _ = send(m, runes("q"))
	assert.Equal(t, "goq", h.Query())
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyBackspace})

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, "go", h.Query(), "enter keeps the query")
	assert.Contains(t, m.View(), "/ go")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "", h.Query())
	assert.Len(t, h.Filtered(), 3)
}

func TestSearch_EscClears(t *testing.T) {
	h := newHistory(t, memRepo(), "alpha", "beta")
	m := newModel(t, h)

	m, _ = send(m, runes("/"), runes("z"))
	assert.Empty(t, h.Filtered())
	assert.Contains(t, m.View(), "No matches")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Len(t, h.Filtered(), 2)
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestBookmark_Toggles(t *testing.T) {
	h := newHistory(t, memRepo(), "alpha", "beta")
	m := newModel(t, h)

	m, _ = send(m, runes("j"))
	target, _ := m.Selected()

	m, _ = send(m, runes("b"))
	conv, ok := h.Get(target.ID)
	require.True(t, ok)
	assert.True(t, conv.IsBookmarked)
	assert.Contains(t, m.Status(), "Bookmarked")
	assert.Equal(t, target.ID, func() string { c, _ := m.Selected(); return c.ID }(), "cursor follows the moved item")
	assert.Contains(t, m.View(), "★ alpha")

	m, _ = send(m, runes("b"))
	conv, _ = h.Get(target.ID)
	assert.False(t, conv.IsBookmarked)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	h := newHistory(t, memRepo(), "alpha", "beta")
	m := newModel(t, h)
	target, _ := m.Selected()

	m, _ = send(m, runes("d"))
	_, ok := h.Get(target.ID)
	assert.True(t, ok, "first press only asks")
	assert.Contains(t, m.Status(), "Press d again")

	m, _ = send(m, runes("d"))
	_, ok = h.Get(target.ID)
	assert.False(t, ok)
	assert.Len(t, h.Conversations(), 1)
	assert.Equal(t, 0, m.Cursor())
}

func TestDelete_CancelledByOtherKey(t *testing.T) {
	h := newHistory(t, memRepo(), "alpha", "beta")
	m := newModel(t, h)

	m, _ = send(m, runes("d"), tea.KeyMsg{Type: tea.KeyEsc}, runes("d"))
	assert.Len(t, h.Conversations(), 2)

	m, _ = send(m, runes("j"))
	assert.Len(t, h.Conversations(), 2, "moving away cancels the pending delete")
}

func TestDelete_LastItemMovesCursorUp(t *testing.T) {
	h := newHistory(t, memRepo(), "alpha", "beta")
	m := newModel(t, h)

	m, _ = send(m, runes("G"), runes("d"), runes("d"))
	assert.Len(t, h.Conversations(), 1)
	assert.Equal(t, 0, m.Cursor())
	assert.Equal(t, "beta", selectedTitle(t, m))
}

func TestExport_WritesMarkdown(t *testing.T) {
	h := newHistory(t, memRepo(), "Trip plan")
	conv := h.Conversations()[0]
	require.NoError(t, h.AppendMessage(conv.ID, model.UserText("Where to?")))

	dir := t.TempDir()
	m := New(Options{History: h, Theme: styles.NewThemeWithProfile(termenv.Ascii), ExportDir: dir})

	m, _ = send(m, runes("e"))

	path := filepath.Join(dir, "Trip plan.md")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Trip plan")
	assert.Contains(t, string(data), "Where to?")
	assert.Contains(t, m.Status(), "Exported to")
	assert.Equal(t, export.Filename(&conv, export.FormatMarkdown), filepath.Base(path))
}

func TestPersistFailure_ShowsWarningAndKeepsChange(t *testing.T) {
	repo := memRepo()
	h := newHistory(t, repo, "alpha")
	m := newModel(t, h)
	repo.fail = true

	m, _ = send(m, runes("b"))

	conv := h.Conversations()[0]
	assert.True(t, conv.IsBookmarked)
	assert.Contains(t, m.Status(), "Not saved")
	assert.Contains(t, m.Status(), "disk full")
	assert.True(t, h.Dirty())
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestQuit(t *testing.T) {
	m := newModel(t, newHistory(t, memRepo(), "alpha"))

	m, cmd := send(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, "", m.View())
}

func TestSessionTimeout_Quits(t *testing.T) {
	m := newModel(t, newHistory(t, memRepo(), "alpha"))

	m, cmd := send(m, session.TimeoutMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSessionMessages_UpdateStatus(t *testing.T) {
	m := newModel(t, newHistory(t, memRepo(), "alpha"))

	m, _ = send(m, session.TimeoutWarningMsg{Remaining: time.Minute})
	assert.Contains(t, m.Status(), "Session ends in")

	m, _ = send(m, session.AutoSaveMsg{Err: errors.New("locked")})
	assert.Contains(t, m.Status(), "Autosave failed: locked")
}

func TestInit_WithoutSession(t *testing.T) {
	m := newModel(t, newHistory(t, memRepo()))
	assert.Nil(t, m.Init())
}

// =============================================================================
// VIEW
// =============================================================================

func TestView_Empty(t *testing.T) {
	m := newModel(t, newHistory(t, memRepo()))
	view := m.View()
	assert.Contains(t, view, "Conversations (0)")
	assert.Contains(t, view, "No conversations yet")
	assert.Contains(t, view, "/ search")
}

func TestView_SplitPaneShowsMessages(t *testing.T) {
	h := newHistory(t, memRepo(), "Recipe ideas")
	conv := h.Conversations()[0]
	require.NoError(t, h.AppendMessage(conv.ID, model.UserText("Something with lentils")))
	require.NoError(t, h.AppendMessage(conv.ID, model.AssistantText("Try a dal.")))

	m := newModel(t, h)
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	assert.Contains(t, view, "Recipe ideas")
	assert.Contains(t, view, "2 msgs")
	assert.Contains(t, view, "You: Something with lentils")
	assert.Contains(t, view, "AI Assistant: Try a dal.")
}

func TestView_ScrollsWithCursor(t *testing.T) {
	titles := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	m := newModel(t, newHistory(t, memRepo(), titles...))
	// Two list rows fit: (8 - 4) / 2.
	m, _ = send(m, tea.WindowSizeMsg{Width: 40, Height: 8})

	view := m.View()
	assert.Contains(t, view, "c7")
	assert.NotContains(t, view, "c5")

	m, _ = send(m, runes("G"))
	view = m.View()
	assert.Contains(t, view, "c0")
	assert.NotContains(t, view, "c7")
}

func TestView_TruncatesLongTitles(t *testing.T) {
	long := "An extremely long conversation title that cannot possibly fit"
	m := newModel(t, newHistory(t, memRepo(), long))
	m, _ = send(m, tea.WindowSizeMsg{Width: 30, Height: 20})

	view := m.View()
	assert.NotContains(t, view, long)
	assert.Contains(t, view, "...")
}

func TestKeyMap_HelpLine(t *testing.T) {
	help := DefaultKeyMap().HelpLine()
	for _, want := range []string{"/ search", "j down", "k up", "enter open", "b bookmark", "d delete", "e export", "q quit"} {
		assert.Contains(t, help, want)
	}
}
