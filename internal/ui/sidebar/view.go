// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sidebar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/util"
)

const (
	defaultListWidth = 40
	maxListWidth     = 48
	minSplitWidth    = 60
	chromeLines      = 4 // header, search, status, help
	linesPerItem     = 2
	bookmarkMarker   = "★ "
	noMarker         = "  "
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) listWidth() int {
	switch {
	case m.width == 0:
		return defaultListWidth
	case m.width < minSplitWidth:
		return m.width
	default:
		return min(maxListWidth, m.width*2/5)
	}
}

// visibleRows is the number of list items that fit; 0 means unlimited.
func (m Model) visibleRows() int {
	if m.height == 0 {
		return 0
	}
	return max(1, (m.height-chromeLines)/linesPerItem)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the sidebar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	list := m.renderList()
	if m.width >= minSplitWidth {
		paneWidth := m.width - m.listWidth() - 2
		pane := m.theme.Pane.Width(paneWidth).Render(m.renderDetail(paneWidth - 1))
		list = lipgloss.JoinHorizontal(lipgloss.Top, list, pane)
	}

	return strings.Join([]string{list, m.renderStatus(), m.theme.Help.Render(m.keys.HelpLine())}, "\n")
}

func (m Model) renderList() string {
	width := m.listWidth()
	items := m.hist.Filtered()
	current := m.hist.CurrentID()

	var b strings.Builder
	header := m.theme.Header.Render("Conversations") + " " +
		m.theme.HeaderCount.Render(fmt.Sprintf("(%d)", len(items)))
	b.WriteString(header + "\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.hist.Query() != "":
		b.WriteString(m.theme.SearchPrompt.Render(util.TruncateWidth("/ "+m.hist.Query(), width)))
	}
	b.WriteString("\n")

	if len(items) == 0 {
		msg := "No conversations yet"
		if m.hist.Query() != "" {
			msg = "No matches"
		}
		b.WriteString(m.theme.Empty.Render(msg))
		return b.String()
	}

	end := len(items)
	if rows := m.visibleRows(); rows > 0 {
		end = min(end, m.offset+rows)
	}

	lines := make([]string, 0, (end-m.offset)*linesPerItem)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderItem(items[i], width, i == m.cursor, items[i].ID == current)...)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (m Model) renderItem(c model.Conversation, width int, selected, current bool) []string {
	marker := noMarker
	if c.IsBookmarked {
		marker = bookmarkMarker
	}
	title := util.PadWidth(util.TruncateWidth(util.SingleLine(c.Title), width-2), width-2)

	titleStyle := m.theme.Item
	switch {
	case selected:
		titleStyle = m.theme.ItemSelected
	case current:
		titleStyle = m.theme.ItemCurrent
	}

	meta := fmt.Sprintf("%d msgs · %s", len(c.Messages), c.UpdatedAt.Local().Format("Jan 2 15:04"))
	return []string{
		m.theme.Bookmark.Render(marker) + titleStyle.Render(title),
		noMarker + m.theme.ItemMeta.Render(util.TruncateWidth(meta, width-2)),
	}
}

// renderDetail shows the open conversation, or the one under the cursor.
func (m Model) renderDetail(width int) string {
	conv, ok := m.hist.Current()
	if !ok {
		conv, ok = m.Selected()
	}
	if !ok {
		return m.theme.Empty.Render("Nothing selected")
	}

	lines := []string{
		m.theme.PaneTitle.Render(util.TruncateWidth(util.SingleLine(conv.Title), width)),
		m.theme.ItemMeta.Render(util.TruncateWidth(detailMeta(conv), width)),
		"",
	}

	msgs := conv.Messages
	if room := m.height - chromeLines - len(lines); m.height > 0 && len(msgs) > room {
		msgs = msgs[len(msgs)-max(0, room):]
	}
	for _, msg := range msgs {
		roleStyle := m.theme.RoleAssistant
		if msg.Role() == model.RoleUser {
			roleStyle = m.theme.RoleUser
		}
		label := msg.Role().DisplayName() + ": "
		body := util.TruncateWidth(util.SingleLine(msg.Content()), max(1, width-len(label)))
		lines = append(lines, roleStyle.Render(label)+body)
	}
	if len(conv.Messages) == 0 {
		lines = append(lines, m.theme.Empty.Render("No messages"))
	}
	return strings.Join(lines, "\n")
}

func detailMeta(c model.Conversation) string {
	parts := []string{c.Model, string(c.Personality)}
	if len(c.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(c.Tags, " #"))
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderStatus() string {
	if m.status != "" {
		return m.theme.GetStatusStyle(m.statusLevel).Render(util.TruncateWidth(m.status, max(m.width, defaultListWidth)))
	}
	if m.hist.Dirty() {
		return m.theme.StatusWarn.Render("Unsaved changes")
	}
	return ""
}
