// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the sidebar.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	renderer *lipgloss.Renderer

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderCount lipgloss.Style

	// ==========================================================================
	// LIST STYLES
	// ==========================================================================

	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemCurrent  lipgloss.Style
	ItemMeta     lipgloss.Style
	Bookmark     lipgloss.Style
	Empty        lipgloss.Style

	// ==========================================================================
	// DETAIL PANE STYLES
	// ==========================================================================

	Pane          lipgloss.Style
	PaneTitle     lipgloss.Style
	RoleUser      lipgloss.Style
	RoleAssistant lipgloss.Style

	// ==========================================================================
	// SEARCH AND STATUS STYLES
	// ==========================================================================

	SearchPrompt lipgloss.Style
	StatusInfo   lipgloss.Style
	StatusOK     lipgloss.Style
	StatusWarn   lipgloss.Style
	StatusError  lipgloss.Style
	Help         lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	// Detect terminal capabilities
	colorProfile := termenv.ColorProfile()
	return newTheme(colorProfile, termenv.HasDarkBackground())
}

// NewThemeWithProfile creates a theme for a fixed color profile.
func NewThemeWithProfile(profile termenv.Profile) *Theme {
	return newTheme(profile, true)
}

func newTheme(profile termenv.Profile, isDark bool) *Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	r.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
		renderer:     r,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	t.Header = s().Bold(true).Foreground(Cyan)
	t.HeaderCount = s().Foreground(TextMuted)

	t.Item = s().Foreground(TextPrimary)
	t.ItemSelected = s().Bold(true).Foreground(Purple).Background(SurfaceBright)
	t.ItemCurrent = s().Foreground(Cyan)
	t.ItemMeta = s().Foreground(TextMuted)
	t.Bookmark = s().Foreground(Amber)
	t.Empty = s().Italic(true).Foreground(TextMuted)

	t.Pane = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)
	t.PaneTitle = s().Bold(true).Foreground(TextPrimary)
	t.RoleUser = s().Bold(true).Foreground(Cyan)
	t.RoleAssistant = s().Bold(true).Foreground(Purple)

	t.SearchPrompt = s().Foreground(Cyan)
	t.StatusInfo = s().Foreground(TextSecondary)
	t.StatusOK = s().Foreground(Emerald)
	t.StatusWarn = s().Foreground(Amber)
	t.StatusError = s().Bold(true).Foreground(Rose)
	t.Help = s().Foreground(TextMuted)
}

// StatusLevel selects the status-line style.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// GetStatusStyle returns the style for a status level.
func (t *Theme) GetStatusStyle(level StatusLevel) lipgloss.Style {
	switch level {
	case StatusSuccess:
		return t.StatusOK
	case StatusWarning:
		return t.StatusWarn
	case StatusError:
		return t.StatusError
	default:
		return t.StatusInfo
	}
}
