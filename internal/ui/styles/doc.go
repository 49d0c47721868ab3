// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the echo-history TUI.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor so the same palette works on light
and dark terminals:

	Purple, Cyan, Emerald - accents
	Rose, Amber           - errors, bookmarks and warnings
	TextPrimary, TextSecondary, TextMuted

# Theme System (theme.go)

The Theme struct detects terminal capabilities through termenv and builds
the styles the sidebar renders with:

	theme := styles.NewTheme()
	row := theme.ItemSelected.Render(title)

NewThemeWithProfile pins the color profile, which keeps rendered output
stable in tests (termenv.Ascii strips all color).
*/
package styles
