// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/echo-history/internal/model"
)

// Preview renders the Markdown export of conv for terminal display.
// Falls back to the raw Markdown if the renderer cannot be created.
func Preview(conv *model.Conversation, opts Options, width int) string {
	content := Render(conv, FormatMarkdown, opts)

	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
