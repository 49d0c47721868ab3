// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/util"
)

// =============================================================================
// TEXT EXPORTER
// =============================================================================

// TextExporter exports conversations to plain text.
type TextExporter struct {
	options Options
}

// NewTextExporter creates a new plain-text exporter.
func NewTextExporter(opts Options) *TextExporter {
	return &TextExporter{options: opts}
}

// Export converts a conversation to plain text.
func (e *TextExporter) Export(conv *model.Conversation) string {
	var sb strings.Builder

	title := util.SingleLine(conv.Title)
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", utf8.RuneCountInString(title)))
	sb.WriteString("\n\n")

	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "Created: %s\n", formatTimestamp(conv.CreatedAt))
		fmt.Fprintf(&sb, "Updated: %s\n", formatTimestamp(conv.UpdatedAt))
		fmt.Fprintf(&sb, "Model: %s\n", conv.Model)
		fmt.Fprintf(&sb, "Personality: %s\n", conv.Personality)
		fmt.Fprintf(&sb, "Tags: %s\n", tagList(conv.Tags, ", "))
		fmt.Fprintf(&sb, "Bookmarked: %s\n", yesNo(conv.IsBookmarked))
		sb.WriteString("\n")
	}

	for i, msg := range conv.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role().DisplayName(), msg.Content())
		if img, ok := msg.(model.ImageMessage); ok {
			fmt.Fprintf(&sb, "[Image: %s]\n", img.ImageURL())
		}
	}

	return sb.String()
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
