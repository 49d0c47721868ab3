// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts Options) *MarkdownExporter {
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation) string {
	var sb strings.Builder

	// Title
	fmt.Fprintf(&sb, "# %s\n\n", util.SingleLine(conv.Title))

	// Metadata section
	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "- **Created:** %s\n", formatTimestamp(conv.CreatedAt))
		fmt.Fprintf(&sb, "- **Updated:** %s\n", formatTimestamp(conv.UpdatedAt))
		fmt.Fprintf(&sb, "- **Model:** %s\n", conv.Model)
		fmt.Fprintf(&sb, "- **Personality:** %s\n", conv.Personality)
		fmt.Fprintf(&sb, "- **Tags:** %s\n", tagList(conv.Tags, ", "))
		fmt.Fprintf(&sb, "- **Bookmarked:** %s\n", yesNo(conv.IsBookmarked))
		sb.WriteString("\n---\n\n")
	}

	for i, msg := range conv.Messages {
		fmt.Fprintf(&sb, "%s:\n\n", e.formatRoleLabel(msg.Role()))
		sb.WriteString(msg.Content())
		sb.WriteString("\n\n")

		if img, ok := msg.(model.ImageMessage); ok {
			fmt.Fprintf(&sb, "![%s](%s)\n\n", escapeMarkdown(util.SingleLine(img.ImagePrompt())), img.ImageURL())
		}

		// Add separator between messages (except last)
		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return sb.String()
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatRoleLabel returns a formatted label for the message role.
func (e *MarkdownExporter) formatRoleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "👤 **You**"
	case model.RoleAssistant:
		return "🤖 **AI Assistant**"
	default:
		return "**" + role.DisplayName() + "**"
	}
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in image alt text
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
