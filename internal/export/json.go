// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/echo-history/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// jsonDocument is the export shape without metadata.
type jsonDocument struct {
	Title    string            `json:"title"`
	Messages model.MessageList `json:"messages"`
}

// jsonDocumentWithMetadata fixes the key order: title, metadata, messages.
type jsonDocumentWithMetadata struct {
	Title        string            `json:"title"`
	ID           string            `json:"id"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt"`
	Model        string            `json:"model"`
	Personality  string            `json:"personality"`
	Tags         []string          `json:"tags"`
	IsBookmarked bool              `json:"isBookmarked"`
	Messages     model.MessageList `json:"messages"`
}

// JSONExporter exports conversations to JSON format.
// Messages are emitted in their persisted wire form.
type JSONExporter struct {
	options Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts Options) *JSONExporter {
	return &JSONExporter{options: opts}
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv *model.Conversation) string {
	var doc any
	if e.options.IncludeMetadata {
		tags := conv.Tags
		if tags == nil {
			tags = []string{}
		}
		doc = jsonDocumentWithMetadata{
			Title:        conv.Title,
			ID:           conv.ID,
			CreatedAt:    formatTimestamp(conv.CreatedAt),
			UpdatedAt:    formatTimestamp(conv.UpdatedAt),
			Model:        conv.Model,
			Personality:  string(conv.Personality),
			Tags:         tags,
			IsBookmarked: conv.IsBookmarked,
			Messages:     conv.Messages,
		}
	} else {
		doc = jsonDocument{Title: conv.Title, Messages: conv.Messages}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Every field is a plain value; a failure here is a bug.
		panic(fmt.Sprintf("export: encode json: %v", err))
	}
	return string(data)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
