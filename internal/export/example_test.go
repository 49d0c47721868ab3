// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export_test

import (
	"fmt"
	"time"

	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/model"
)

func exampleConversation() *model.Conversation {
	at := time.Date(2025, 1, 24, 14, 30, 52, 0, time.UTC)
	return &model.Conversation{
		ID:    "b2f4c1e0-0000-4000-8000-000000000001",
		Title: "Hello World",
		Messages: model.MessageList{
			model.UserText("How do I print in Python?"),
			model.AssistantText("Use print(\"Hello, World!\")."),
		},
		Model:       "llama3.2",
		Personality: model.PersonalityConcise,
		Tags:        []string{"python"},
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

// ExampleRender_markdown demonstrates exporting a conversation to Markdown format.
func ExampleRender_markdown() {
	fmt.Print(export.Render(exampleConversation(), export.FormatMarkdown, export.Options{}))
	// Output:
	// # Hello World
	//
	// 👤 **You**:
	//
	// How do I print in Python?
	//
	// ---
	//
	// 🤖 **AI Assistant**:
	//
	// Use print("Hello, World!").
}

// ExampleRender_text demonstrates the plain-text export with metadata.
func ExampleRender_text() {
	fmt.Print(export.Render(exampleConversation(), export.FormatText, export.Options{IncludeMetadata: true}))
	// Output:
	// Hello World
	// ===========
	//
	// Created: 2025-01-24T14:30:52Z
	// Updated: 2025-01-24T14:30:52Z
	// Model: llama3.2
	// Personality: concise
	// Tags: python
	// Bookmarked: no
	//
	// You: How do I print in Python?
	//
	// AI Assistant: Use print("Hello, World!").
}

// ExampleFilename shows how export files are named.
func ExampleFilename() {
	conv := exampleConversation()
	fmt.Println(export.Filename(conv, export.FormatJSON))
	fmt.Println(export.FormatJSON.MimeType())
	// Output:
	// Hello World.json
	// application/json
}
