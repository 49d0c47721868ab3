// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations as JSON, Markdown or plain text.
//
// Rendering is pure: the same conversation and options always produce the
// same bytes, and no "now" timestamp is embedded. Writing the result to a
// file is a separate step (WriteFile).
//
// # Key Types
//
//   - Format: the closed set of export formats (json, markdown, text)
//   - Exporter: per-format renderer with file extension and MIME type
//   - Options: export configuration (metadata inclusion)
//
// # Usage
//
// Render a conversation:
//
//	out := export.Render(conv, export.FormatMarkdown, export.Options{IncludeMetadata: true})
//
// Parse untrusted input first; Render panics on a format outside the set:
//
//	format, err := export.ParseFormat(flagValue)
//
// Write to a file named after the conversation title:
//
//	path, err := export.WriteFile(dir, conv, format, opts)
package export
