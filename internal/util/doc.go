// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the echo-history packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width aware truncation for terminal columns
//   - SingleLine: collapse line breaks for one-line previews
//   - SanitizeFilename: turn a conversation title into a safe file name
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	preview := util.TruncateRunes(util.SingleLine(msg), 100)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
