// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidebar implements the conversation history sidebar as a Bubble
// Tea model.
//
// The model holds no conversation state of its own. Every frame is rendered
// from the history controller's filtered list and every key that changes
// something calls a controller operation. Persistence failures reported by
// the controller are shown on the status line; the in-memory change stays.
package sidebar
