// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties a history.Manager to the lifetime of one application
// session.
//
// A session starts by loading the conversation list, flushes unsaved
// changes on an autosave interval, and tears the history down on logout or
// after an idle timeout. No conversation state outlives its session.
//
// # Key Types
//
//   - Manager: session lifecycle around a history.Manager
//   - TickMsg, TimeoutWarningMsg, TimeoutMsg, AutoSaveMsg: Bubble Tea messages
//
// # Usage
//
//	sess := session.NewManager(session.DefaultConfig(), hist)
//	defer sess.Logout()
//
//	sess.RecordActivity()          // on user input
//	if !sess.Check() { /* expired, history closed */ }
package session
