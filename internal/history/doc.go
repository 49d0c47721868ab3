// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history owns the conversation list of one application session.
//
// A Manager holds the authoritative in-memory list, the active selection and
// the search query. Every mutation persists the full list through a
// storage.Repository before returning. Front ends read copies through the
// accessors and change state only through Manager methods.
//
// # Persistence failures
//
// When a save fails the mutation is kept in memory, the state is marked
// dirty and a *PersistError is returned (and passed to the OnPersistError
// callback). The next mutation or an explicit Flush retries the save.
// Nothing is rolled back.
//
// # Usage
//
//	m := history.New(history.Options{Repository: store, Logger: logger})
//	m.LoadConversations()
//	conv, err := m.CreateConversation(model.DefaultSettings(), "")
//	err = m.AppendMessage(conv.ID, model.UserText("hello"))
//	md, ok := m.ExportConversation(conv.ID, export.FormatMarkdown)
//	defer m.Close()
package history
