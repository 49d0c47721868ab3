// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: a titled, ordered sequence of messages with metadata
//     (model, personality, tags, bookmark state)
//   - Message: a tagged variant, either a TextMessage or an ImageMessage
//   - Role: message author (user or assistant)
//   - Settings: the closed generation settings a conversation starts with
//
// Messages are immutable values: their fields are unexported and only
// readable through accessors, so stored content can never be edited in place.
//
// # Usage
//
//	conv := model.NewConversation(model.DefaultSettings(), "Trip planning", time.Now())
//	conv.Append(model.UserText("Plan a trip to Goa"), time.Now())
//
//	img, err := model.NewImageMessage(model.RoleAssistant, "Here you go", url, "a beach at dusk")
package model
