// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat connects conversations to a chat-completion backend.
//
// The history subsystem only stores what the model says; producing the
// reply is delegated to a Completer. OllamaClient is the HTTP
// implementation, and Bridge records the user turn and the reply in a
// history.Manager.
//
// # Usage
//
//	client := chat.NewOllamaClient(chat.DefaultConfig())
//	bridge := chat.NewBridge(hist, client, logger)
//	reply, err := bridge.Send(ctx, convID, "Plan a trip to Goa")
package chat
