// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jeranaias/echo-history/internal/history"
	"github.com/jeranaias/echo-history/internal/model"
)

// ErrEmptyPrompt is returned by Send for a blank message.
var ErrEmptyPrompt = errors.New("message is empty")

// Bridge records a chat turn in the history: the user message, then the
// completer's reply.
type Bridge struct {
	hist      *history.Manager
	completer Completer
	logger    *slog.Logger
}

// NewBridge creates a bridge. A nil logger discards output.
func NewBridge(hist *history.Manager, completer Completer, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{hist: hist, completer: completer, logger: logger.With("component", "chat")}
}

// Send appends text as a user message to conversation id, asks the
// completer, and appends the reply.
//
// When the completion fails the user message stays stored and the error is
// returned. A *history.PersistError does not stop the exchange: the reply is
// returned together with the last such error.
func (b *Bridge) Send(ctx context.Context, id, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyPrompt
	}

	conv, ok := b.hist.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	prior := []model.Message(conv.Messages)

	var persistErr error
	if err := b.hist.AppendMessage(id, model.UserText(text)); err != nil {
		if !history.IsPersistError(err) {
			return "", err
		}
		persistErr = err
	}

	reply, err := b.completer.Complete(ctx, prior, text, conv.Settings())
	if err != nil {
		b.logger.Warn("completion failed", "conversation", id, "error", err)
		return "", fmt.Errorf("completion: %w", err)
	}

	if err := b.hist.AppendMessage(id, model.AssistantText(reply)); err != nil {
		if !history.IsPersistError(err) {
			return "", err
		}
		persistErr = err
	}
	return reply, persistErr
}
