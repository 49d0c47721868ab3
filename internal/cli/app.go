// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jeranaias/echo-history/internal/chat"
	"github.com/jeranaias/echo-history/internal/config"
	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/history"
	"github.com/jeranaias/echo-history/internal/logging"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/session"
	"github.com/jeranaias/echo-history/internal/storage"
)

// sessionWarningBefore is how long before the idle timeout the user is warned.
const sessionWarningBefore = time.Minute

// App is the wired set of components a command works with.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	History *history.Manager
	Session *session.Manager

	closeLog func() error
}

// openApp loads the config at path and wires storage, history and session.
// Persistence warnings are written to warnOut.
func openApp(path string, warnOut io.Writer) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, closeLog := logging.Setup(cfg.Log.File, level)

	backend, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Debug("storage opened", "backend", backend.Name(), "dir", cfg.Storage.DataDir)

	hist := history.New(history.Options{
		Repository: storage.NewStore(backend, cfg.Storage.Key, logger),
		Logger:     logger,
		Export:     export.Options{IncludeMetadata: cfg.Export.IncludeMetadata},
		OnPersistError: func(perr *history.PersistError) {
			fmt.Fprintln(warnOut, WarningStyle.Render("Warning: "+perr.Error()+" (will retry)"))
		},
	})

	sess := session.NewManager(session.Config{
		Timeout:          cfg.SessionTimeout(),
		WarningBefore:    sessionWarningBefore,
		AutoSaveEnabled:  cfg.Session.AutoSaveSecs > 0,
		AutoSaveInterval: cfg.AutoSaveInterval(),
	}, hist)

	return &App{
		Config:   cfg,
		Logger:   logger,
		History:  hist,
		Session:  sess,
		closeLog: closeLog,
	}, nil
}

// Close ends the session, which flushes and closes the history.
func (a *App) Close() error {
	err := a.Session.Logout()
	return errors.Join(err, a.closeLog())
}

// Resolve looks up a conversation by full ID or unique prefix.
func (a *App) Resolve(ref string) (model.Conversation, error) {
	id, err := a.History.ResolveID(ref)
	if err != nil {
		return model.Conversation{}, err
	}
	conv, ok := a.History.Get(id)
	if !ok {
		return model.Conversation{}, fmt.Errorf("%w: %s", history.ErrNotFound, ref)
	}
	return conv, nil
}

// NewChatClient builds the chat client from the config.
func (a *App) NewChatClient() *chat.OllamaClient {
	return chat.NewOllamaClient(chat.ClientConfig{
		BaseURL:   a.Config.Chat.URL,
		Timeout:   a.Config.ChatTimeout(),
		RateLimit: a.Config.Chat.RateLimit,
		Burst:     a.Config.Chat.Burst,
	})
}

// nonFatal drops persistence failures. The history controller has already
// reported them and keeps the change for the next save.
func nonFatal(err error) error {
	if history.IsPersistError(err) {
		return nil
	}
	return err
}
