// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Chat turns against the configured Ollama server.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/echo-history/internal/chat"
	"github.com/jeranaias/echo-history/internal/config"
	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/history"
	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/session"
)

// =============================================================================
// SEND
// =============================================================================

func newSendCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <id> <text>",
		Short: "Send one message and print the reply",
		Long: `Append a user message to a conversation, ask the chat server, and append
the reply. When the server fails the user message stays in the
conversation.

Examples:
  echo-history send 3f2a "What should I pack for Lisbon?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			conv, err := app.Resolve(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bridge := chat.NewBridge(app.History, app.NewChatClient(), app.Logger)
			reply, err := bridge.Send(ctx, conv.ID, strings.Join(args[1:], " "))
			if err := nonFatal(err); err != nil {
				return describeChatError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		}),
	}
}

// describeChatError adds a hint for the failures a user can fix.
func describeChatError(err error) error {
	switch chat.ErrorTypeOf(err) {
	case chat.ErrTypeNotRunning:
		return fmt.Errorf("%w (start it with: ollama serve)", err)
	case chat.ErrTypeModelNotFound:
		return fmt.Errorf("%w (pull it with: ollama pull <model>)", err)
	}
	return err
}

// =============================================================================
// INTERACTIVE CHAT
// =============================================================================

func newChatCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [id]",
		Short: "Chat interactively",
		Long: `Start an interactive chat. Continues conversation id when given,
otherwise starts a new one.

Commands inside the chat:
  /bookmark        toggle the bookmark
  /rename <title>  rename the conversation
  /tag <tag>       add a tag
  /export [format] export the conversation
  /clear           remove all messages
  /quit            leave (also: exit, Ctrl+D)`,
		Args: cobra.MaximumNArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			var conv model.Conversation
			var err error
			if len(args) == 1 {
				conv, err = app.Resolve(args[0])
			} else {
				conv, err = app.History.CreateConversation(app.Config.Settings(), "")
				err = nonFatal(err)
			}
			if err != nil {
				return err
			}
			app.History.SetCurrentConversation(conv.ID)

			repl := &chatREPL{
				app:    app,
				bridge: chat.NewBridge(app.History, app.NewChatClient(), app.Logger),
				id:     conv.ID,
				out:    cmd.OutOrStdout(),
				errOut: cmd.ErrOrStderr(),
			}
			return repl.run(cmd.Context())
		}),
	}
}

// chatREPL reads prompts with liner and sends them through the bridge.
type chatREPL struct {
	app    *App
	bridge *chat.Bridge
	id     string
	out    io.Writer
	errOut io.Writer
}

func (r *chatREPL) run(ctx context.Context) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	historyFile := chatHistoryFile()
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		saveChatHistory(line, historyFile)
		line.Close()
	}()

	r.app.Session.SetWarningCallback(func(remaining time.Duration) {
		fmt.Fprintln(r.errOut, WarningStyle.Render("Session ends in "+session.FormatDuration(remaining)+" without activity"))
	})
	r.app.Session.SetSaveFailureCallback(func(err error) {
		fmt.Fprintln(r.errOut, WarningStyle.Render("Autosave failed: "+err.Error()))
	})

	conv, _ := r.app.History.Get(r.id)
	fmt.Fprintf(r.out, "%s %s\n", TitleStyle.Render(conv.Title), DimStyle.Render("("+conv.Model+", "+string(conv.Personality)+")"))
	fmt.Fprintln(r.out, DimStyle.Render("Type /quit to leave."))
	for _, msg := range conv.Messages {
		printMessage(r.out, msg)
	}

	for {
		input, err := line.Prompt("echo> ")
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed stdin all end the chat.
			fmt.Fprintln(r.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		r.app.Session.RecordActivity()
		if !r.app.Session.Check() {
			fmt.Fprintln(r.out, WarningStyle.Render("Session timed out."))
			return nil
		}

		if strings.HasPrefix(input, "/") || strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			if !r.handleCommand(input) {
				return nil
			}
			continue
		}

		if err := r.send(ctx, input); err != nil {
			fmt.Fprintf(r.errOut, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

func (r *chatREPL) send(ctx context.Context, input string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Ctrl+C while waiting cancels the request, not the chat.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()

	reply, err := r.bridge.Send(ctx, r.id, input)
	if err := nonFatal(err); err != nil {
		if errors.Is(err, chat.ErrEmptyPrompt) {
			return nil
		}
		return describeChatError(err)
	}
	printMessage(r.out, model.AssistantText(reply))
	return nil
}

// handleCommand runs a slash command. It returns false to end the chat.
func (r *chatREPL) handleCommand(input string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)
	hist := r.app.History

	report := func(err error, okMsg string) {
		if err := nonFatal(err); err != nil {
			fmt.Fprintf(r.errOut, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			return
		}
		fmt.Fprintln(r.out, SuccessStyle.Render(okMsg))
	}

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return false
	case "bookmark":
		on, _, err := hist.ToggleBookmark(r.id)
		msg := "Bookmark removed"
		if on {
			msg = "Bookmarked"
		}
		report(err, msg)
	case "rename":
		if arg == "" {
			fmt.Fprintln(r.errOut, "usage: /rename <title>")
			break
		}
		report(hist.RenameConversation(r.id, arg), "Renamed")
	case "tag":
		if arg == "" {
			fmt.Fprintln(r.errOut, "usage: /tag <tag>")
			break
		}
		_, err := hist.AddTag(r.id, arg)
		report(err, "Tagged "+arg)
	case "clear":
		report(hist.ClearMessages(r.id), "Messages cleared")
	case "export":
		r.export(arg)
	case "help":
		fmt.Fprintln(r.out, "/bookmark /rename <title> /tag <tag> /export [format] /clear /quit")
	default:
		fmt.Fprintf(r.errOut, "unknown command: /%s (try /help)\n", name)
	}
	return true
}

func (r *chatREPL) export(arg string) {
	cfg := r.app.Config.Export
	if arg == "" {
		arg = cfg.DefaultFormat
	}
	f, err := export.ParseFormat(arg)
	if err != nil {
		fmt.Fprintf(r.errOut, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		return
	}
	conv, ok := r.app.History.Get(r.id)
	if !ok {
		fmt.Fprintf(r.errOut, "%s %v\n", ErrorStyle.Render("[Error]"), history.ErrNotFound)
		return
	}
	path, err := export.WriteFile(cfg.Dir, &conv, f, export.Options{IncludeMetadata: cfg.IncludeMetadata})
	if err != nil {
		fmt.Fprintf(r.errOut, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		return
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Exported to "+path))
}

// chatHistoryFile is where prompt history is kept between runs.
func chatHistoryFile() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// saveChatHistory persists prompt history with owner-only permissions.
func saveChatHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// =============================================================================
// MODELS
// =============================================================================

func newModelsCmd(o *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the chat server",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			return OutputJSON(cmd.OutOrStdout(), jsonOut, "models", func() (interface{}, error) {
				models, err := app.NewChatClient().ListModels(cmd.Context())
				if err != nil {
					return nil, describeChatError(err)
				}
				if !jsonOut {
					for _, m := range models {
						marker := " "
						if m.Name == app.Config.Chat.Model {
							marker = "*"
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, m.Name)
					}
				}
				return models, nil
			})
		}),
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
