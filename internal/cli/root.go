// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// rootOptions carries the global flags to every subcommand.
type rootOptions struct {
	configPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "echo-history",
		Short: "Manage Echo conversation history",
		Long: `echo-history keeps the conversations of the Echo assistant: it lists,
searches, bookmarks, tags and exports them, and runs chat turns against a
local Ollama server.

Conversations are stored in ~/.echo/data by default. Settings come from
~/.echo/config.toml (or --config) and ECHO_* environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default ~/.echo/config.toml, or $ECHO_CONFIG)")

	root.AddCommand(
		newListCmd(o),
		newShowCmd(o),
		newSearchCmd(o),
		newNewCmd(o),
		newSendCmd(o),
		newChatCmd(o),
		newBookmarkCmd(o),
		newRenameCmd(o),
		newTagCmd(o),
		newDeleteCmd(o),
		newClearCmd(o),
		newExportCmd(o),
		newStatsCmd(o),
		newModelsCmd(o),
		newConfigCmd(o),
		newTUICmd(o),
	)
	return root
}

// Execute runs the command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// withApp opens the App for the duration of a command and closes it
// afterwards, joining any close error into the result.
func (o *rootOptions) withApp(fn func(cmd *cobra.Command, args []string, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		app, err := openApp(o.configPath, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, app.Close())
		}()
		return fn(cmd, args, app)
	}
}
