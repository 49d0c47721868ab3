// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/echo-history/internal/export"
	"github.com/jeranaias/echo-history/internal/session"
	"github.com/jeranaias/echo-history/internal/ui/sidebar"
	"github.com/jeranaias/echo-history/internal/ui/styles"
)

func newTUICmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse conversations in the sidebar",
		Long: `Open the conversation sidebar.

Keys: / search, j/k move, enter open, b bookmark, d delete (press twice),
e export Markdown, q quit.`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			if err := RequiresTTY(cmd.InOrStdin(), "browse conversations"); err != nil {
				return err
			}

			theme := styles.NewTheme()
			m := sidebar.New(sidebar.Options{
				History:   app.History,
				Session:   app.Session,
				Theme:     theme,
				ExportDir: app.Config.Export.Dir,
				Export:    export.Options{IncludeMetadata: app.Config.Export.IncludeMetadata},
			})

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run sidebar: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render(sessionStatus(app.Session)))
			return nil
		}),
	}
}

// sessionStatus summarizes the session on exit.
func sessionStatus(s *session.Manager) string {
	st := s.GetStatus()
	msg := fmt.Sprintf("Session %s lasted %s", st.SessionID, session.FormatDuration(st.Duration))
	if st.Ended {
		msg += " (timed out)"
	}
	return msg
}
