// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/echo-history/internal/export"
)

func newExportCmd(o *rootOptions) *cobra.Command {
	var (
		format   string
		outDir   string
		metadata bool
		stdout   bool
		preview  bool
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a conversation to JSON, Markdown or text",
		Long: `Export a conversation to a file named after its title.

Formats: json, markdown (md), text (txt). The default format, output
directory and metadata setting come from the [export] config section.

Examples:
  echo-history export 3f2a
  echo-history export 3f2a --format json --out ~/exports
  echo-history export 3f2a --format text --stdout
  echo-history export 3f2a --preview`,
		Args: cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			conv, err := app.Resolve(args[0])
			if err != nil {
				return err
			}

			if format == "" {
				format = app.Config.Export.DefaultFormat
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			opts := export.Options{IncludeMetadata: app.Config.Export.IncludeMetadata}
			if cmd.Flags().Changed("metadata") {
				opts.IncludeMetadata = metadata
			}

			w := cmd.OutOrStdout()
			switch {
			case preview:
				fmt.Fprint(w, export.Preview(&conv, opts, GetTerminalWidth()))
				return nil
			case stdout:
				fmt.Fprint(w, export.Render(&conv, f, opts))
				return nil
			}

			if outDir == "" {
				outDir = app.Config.Export.Dir
			}
			path, err := export.WriteFile(outDir, &conv, f, opts)
			if err != nil {
				return fmt.Errorf("export %q: %w", conv.Title, err)
			}
			fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Exported to"), path)

			if open {
				if err := export.OpenFile(path); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: could not open file: "+err.Error()))
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "json, markdown or text")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "include metadata (ID, dates, model, tags)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to stdout instead of a file")
	cmd.Flags().BoolVar(&preview, "preview", false, "render the Markdown export in the terminal")
	cmd.Flags().BoolVar(&open, "open", false, "open the exported file")
	return cmd
}
