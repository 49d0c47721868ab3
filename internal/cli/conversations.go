// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/util"
)

const (
	shortIDLen      = 8
	listTitleWidth  = 40
	listTimeLayout  = "2006-01-02 15:04"
	showTimeLayout  = time.RFC1123
	bookmarkMarker  = "★"
	noBookmarkSpace = " "
)

// =============================================================================
// LISTING
// =============================================================================

// listItem is the --json shape of a conversation in a listing.
type listItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Messages     int       `json:"messages"`
	Model        string    `json:"model"`
	Personality  string    `json:"personality"`
	Tags         []string  `json:"tags"`
	IsBookmarked bool      `json:"isBookmarked"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toListItems(convs []model.Conversation) []listItem {
	items := make([]listItem, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		items = append(items, listItem{
			ID:           c.ID,
			Title:        c.Title,
			Summary:      c.Summary(),
			Messages:     len(c.Messages),
			Model:        c.Model,
			Personality:  string(c.Personality),
			Tags:         c.Tags,
			IsBookmarked: c.IsBookmarked,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return items
}

func printList(w io.Writer, convs []model.Conversation, empty string) {
	if len(convs) == 0 {
		fmt.Fprintln(w, DimStyle.Render(empty))
		return
	}
	for _, c := range convs {
		marker := noBookmarkSpace
		if c.IsBookmarked {
			marker = bookmarkMarker
		}
		title := util.PadWidth(util.TruncateWidth(util.SingleLine(c.Title), listTitleWidth), listTitleWidth)
		fmt.Fprintf(w, "%s %s  %s  %s  %s\n",
			BookmarkStyle.Render(marker),
			DimStyle.Render(shortID(c.ID)),
			title,
			DimStyle.Render(fmt.Sprintf("%3d msgs", len(c.Messages))),
			DimStyle.Render(c.UpdatedAt.Local().Format(listTimeLayout)),
		)
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func newListCmd(o *rootOptions) *cobra.Command {
	var bookmarked, jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Long: `List conversations, most recently updated first.

Examples:
  echo-history list
  echo-history list --bookmarked
  echo-history list --json`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			convs := app.History.Conversations()
			if bookmarked {
				convs = app.History.Bookmarked()
			}
			return OutputJSON(cmd.OutOrStdout(), jsonOut, "list", func() (interface{}, error) {
				if !jsonOut {
					printList(cmd.OutOrStdout(), convs, "No conversations yet.")
				}
				return toListItems(convs), nil
			})
		}),
	}

	cmd.Flags().BoolVarP(&bookmarked, "bookmarked", "b", false, "only bookmarked conversations")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func newSearchCmd(o *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find conversations by title or summary",
		Long: `Find conversations whose title or summary contains the query.
Matching ignores case.

Examples:
  echo-history search recipes
  echo-history search "trip to lisbon" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			convs := app.History.SearchConversations(strings.Join(args, " "))
			return OutputJSON(cmd.OutOrStdout(), jsonOut, "search", func() (interface{}, error) {
				if !jsonOut {
					printList(cmd.OutOrStdout(), convs, "No matches.")
				}
				return toListItems(convs), nil
			})
		}),
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func newShowCmd(o *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			conv, err := app.Resolve(args[0])
			if err != nil {
				return err
			}
			return OutputJSON(cmd.OutOrStdout(), jsonOut, "show", func() (interface{}, error) {
				if !jsonOut {
					printConversation(cmd.OutOrStdout(), &conv)
				}
				return conv, nil
			})
		}),
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func printConversation(w io.Writer, c *model.Conversation) {
	fmt.Fprintln(w, TitleStyle.Render(c.Title))
	field := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", LabelStyle.Render(label), value)
	}
	field("ID", c.ID)
	field("Model", c.Model)
	field("Personality", string(c.Personality))
	if len(c.Tags) > 0 {
		field("Tags", strings.Join(c.Tags, ", "))
	}
	if c.IsBookmarked {
		field("Bookmarked", "yes")
	}
	field("Created", c.CreatedAt.Local().Format(showTimeLayout))
	field("Updated", c.UpdatedAt.Local().Format(showTimeLayout))
	fmt.Fprintln(w)

	if len(c.Messages) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages."))
		return
	}
	for _, msg := range c.Messages {
		printMessage(w, msg)
	}
}

func printMessage(w io.Writer, msg model.Message) {
	label := UserStyle.Render(msg.Role().DisplayName() + ":")
	if msg.Role() == model.RoleAssistant {
		label = AssistantStyle.Render(msg.Role().DisplayName() + ":")
	}
	fmt.Fprintf(w, "%s %s\n", label, msg.Content())
	if img, ok := msg.(model.ImageMessage); ok {
		fmt.Fprintf(w, "%s\n", DimStyle.Render("[image: "+img.ImageURL()+"]"))
	}
	fmt.Fprintln(w)
}

// =============================================================================
// CREATION AND EDITS
// =============================================================================

func newNewCmd(o *rootOptions) *cobra.Command {
	var title, modelName, personality string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation",
		Long: `Start a new, empty conversation. Model and personality default to the
configured chat settings.

Examples:
  echo-history new
  echo-history new --title "Trip planning" --personality creative`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			settings := app.Config.Settings()
			if modelName != "" {
				settings.Model = modelName
			}
			if personality != "" {
				p, err := model.ParsePersonality(personality)
				if err != nil {
					return err
				}
				settings.Personality = p
			}

			conv, err := app.History.CreateConversation(settings, title)
			if err := nonFatal(err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("Created"), conv.ID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "conversation title")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "model name")
	cmd.Flags().StringVarP(&personality, "personality", "p", "", "personality (friendly, professional, creative, concise)")
	return cmd
}

func newBookmarkCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <id>",
		Short: "Toggle a conversation's bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			conv, err := app.Resolve(args[0])
			if err != nil {
				return err
			}
			bookmarked, _, err := app.History.ToggleBookmark(conv.ID)
			if err := nonFatal(err); err != nil {
				return err
			}
			if bookmarked {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", SuccessStyle.Render("Bookmarked"), conv.Title)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed bookmark from %q\n", conv.Title)
			}
			return nil
		}),
	}
}

func newRenameCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			conv, err := app.Resolve(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if err := nonFatal(app.History.RenameConversation(conv.ID, title)); err != nil {
				return err
			}
			renamed, _ := app.History.Get(conv.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", SuccessStyle.Render("Renamed to"), renamed.Title)
			return nil
		}),
	}
}

func newTagCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Add or remove conversation tags",
		Long: `Add or remove tags. Tags are compared without regard to case.

Examples:
  echo-history tag add 3f2a travel
  echo-history tag rm 3f2a travel`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <id> <tag>",
			Short: "Add a tag",
			Args:  cobra.ExactArgs(2),
			RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
				conv, err := app.Resolve(args[0])
				if err != nil {
					return err
				}
				added, err := app.History.AddTag(conv.ID, args[1])
				if err := nonFatal(err); err != nil {
					return err
				}
				if !added {
					fmt.Fprintf(cmd.OutOrStdout(), "%q already has tag %q\n", conv.Title, args[1])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q to %q\n", SuccessStyle.Render("Added tag"), args[1], conv.Title)
				return nil
			}),
		},
		&cobra.Command{
			Use:     "rm <id> <tag>",
			Aliases: []string{"remove"},
			Short:   "Remove a tag",
			Args:    cobra.ExactArgs(2),
			RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
				conv, err := app.Resolve(args[0])
				if err != nil {
					return err
				}
				removed, err := app.History.RemoveTag(conv.ID, args[1])
				if err := nonFatal(err); err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%q has no tag %q\n", conv.Title, args[1])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q from %q\n", SuccessStyle.Render("Removed tag"), args[1], conv.Title)
				return nil
			}),
		},
	)
	return cmd
}

// =============================================================================
// DELETION
// =============================================================================

func newDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			conv, err := app.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := nonFatal(app.History.DeleteConversation(conv.ID)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", SuccessStyle.Render("Deleted"), conv.Title)
			return nil
		}),
	}
}

func newClearCmd(o *rootOptions) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		Long: `Delete every conversation. Asks for confirmation unless --confirm is
given; without a terminal --confirm is required.`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			n := len(app.History.Conversations())
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversations to delete.")
				return nil
			}

			action := fmt.Sprintf("delete all %d conversations", n)
			ok, err := RequireConfirmation(confirm, action, false, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			if err := nonFatal(app.History.ClearAllConversations()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d conversations\n", SuccessStyle.Render("Deleted"), n)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "skip the confirmation prompt")
	return cmd
}

// =============================================================================
// STATS
// =============================================================================

type statsOutput struct {
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
	Bookmarked    int    `json:"bookmarked"`
	Tags          int    `json:"tags"`
	Backend       string `json:"backend"`
	DataDir       string `json:"dataDir"`
}

func newStatsCmd(o *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored conversations",
		Args:  cobra.NoArgs,
		RunE: o.withApp(func(cmd *cobra.Command, args []string, app *App) error {
			s := app.History.Stats()
			out := statsOutput{
				Conversations: s.Conversations,
				Messages:      s.Messages,
				Bookmarked:    s.Bookmarked,
				Tags:          s.Tags,
				Backend:       app.Config.Storage.Backend,
				DataDir:       app.Config.Storage.DataDir,
			}
			return OutputJSON(cmd.OutOrStdout(), jsonOut, "stats", func() (interface{}, error) {
				if !jsonOut {
					w := cmd.OutOrStdout()
					fmt.Fprintf(w, "%s%d\n", LabelStyle.Render("Conversations"), out.Conversations)
					fmt.Fprintf(w, "%s%d\n", LabelStyle.Render("Messages"), out.Messages)
					fmt.Fprintf(w, "%s%d\n", LabelStyle.Render("Bookmarked"), out.Bookmarked)
					fmt.Fprintf(w, "%s%d\n", LabelStyle.Render("Tags"), out.Tags)
					fmt.Fprintf(w, "%s%s (%s)\n", LabelStyle.Render("Storage"), out.Backend, out.DataDir)
				}
				return out, nil
			})
		}),
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}
