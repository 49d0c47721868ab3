// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the echo-history command line.

Every command that touches conversations opens an App: the config is
loaded, logging is set up, the storage backend is opened and the history
controller loads the collection. The App is closed when the command
returns, which flushes unsaved changes.

# Commands

	list [--bookmarked] [--json]     List conversations, most recent first
	show <id> [--json]               Print one conversation
	search <query> [--json]          Filter by title or summary
	new [--title --model --personality]
	send <id> <text>                 One chat turn
	chat [id]                        Interactive chat
	bookmark <id>                    Toggle the bookmark
	rename <id> <title>
	tag add|rm <id> <tag>
	delete <id>
	clear [--confirm]                Delete every conversation
	export <id> [--format --out --metadata --stdout --preview --open]
	stats [--json]
	models [--json]                  Models available on the chat server
	config show|get|set|path
	tui                              Sidebar

IDs may be given as a unique prefix. A failed save prints a warning and
the command still succeeds; the change is retried on the next save.
*/
package cli
