// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation prompts for destructive commands.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RequireConfirmation asks before a destructive action.
//
// With --confirm it proceeds without prompting. In JSON mode, or when stdin
// is not a terminal, --confirm is required. Otherwise it prompts on out and
// reads the answer from in.
//
// Example:
//
//	confirmed, err := RequireConfirmation(confirmFlag, "delete all conversations", jsonMode, in, out)
//	if err != nil {
//	    return err
//	}
//	if !confirmed {
//	    fmt.Fprintln(out, "Cancelled.")
//	    return nil
//	}
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool, in io.Reader, out io.Writer) (bool, error) {
	// If --confirm flag is present, proceed without prompting
	if confirmFlag {
		return true, nil
	}

	// In JSON mode, --confirm flag is required (no interactive prompts)
	if jsonMode {
		return false, fmt.Errorf("confirmation required: use --confirm flag for destructive actions in JSON mode")
	}

	// Can't prompt if stdin is not a TTY (e.g., piped input, cron jobs, CI/CD)
	if err := RequiresTTY(in, action); err != nil {
		return false, fmt.Errorf("confirmation required: %w; use --confirm flag", err)
	}

	return promptYesNo(in, out, fmt.Sprintf("Are you sure you want to %s?", action))
}

// promptYesNo reads a y/N answer. Anything but "y" or "yes" is no.
func promptYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
