// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jeranaias/echo-history/internal/model"
)

// Filter returns the conversations whose title or first user message
// (its first 100 runes) contains query, compared with Unicode case folding.
// Relative order is preserved. A blank query returns convs unchanged; any
// other query is matched as given, surrounding spaces included.
func Filter(convs []model.Conversation, query string) []model.Conversation {
	if strings.TrimSpace(query) == "" {
		return convs
	}

	// A Caser is stateful; one per call.
	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]model.Conversation, 0, len(convs))
	for i := range convs {
		if matches(fold, &convs[i], needle) {
			out = append(out, convs[i])
		}
	}
	return out
}

func matches(fold cases.Caser, conv *model.Conversation, needle string) bool {
	if strings.Contains(fold.String(conv.Title), needle) {
		return true
	}
	text := conv.SearchText()
	return text != "" && strings.Contains(fold.String(text), needle)
}
