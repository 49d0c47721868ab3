// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects an export representation.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatMarkdown, FormatText}

// ErrUnsupportedFormat is returned by ParseFormat for unknown names.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat resolves a user-supplied format name. File extensions are
// accepted as aliases ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "plain":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q (want json, markdown or text)", ErrUnsupportedFormat, s)
	}
}

// Valid reports whether f is in the supported set.
func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatText:
		return true
	}
	return false
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return For(f, Options{}).FileExtension()
}

// MimeType returns the MIME type matching the extension.
func (f Format) MimeType() string {
	return For(f, Options{}).MimeType()
}

func (f Format) String() string {
	return string(f)
}
