// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/echo-history/internal/model"
	"github.com/jeranaias/echo-history/internal/util"
)

// DefaultFilename is used when a conversation has no usable title.
const DefaultFilename = "conversation"

// maxFilenameRunes limits the title part of export filenames.
const maxFilenameRunes = 80

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *model.Conversation) string

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds id, timestamps, model, personality, tags and
	// bookmark state to the output.
	IncludeMetadata bool
}

// For returns the exporter for format. It panics on a format outside the
// supported set; use ParseFormat for untrusted input.
func For(format Format, opts Options) Exporter {
	switch format {
	case FormatJSON:
		return NewJSONExporter(opts)
	case FormatMarkdown:
		return NewMarkdownExporter(opts)
	case FormatText:
		return NewTextExporter(opts)
	default:
		panic(fmt.Sprintf("export: unsupported format %q", string(format)))
	}
}

// Render converts conv to format. It panics on an unsupported format.
func Render(conv *model.Conversation, format Format, opts Options) string {
	return For(format, opts).Export(conv)
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// Filename returns "<title-or-default><ext>" for conv.
func Filename(conv *model.Conversation, format Format) string {
	return util.SanitizeFilename(conv.Title, maxFilenameRunes, DefaultFilename) + format.Extension()
}

// WriteFile renders conv and writes it to dir under Filename. Returns the
// output file path.
//
// NOTE: The whole conversation is rendered in memory before writing.
func WriteFile(dir string, conv *model.Conversation, format Format, opts Options) (string, error) {
	content := Render(conv, format, opts)

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, Filename(conv, format))
	if err := util.AtomicWriteFile(outputPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// OpenFile opens a file in the default application for the OS.
func OpenFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// Quoted empty string is the window title; the path must be last
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp renders a conversation timestamp. Always UTC so output
// does not depend on the host time zone.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// tagList renders tags for metadata headers.
func tagList(tags []string, sep string) string {
	if len(tags) == 0 {
		return "none"
	}
	return strings.Join(tags, sep)
}
