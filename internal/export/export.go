// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a document to one file format.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string
}

// Document is a transcript plus what is needed to resolve its citations.
type Document struct {
	Title      string
	StaticBase string
	CreatedAt  time.Time
	Transcript model.Transcript
}

// NewDocument snapshots t for export.
func NewDocument(title, staticBase string, t model.Transcript) *Document {
	return &Document{
		Title:      title,
		StaticBase: staticBase,
		CreatedAt:  time.Now(),
		Transcript: t,
	}
}

// validate rejects documents with nothing to write.
func (d *Document) validate() error {
	if d == nil {
		return errors.New("document is nil")
	}
	if d.Transcript.IsEmpty() {
		return ErrEmptyTranscript
	}
	return nil
}

// subject returns the first question, used for file names.
func (d *Document) subject() string {
	for _, m := range d.Transcript {
		if m.IsUser() {
			return util.FirstLine(m.Text)
		}
	}
	return d.Title
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile writes doc into opts.OutputDir under a generated name and
// returns the path.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("ragchat_%s_%s%s",
		sanitizeFilename(doc.subject()),
		timestamp,
		exporter.FileExtension(),
	)

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0o600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// WriteFile writes doc to path, choosing the format from the extension.
func WriteFile(doc *Document, path string, opts *Options) error {
	exporter, err := ForPath(path, opts)
	if err != nil {
		return err
	}
	content, err := exporter.Export(doc)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ForPath returns the exporter matching path's extension.
func ForPath(path string, opts *Options) (Exporter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownExporter(opts), nil
	case ".json":
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use .md or .json)", filepath.Ext(path))
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 40
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "transcript"
	}
	return string(result)
}
