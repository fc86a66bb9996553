// Package extract turns stored document files into plain text.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Extractor produces the plain-text content of a document file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PlainText extracts text-native formats (txt, markdown, csv) by reading
// the file verbatim. Binary formats belong behind a separate Extractor.
type PlainText struct{}

// NewPlainText creates a plain-text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extract reads the file and returns its content as UTF-8 text.
func (e *PlainText) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md", ".markdown", ".csv":
	default:
		return "", fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFileType)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %v", path, domain.ErrExtractionFailed, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8: %w", path, domain.ErrExtractionFailed)
	}

	return string(data), nil
}
