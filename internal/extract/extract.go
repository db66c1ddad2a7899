// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxFileSize is the maximum document size the extractors will read (100 MB).
const MaxFileSize = int64(100 * 1024 * 1024)

// ErrUnsupported is returned when no extractor recognizes a file.
var ErrUnsupported = errors.New("unsupported file type")

// Content is the text extracted from a document, ready for scanning.
type Content struct {
	// Title is the document title, or a fallback derived from the content
	// or filename when the format carries no explicit title.
	Title string

	// Text is the full sanitized text in reading order. Risk spans are
	// byte offsets into this string.
	Text string

	// Blocks holds the reading-order block texts (paragraphs, headings,
	// PDF pages) used to build annotatable documents.
	Blocks []string

	// Format identifies which extractor produced the content.
	Format string
}

// Extractor converts one document format into scannable text.
type Extractor interface {
	// Name identifies the extractor in logs and metadata.
	Name() string

	// CanExtract reports whether this extractor handles the given path.
	CanExtract(path string) bool

	// Extract reads the file and returns its sanitized text content.
	Extract(path string) (*Content, error)
}

// DefaultExtractors returns the built-in extractors in probe order.
func DefaultExtractors() []Extractor {
	return []Extractor{
		NewHTMLExtractor(),
		NewPDFExtractor(),
		NewPlainTextExtractor(),
	}
}

// For selects the extractor responsible for path, or ErrUnsupported.
func For(path string, extractors []Extractor) (Extractor, error) {
	for _, e := range extractors {
		if e.CanExtract(path) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// NewContent builds Content from raw text that did not come from a file,
// such as stdin or a request body. The text is sanitized and split into
// paragraph blocks; when title is empty it is derived from the first line.
func NewContent(title, text string) *Content {
	blocks := splitParagraphs(sanitizeText(text))
	if title == "" {
		title = titleFromBlocks(blocks)
	}
	return &Content{
		Title:  title,
		Text:   joinBlocks(blocks),
		Blocks: blocks,
		Format: "text",
	}
}

// checkFileSize rejects files larger than MaxFileSize before reading them.
func checkFileSize(path string) error {
	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return err
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("file too large (max: %dMB)", MaxFileSize/(1024*1024))
	}
	return nil
}

// sanitizeText normalizes extracted text so pattern offsets are stable
// across extractors: NFC normalization, LF line endings, no NUL bytes.
func sanitizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	return s
}

// collapseSpaces folds runs of whitespace into single spaces and trims
// the ends. Used for titles and inline block text.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capTitle truncates a title to at most max runes.
func capTitle(title string, max int) string {
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return string(runes[:max])
}

// joinBlocks assembles the canonical full text from block texts.
func joinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n\n")
}
