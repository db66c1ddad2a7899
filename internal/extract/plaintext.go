// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxTitleLen caps derived titles so a runaway first line does not
// become the document title.
const maxTitleLen = 120

// PlainTextExtractor handles plain text and Markdown files.
type PlainTextExtractor struct {
	extensions map[string]bool
}

// NewPlainTextExtractor creates a plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{
		extensions: map[string]bool{
			".txt":      true,
			".text":     true,
			".md":       true,
			".markdown": true,
		},
	}
}

// Name identifies the extractor.
func (e *PlainTextExtractor) Name() string {
	return "plaintext"
}

// CanExtract reports whether the path has a recognized text extension.
func (e *PlainTextExtractor) CanExtract(path string) bool {
	return e.extensions[strings.ToLower(filepath.Ext(path))]
}

// Extract reads the file and splits it into paragraph blocks. The first
// non-empty line becomes the title, with Markdown heading markers removed.
func (e *PlainTextExtractor) Extract(path string) (*Content, error) {
	if err := checkFileSize(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if looksBinary(data) {
		return nil, fmt.Errorf("file contains binary content: %s", filepath.Base(path))
	}

	text := sanitizeText(string(data))
	blocks := splitParagraphs(text)

	return &Content{
		Title:  titleFromText(blocks, path),
		Text:   joinBlocks(blocks),
		Blocks: blocks,
		Format: e.Name(),
	}, nil
}

// looksBinary sniffs the first bytes for NUL, which text files never contain.
func looksBinary(data []byte) bool {
	probe := data
	if len(probe) > 512 {
		probe = probe[:512]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

// splitParagraphs breaks text on blank lines into trimmed blocks.
func splitParagraphs(text string) []string {
	var blocks []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

// titleFromText derives a title from the first non-empty line, falling
// back to the filename stem.
func titleFromText(blocks []string, path string) string {
	if title := titleFromBlocks(blocks); title != "" {
		return title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// titleFromBlocks returns the first non-empty line across blocks, with
// any markdown heading marker stripped, or "".
func titleFromBlocks(blocks []string) string {
	for _, block := range blocks {
		line := block
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimLeft(line, "# ")
		line = collapseSpaces(line)
		if line != "" {
			return capTitle(line, maxTitleLen)
		}
	}
	return ""
}
