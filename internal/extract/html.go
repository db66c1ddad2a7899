// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// skipElements hold markup whose text content is never user-visible prose.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
}

// blockElements end the current text block when opened or closed.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "td": true, "th": true,
	"blockquote": true, "pre": true, "br": true, "hr": true,
	"header": true, "footer": true, "main": true, "nav": true, "aside": true,
	"form": true, "fieldset": true, "figure": true, "figcaption": true,
}

// HTMLExtractor extracts visible text from HTML documents.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTML extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Name identifies the extractor.
func (e *HTMLExtractor) Name() string {
	return "html"
}

// CanExtract reports whether the path has an HTML extension.
func (e *HTMLExtractor) CanExtract(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Extract reads the file and returns its visible text.
func (e *HTMLExtractor) Extract(path string) (*Content, error) {
	if err := checkFileSize(path); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	content, err := ParseHTML(f)
	if err != nil {
		return nil, err
	}
	if content.Title == "" {
		base := filepath.Base(path)
		content.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return content, nil
}

// ParseHTML tokenizes HTML from r and collects the visible text into
// reading-order blocks. The document <title> wins over the first heading.
func ParseHTML(r io.Reader) (*Content, error) {
	tokenizer := html.NewTokenizer(r)

	var (
		blocks    []string
		current   strings.Builder
		title     string
		heading   string
		skipDepth int
		inTitle   bool
		inH1      bool
	)

	flush := func() {
		if text := collapseSpaces(current.String()); text != "" {
			blocks = append(blocks, text)
		}
		current.Reset()
	}

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("error parsing HTML: %w", err)
			}
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skipElements[tag] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if blockElements[tag] {
				flush()
			}
			switch tag {
			case "title":
				inTitle = tt == html.StartTagToken
			case "h1":
				inH1 = tt == html.StartTagToken && heading == ""
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skipElements[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockElements[tag] {
				flush()
			}
			switch tag {
			case "title":
				inTitle = false
			case "h1":
				inH1 = false
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := sanitizeText(string(tokenizer.Text()))
			if inTitle {
				title += text
				continue
			}
			if inH1 {
				heading += text
			}
			current.WriteString(text)
		}
	}
	flush()

	if title = collapseSpaces(title); title == "" {
		title = collapseSpaces(heading)
	}

	return &Content{
		Title:  capTitle(title, maxTitleLen),
		Text:   joinBlocks(blocks),
		Blocks: blocks,
		Format: "html",
	}, nil
}
