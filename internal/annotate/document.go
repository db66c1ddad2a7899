// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package annotate re-applies resolved spans onto a live document as
// visible markers. The document may have been re-rendered since the scan,
// so spans are located by content search, never by their stored offsets.
package annotate

import (
	"html"
	"strings"

	"fineprint/internal/detector"
)

// Run is an uninterrupted stretch of text within a block, either plain or
// wrapped by a marker. A marked run carries the risk type that produced
// it.
type Run struct {
	Text   string            `json:"text"`
	Marked bool              `json:"marked,omitempty"`
	Risk   detector.RiskType `json:"risk,omitempty"`
}

// Block is one reading-order segment of the document (a paragraph,
// heading or list item).
type Block struct {
	Runs []Run `json:"runs"`
}

// Document is the live representation the applier mutates. Markers split
// runs but never change the visible text, so unwrapping restores the
// document exactly. Not safe for concurrent mutation; callers serialize
// clear and apply per document.
type Document struct {
	Blocks []Block `json:"blocks"`

	styleInstalled bool
}

// NewDocument builds a document with one unmarked run per block text.
// Empty block texts are kept so block indexes stay aligned with the
// source.
func NewDocument(blockTexts ...string) *Document {
	doc := &Document{Blocks: make([]Block, 0, len(blockTexts))}
	for _, text := range blockTexts {
		doc.Blocks = append(doc.Blocks, Block{Runs: []Run{{Text: text}}})
	}
	return doc
}

// Text returns the visible text: runs concatenated, blocks joined by
// blank lines. Markers never affect this output.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, block := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		for _, run := range block.Runs {
			sb.WriteString(run.Text)
		}
	}
	return sb.String()
}

// MarkCount returns the number of marker runs currently present.
func (d *Document) MarkCount() int {
	count := 0
	for _, block := range d.Blocks {
		for _, run := range block.Runs {
			if run.Marked {
				count++
			}
		}
	}
	return count
}

// markClass names the marker element class in rendered HTML.
const markClass = "fineprint-mark"

// markCSS is installed once per document by the applier's constructor.
const markCSS = "." + markClass + " { background: #fef3c7; border-bottom: 2px solid #f59e0b; padding: 0 1px; }"

// installStyle records that marker styling is available for rendering.
// Idempotent; invoked by NewApplier rather than hidden behind a package
// flag.
func (d *Document) installStyle() {
	d.styleInstalled = true
}

// StyleSheet returns the marker CSS once an applier has been constructed
// for this document, and "" before that.
func (d *Document) StyleSheet() string {
	if !d.styleInstalled {
		return ""
	}
	return markCSS
}

// RenderHTML renders blocks as paragraphs with marker runs wrapped in
// <mark> elements. The style sheet is included only when installed.
func (d *Document) RenderHTML() string {
	var sb strings.Builder
	if css := d.StyleSheet(); css != "" {
		sb.WriteString("<style>")
		sb.WriteString(css)
		sb.WriteString("</style>\n")
	}
	for _, block := range d.Blocks {
		sb.WriteString("<p>")
		for _, run := range block.Runs {
			if run.Marked {
				sb.WriteString(`<mark class="` + markClass + `" data-risk="` + string(run.Risk) + `">`)
				sb.WriteString(html.EscapeString(run.Text))
				sb.WriteString("</mark>")
			} else {
				sb.WriteString(html.EscapeString(run.Text))
			}
		}
		sb.WriteString("</p>\n")
	}
	return sb.String()
}
