// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// maxPDFPages limits extraction so very large PDFs do not dominate a scan.
const maxPDFPages = 50

// PDFExtractor extracts text from PDF documents.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Name identifies the extractor.
func (e *PDFExtractor) Name() string {
	return "pdf"
}

// CanExtract reports whether the path has a PDF extension.
func (e *PDFExtractor) CanExtract(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// Extract validates the PDF structure and extracts page text in reading
// order. Each page becomes one block. Pages beyond maxPDFPages are skipped.
func (e *PDFExtractor) Extract(path string) (*Content, error) {
	if err := checkFileSize(path); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	if err := api.ValidateFile(cleanPath, nil); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	f, r, err := pdf.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	pageCount := r.NumPage()
	if pageCount > maxPDFPages {
		pageCount = maxPDFPages
	}

	type pageResult struct {
		pageNum int
		text    string
		err     error
	}
	resultChan := make(chan pageResult, pageCount)

	for i := 1; i <= pageCount; i++ {
		go func(pageNum int) {
			p := r.Page(pageNum)
			if p.V.IsNull() {
				resultChan <- pageResult{pageNum: pageNum, err: fmt.Errorf("null page")}
				return
			}
			text, err := extractPageText(p)
			resultChan <- pageResult{pageNum: pageNum, text: text, err: err}
		}(i)
	}

	pageTexts := make(map[int]string)
	for i := 0; i < pageCount; i++ {
		result := <-resultChan
		if result.err != nil {
			continue
		}
		pageTexts[result.pageNum] = result.text
	}

	var blocks []string
	for i := 1; i <= pageCount; i++ {
		text := sanitizeText(strings.TrimSpace(pageTexts[i]))
		if text != "" {
			blocks = append(blocks, text)
		}
	}

	title := pdfTitle(r)
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &Content{
		Title:  title,
		Text:   joinBlocks(blocks),
		Blocks: blocks,
		Format: e.Name(),
	}, nil
}

// pdfTitle reads the document title from the PDF Info dictionary.
func pdfTitle(r *pdf.Reader) string {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	t := info.Key("Title")
	if t.Kind() != pdf.String {
		return ""
	}
	return capTitle(collapseSpaces(sanitizeText(t.Text())), maxTitleLen)
}

// extractPageText extracts page text using row-based positioning so word
// spacing survives. Falls back to plain extraction when rows are missing.
func extractPageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}

	// PDF Y coordinates grow bottom to top; sort rows into reading order.
	sortedRows := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sortedRows = append(sortedRows, row)
		}
	}
	sort.Slice(sortedRows, func(i, j int) bool {
		return averageY(sortedRows[i].Content) < averageY(sortedRows[j].Content)
	})

	var buf bytes.Buffer
	for _, row := range sortedRows {
		rowText := reconstructRow(row.Content)
		if strings.TrimSpace(rowText) != "" {
			buf.WriteString(rowText)
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

// averageY is the mean Y coordinate of the text elements in a row.
func averageY(elements []pdf.Text) float64 {
	if len(elements) == 0 {
		return 0
	}
	var total float64
	for _, element := range elements {
		total += element.Y
	}
	return total / float64(len(elements))
}

// reconstructRow joins a row's text elements left to right, inserting
// spaces where the horizontal gap between elements is significant.
func reconstructRow(elements []pdf.Text) string {
	if len(elements) == 0 {
		return ""
	}

	sorted := make([]pdf.Text, len(elements))
	copy(sorted, elements)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var buf bytes.Buffer
	for i, element := range sorted {
		buf.WriteString(element.S)
		if i == len(sorted)-1 {
			continue
		}
		gap := sorted[i+1].X - (element.X + element.W)
		fontSize := element.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		if gap > fontSize*0.2 {
			buf.WriteString(" ")
		}
	}
	return buf.String()
}
