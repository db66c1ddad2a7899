// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"time"

	"fineprint/internal/detector"
	"fineprint/internal/formatters"
	"fineprint/internal/version"
)

// Envelope represents the top-level response structure for JSON/YAML output
type Envelope struct {
	Version     string     `json:"version" yaml:"version"`
	GeneratedAt string     `json:"generated_at" yaml:"generated_at"`
	Documents   []Document `json:"documents" yaml:"documents"`
}

// Document represents one scanned document in JSON/YAML format
type Document struct {
	Path          string         `json:"path,omitempty" yaml:"path,omitempty"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	Severity      string         `json:"severity" yaml:"severity"`
	Hero          string         `json:"hero,omitempty" yaml:"hero,omitempty"`
	Spans         []Span         `json:"spans" yaml:"spans"`
	Heatmap       Heatmap        `json:"heatmap" yaml:"heatmap"`
	Bullets       []string       `json:"bullets,omitempty" yaml:"bullets,omitempty"`
	CountsByType  map[string]int `json:"counts_by_type" yaml:"counts_by_type"`
	Truncated     bool           `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Suppressed    int            `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	ScanTimeMs    int64          `json:"scan_time_ms,omitempty" yaml:"scan_time_ms,omitempty"`
}

// Span represents a single risk finding in JSON/YAML format
type Span struct {
	Type        string `json:"type" yaml:"type"`
	Start       int    `json:"start" yaml:"start"`
	End         int    `json:"end" yaml:"end"`
	MatchedText string `json:"matched_text" yaml:"matched_text"`
	Snippet     string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// Heatmap represents the data-sharing heatmap in JSON/YAML format
type Heatmap struct {
	Level         string           `json:"level" yaml:"level"`
	Counts        map[string]int   `json:"counts" yaml:"counts"`
	TopRecipients []RecipientCount `json:"top_recipients,omitempty" yaml:"top_recipients,omitempty"`
}

// RecipientCount is one named data recipient and its mention count
type RecipientCount struct {
	Phrase string `json:"phrase" yaml:"phrase"`
	Count  int    `json:"count" yaml:"count"`
}

// BuildEnvelope converts reports to the shared JSON/YAML envelope
func BuildEnvelope(reports []formatters.Report, options formatters.FormatterOptions) Envelope {
	envelope := Envelope{
		Version:     version.Short(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Documents:   make([]Document, 0, len(reports)),
	}

	for _, report := range reports {
		result := report.Result

		doc := Document{
			Path:       report.Path,
			Title:      result.Title,
			Severity:   string(result.Severity),
			Hero:       result.Hero,
			Spans:      convertSpans(result.Spans, options),
			Heatmap:    convertHeatmap(result.Heatmap),
			Bullets:    report.Bullets,
			Truncated:  result.Truncated,
			Suppressed: result.Suppressed,
			ScanTimeMs: result.DurationMs,
		}

		doc.CountsByType = make(map[string]int)
		for riskType, count := range result.CountByType() {
			doc.CountsByType[string(riskType)] = count
		}

		envelope.Documents = append(envelope.Documents, doc)
	}

	return envelope
}

func convertSpans(spans []detector.Span, options formatters.FormatterOptions) []Span {
	converted := make([]Span, 0, len(spans))
	for _, span := range spans {
		s := Span{
			Type:        string(span.Type),
			Start:       span.Start,
			End:         span.End,
			MatchedText: span.MatchedText,
		}
		if options.Verbose {
			s.Snippet = span.Snippet
		}
		converted = append(converted, s)
	}
	return converted
}

func convertHeatmap(h detector.Heatmap) Heatmap {
	heatmap := Heatmap{
		Level:  string(h.Level),
		Counts: h.Counts,
	}
	for _, r := range h.TopRecipients {
		heatmap.TopRecipients = append(heatmap.TopRecipients, RecipientCount{
			Phrase: r.Phrase,
			Count:  r.Count,
		})
	}
	return heatmap
}
