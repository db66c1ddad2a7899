// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scanner wires the detection pipeline: span finding, suppression,
// resolution, snippet extraction, severity scoring and the data-sharing
// heatmap.
package scanner

import (
	"fmt"
	"time"

	"fineprint/internal/detector"
	"fineprint/internal/heatmap"
	"fineprint/internal/observability"
	"fineprint/internal/patterns"
	"fineprint/internal/resolver"
	"fineprint/internal/severity"
	"fineprint/internal/snippet"
	"fineprint/internal/suppressions"
)

// Config holds the knobs for a Scanner. Zero values select the defaults:
// the embedded pattern bank, the standard span cap, no suppressions and a
// silent observer.
type Config struct {
	Bank         *patterns.Bank
	MaxSpans     int
	Suppressions *suppressions.Manager
	Observer     observability.Observer
	Snippets     *snippet.Builder
}

// Scanner runs the full pipeline over document text. Stateless across
// scans and safe for concurrent use: every dependency is read-only after
// construction.
type Scanner struct {
	bank         *patterns.Bank
	maxSpans     int
	suppressions *suppressions.Manager
	observer     observability.Observer
	snippets     *snippet.Builder
}

// New builds a Scanner from cfg.
func New(cfg Config) *Scanner {
	s := &Scanner{
		bank:         cfg.Bank,
		maxSpans:     cfg.MaxSpans,
		suppressions: cfg.Suppressions,
		observer:     cfg.Observer,
		snippets:     cfg.Snippets,
	}
	if s.bank == nil {
		s.bank = patterns.Default()
	}
	if s.maxSpans <= 0 {
		s.maxSpans = resolver.DefaultMaxSpans
	}
	if s.observer == nil {
		s.observer = observability.NopObserver{}
	}
	if s.snippets == nil {
		s.snippets = snippet.NewBuilder()
	}
	return s
}

// Bank exposes the scanner's pattern bank, e.g. for cache fingerprinting
// and inventory listings.
func (s *Scanner) Bank() *patterns.Bank {
	return s.bank
}

// FindSpans runs every risk detector over fullText and concatenates the
// raw spans in category order. No cap and no overlap handling here; that
// is the resolver's job.
func (s *Scanner) FindSpans(fullText string) []detector.Span {
	var spans []detector.Span
	for _, m := range s.bank.Matchers() {
		spans = append(spans, m.FindAll(fullText)...)
	}
	return spans
}

// Scan is the single entry point combining detection, suppression,
// resolution, snippet extraction, severity scoring and the heatmap.
// Empty input is not an error: it yields an empty span set, low severity,
// no hero and an all-zero heatmap. An error means a malformed span
// reached the resolver, which cannot happen with bank-produced spans.
func (s *Scanner) Scan(fullText string) (*detector.ScanResult, error) {
	start := time.Now()
	done := s.observer.StartTiming("scanner", "scan")

	raw := s.FindSpans(fullText)

	suppressedCount := 0
	kept := raw
	if s.suppressions != nil {
		var suppressed []detector.SuppressedSpan
		kept, suppressed = s.suppressions.Filter(raw)
		suppressedCount = len(suppressed)
		if suppressedCount > 0 {
			s.observer.Event("scanner", "suppress", formatSuppressDetail(suppressed))
		}
	}

	resolved, truncated, err := resolver.Resolve(kept, s.maxSpans)
	if err != nil {
		done(err, nil)
		return nil, err
	}

	for i := range resolved {
		resolved[i].Snippet = s.snippets.Snippet(fullText, resolved[i].Start, resolved[i].End)
	}

	level, hero := severity.Score(resolved, fullText, s.bank)

	result := &detector.ScanResult{
		Spans:      resolved,
		Severity:   level,
		Hero:       hero,
		Heatmap:    heatmap.Build(s.bank, fullText),
		Truncated:  truncated,
		Suppressed: suppressedCount,
		DurationMs: time.Since(start).Milliseconds(),
	}

	done(nil, map[string]any{
		"bytes":      len(fullText),
		"raw_spans":  len(raw),
		"spans":      len(resolved),
		"suppressed": suppressedCount,
		"severity":   string(result.Severity),
	})
	return result, nil
}

func formatSuppressDetail(suppressed []detector.SuppressedSpan) string {
	ids := make(map[string]bool, len(suppressed))
	for _, sp := range suppressed {
		ids[sp.SuppressedBy] = true
	}
	return fmt.Sprintf("%d spans suppressed by %d rules", len(suppressed), len(ids))
}
