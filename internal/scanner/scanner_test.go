// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"path/filepath"
	"strings"
	"testing"

	"fineprint/internal/detector"
	"fineprint/internal/patterns"
	"fineprint/internal/suppressions"
)

func TestScan_AutoRenewalWithPrice(t *testing.T) {
	s := New(Config{})
	result, err := s.Scan("This agreement automatically renews for $9.99/month unless cancelled.")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	byType := result.CountByType()
	if byType[detector.AutoRenewal] != 1 {
		t.Errorf("expected one auto_renewal span, got %d", byType[detector.AutoRenewal])
	}
	if byType[detector.Cancellation] != 1 {
		t.Errorf("expected one cancellation span, got %d", byType[detector.Cancellation])
	}

	var renewal *detector.Span
	for i := range result.Spans {
		if result.Spans[i].Type == detector.AutoRenewal {
			renewal = &result.Spans[i]
		}
	}
	if renewal == nil {
		t.Fatal("auto_renewal span missing")
	}
	if !strings.EqualFold(renewal.MatchedText, "automatically renews") {
		t.Errorf("expected matched text %q, got %q", "automatically renews", renewal.MatchedText)
	}

	if result.Severity != detector.SeverityHigh {
		t.Errorf("expected high severity (auto-renewal plus price scores 3, cancellation 1), got %s", result.Severity)
	}
	if !strings.Contains(result.Hero, "Cancellation") {
		t.Errorf("expected the cancellation hero, got %q", result.Hero)
	}
}

func TestScan_EmptyText(t *testing.T) {
	result, err := New(Config{}).Scan("")
	if err != nil {
		t.Fatalf("Scan(\"\"): %v", err)
	}
	if len(result.Spans) != 0 {
		t.Errorf("expected no spans, got %d", len(result.Spans))
	}
	if result.Severity != detector.SeverityLow {
		t.Errorf("expected low severity, got %s", result.Severity)
	}
	if result.Hero != "" {
		t.Errorf("expected no hero, got %q", result.Hero)
	}
	if result.Heatmap.Level != detector.SeverityLow {
		t.Errorf("expected low heatmap level, got %s", result.Heatmap.Level)
	}
	if len(result.Heatmap.Counts) != len(patterns.BucketOrder) {
		t.Errorf("expected every bucket key present, got %v", result.Heatmap.Counts)
	}
	for name, n := range result.Heatmap.Counts {
		if n != 0 {
			t.Errorf("bucket %q should be zero, got %d", name, n)
		}
	}
}

func TestScan_CapsAtMaxSpans(t *testing.T) {
	text := strings.Repeat("A fee applies here and now. ", 60)
	result, err := New(Config{}).Scan(text)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Spans) != 50 {
		t.Errorf("expected the 50-span cap, got %d", len(result.Spans))
	}
	if !result.Truncated {
		t.Error("expected truncated = true")
	}
	for _, s := range result.Spans {
		if s.Type != detector.Fees {
			t.Errorf("unexpected span type %s", s.Type)
		}
	}
}

func TestScan_ResolvesAcrossCategories(t *testing.T) {
	// "termination" alone is a cancellation hit, but the longer
	// "termination fee" span wins resolution as a fees hit.
	result, err := New(Config{}).Scan("A termination fee applies to early exits.")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Spans) != 1 {
		t.Fatalf("expected one resolved span, got %+v", result.Spans)
	}
	got := result.Spans[0]
	if got.Type != detector.Fees {
		t.Errorf("expected fees to win, got %s", got.Type)
	}
	if !strings.EqualFold(got.MatchedText, "termination fee") {
		t.Errorf("expected the longer span, got %q", got.MatchedText)
	}
}

func TestScan_SpansSortedAndDisjoint(t *testing.T) {
	text := "Fees apply. We share your data with third parties. Binding arbitration " +
		"is mandatory, cancellation is limited, and plans auto-renew monthly."
	result, err := New(Config{}).Scan(text)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Spans) < 4 {
		t.Fatalf("expected several spans, got %d", len(result.Spans))
	}
	for i := 1; i < len(result.Spans); i++ {
		prev, cur := result.Spans[i-1], result.Spans[i]
		if cur.Start < prev.Start {
			t.Errorf("spans out of order at %d", i)
		}
		if cur.Start <= prev.End && cur.End >= prev.Start {
			t.Errorf("overlapping spans [%d,%d) and [%d,%d)", prev.Start, prev.End, cur.Start, cur.End)
		}
	}
}

func TestScan_AttachesSnippets(t *testing.T) {
	text := "Introductory sentence for context and padding purposes here. " +
		"The plan automatically renews every month until cancelled in writing. " +
		"Closing sentence for padding."
	result, err := New(Config{}).Scan(text)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Spans) == 0 {
		t.Fatal("expected spans")
	}
	for _, s := range result.Spans {
		if s.Snippet == "" {
			t.Errorf("span %q has no snippet", s.MatchedText)
		}
		if !strings.Contains(strings.ToLower(s.Snippet), strings.ToLower(s.MatchedText)) {
			t.Errorf("snippet %q does not contain its match %q", s.Snippet, s.MatchedText)
		}
	}
}

func TestScan_AppliesSuppressions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	mgr := suppressions.NewManager(path)
	if _, err := mgr.Add(detector.Fees, "fee", "boilerplate", "tester", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s := New(Config{Suppressions: mgr})
	result, err := s.Scan("A fee applies. Cancellation is restricted.")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Suppressed != 1 {
		t.Errorf("expected 1 suppressed span, got %d", result.Suppressed)
	}
	if n := result.CountByType()[detector.Fees]; n != 0 {
		t.Errorf("suppressed fees span still present: %d", n)
	}
	if n := result.CountByType()[detector.Cancellation]; n != 1 {
		t.Errorf("expected the cancellation span to survive, got %d", n)
	}
	if result.Hero == "" || strings.Contains(result.Hero, "Fees") {
		t.Errorf("hero should fall through to cancellation, got %q", result.Hero)
	}
}

func TestScan_CustomMaxSpans(t *testing.T) {
	text := strings.Repeat("A fee applies here and now. ", 20)
	result, err := New(Config{MaxSpans: 5}).Scan(text)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Spans) != 5 {
		t.Errorf("expected 5 spans, got %d", len(result.Spans))
	}
	if !result.Truncated {
		t.Error("expected truncated = true")
	}
}

func TestFindSpans_EmitsCategoryOrder(t *testing.T) {
	text := "We share your data with third parties; a fee applies; plans auto-renew."
	spans := New(Config{}).FindSpans(text)
	if len(spans) == 0 {
		t.Fatal("expected raw spans")
	}
	lastCategory := -1
	rank := make(map[detector.RiskType]int, len(detector.AllRiskTypes))
	for i, rt := range detector.AllRiskTypes {
		rank[rt] = i
	}
	for _, s := range spans {
		r := rank[s.Type]
		if r < lastCategory {
			t.Fatalf("raw spans not grouped in category order: %s after %s",
				s.Type, detector.AllRiskTypes[lastCategory])
		}
		lastCategory = r
	}
}
