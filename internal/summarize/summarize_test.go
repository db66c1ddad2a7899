// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package summarize

import (
	"context"
	"strings"
	"testing"

	"fineprint/internal/detector"
)

func resultWithSpans(spans ...detector.Span) detector.ScanResult {
	return detector.ScanResult{Spans: spans}
}

func TestBuildRequest_ForwardingPolicy(t *testing.T) {
	result := resultWithSpans(
		detector.Span{Type: detector.Fees, Snippet: "A late fee of $25 applies."},
		detector.Span{Type: detector.Arbitration, Snippet: "Disputes go to binding arbitration."},
		detector.Span{Type: detector.AutoRenewal, Snippet: "Your plan automatically renews."},
		detector.Span{Type: detector.ClassAction, Snippet: "You waive class action rights."},
		detector.Span{Type: detector.Cancellation, Snippet: "Cancel with 30 days notice."},
		detector.Span{Type: detector.DataSharing, Snippet: "We share data with partners."},
	)

	req := BuildRequest("Acme Terms", result, DefaultForwardTypes)

	if req.Title != "Acme Terms" {
		t.Errorf("Expected title to pass through, got %q", req.Title)
	}

	wantRisks := []detector.RiskType{detector.Fees, detector.AutoRenewal, detector.Cancellation}
	if len(req.DetectedRisks) != len(wantRisks) {
		t.Fatalf("Expected %d forwarded risk types, got %v", len(wantRisks), req.DetectedRisks)
	}
	for i, want := range wantRisks {
		if req.DetectedRisks[i] != want {
			t.Errorf("Risk %d: expected %s, got %s", i, want, req.DetectedRisks[i])
		}
	}

	for _, s := range req.Snippets {
		if strings.Contains(s, "arbitration") || strings.Contains(s, "class action") || strings.Contains(s, "share data") {
			t.Errorf("Excluded risk snippet leaked into request: %q", s)
		}
	}
	if len(req.Snippets) != 3 {
		t.Errorf("Expected 3 forwarded snippets, got %v", req.Snippets)
	}
}

func TestBuildRequest_DeduplicatesAndCaps(t *testing.T) {
	spans := make([]detector.Span, 0, 24)
	// Three spans share one snippet; the rest are unique.
	for i := 0; i < 3; i++ {
		spans = append(spans, detector.Span{Type: detector.Fees, Snippet: "A service fee applies."})
	}
	unique := []string{
		"Fee one.", "Fee two.", "Fee three.", "Fee four.", "Fee five.",
		"Fee six.", "Fee seven.", "Fee eight.", "Fee nine.", "Fee ten.",
	}
	for _, s := range unique {
		spans = append(spans, detector.Span{Type: detector.Fees, Snippet: s})
	}

	req := BuildRequest("", resultWithSpans(spans...), DefaultForwardTypes)

	if len(req.Snippets) != maxSnippets {
		t.Fatalf("Expected %d snippets after cap, got %d", maxSnippets, len(req.Snippets))
	}
	if req.Snippets[0] != "A service fee applies." {
		t.Errorf("Expected first-seen snippet to lead, got %q", req.Snippets[0])
	}
	seen := make(map[string]bool)
	for _, s := range req.Snippets {
		if seen[s] {
			t.Errorf("Duplicate snippet survived: %q", s)
		}
		seen[s] = true
	}
}

func TestBuildRequest_TrimsEllipses(t *testing.T) {
	result := resultWithSpans(detector.Span{Type: detector.Fees, Snippet: "…charged a late fee of $25…"})

	req := BuildRequest("", result, DefaultForwardTypes)
	if len(req.Snippets) != 1 {
		t.Fatalf("Expected 1 snippet, got %v", req.Snippets)
	}
	if strings.Contains(req.Snippets[0], "…") {
		t.Errorf("Expected truncation ellipses removed, got %q", req.Snippets[0])
	}
}

func TestBuildRequest_CustomForwardSet(t *testing.T) {
	result := resultWithSpans(
		detector.Span{Type: detector.DataSharing, Snippet: "We share data with advertising networks."},
		detector.Span{Type: detector.Fees, Snippet: "A late fee applies."},
	)

	req := BuildRequest("", result, []detector.RiskType{detector.DataSharing})

	if len(req.DetectedRisks) != 1 || req.DetectedRisks[0] != detector.DataSharing {
		t.Errorf("Expected only data_sharing forwarded, got %v", req.DetectedRisks)
	}
	if len(req.Snippets) != 1 || !strings.Contains(req.Snippets[0], "advertising networks") {
		t.Errorf("Expected only data_sharing snippet, got %v", req.Snippets)
	}
}

func TestHeuristic_Summarize(t *testing.T) {
	req := Request{
		Title: "Acme Terms",
		Snippets: []string{
			"Your plan automatically renews at $9.99/month unless cancelled. Renewal reminders are not sent.",
		},
		DetectedRisks: []detector.RiskType{detector.AutoRenewal, detector.Fees},
	}

	resp, err := NewHeuristic().Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if len(resp.Bullets) != 3 {
		t.Fatalf("Expected 3 bullets (2 risk phrases + 1 lead sentence), got %v", resp.Bullets)
	}
	if resp.Bullets[0] != riskPhrases[detector.AutoRenewal] {
		t.Errorf("Expected auto_renewal phrase first, got %q", resp.Bullets[0])
	}
	if resp.Bullets[2] != "Your plan automatically renews at $9.99/month unless cancelled." {
		t.Errorf("Expected lead sentence compression, got %q", resp.Bullets[2])
	}
}

func TestHeuristic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHeuristic().Summarize(ctx, Request{})
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
}

func TestLeadSentence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "first sentence wins",
			input: "Fees apply. More detail follows.",
			want:  "Fees apply.",
		},
		{
			name:  "no terminator keeps whole text",
			input: "fees may apply to your account",
			want:  "fees may apply to your account",
		},
		{
			name:  "decimal point is not a boundary",
			input: "The fee is $9.99 per month. Details follow.",
			want:  "The fee is $9.99 per month.",
		},
		{
			name:  "long text capped",
			input: strings.Repeat("x", 400),
			want:  strings.Repeat("x", maxBulletLen) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := leadSentence(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
