// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package summarize turns scan findings into short plain-language bullets.
// The request carries only curated snippet text, never the full document.
package summarize

import (
	"context"
	"strings"
	"unicode/utf8"

	"fineprint/internal/detector"
	"fineprint/internal/snippet"
)

// maxSnippets caps how many evidence snippets a request forwards.
const maxSnippets = 8

// maxBulletLen caps a single summary bullet, in runes.
const maxBulletLen = 160

// DefaultForwardTypes lists the risk types whose snippets are forwarded
// to a summarizer. Arbitration and class action findings stay local: their
// snippets quote legal boilerplate that summarizes poorly and adds little.
var DefaultForwardTypes = []detector.RiskType{
	detector.Fees,
	detector.Cancellation,
	detector.AutoRenewal,
}

// Request is the summarizer input for one document.
type Request struct {
	Title         string              `json:"title,omitempty"`
	Snippets      []string            `json:"snippets"`
	DetectedRisks []detector.RiskType `json:"detected_risks"`
}

// Response holds the generated summary bullets.
type Response struct {
	Bullets []string `json:"bullets"`
}

// Summarizer produces a short summary from curated scan evidence.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (Response, error)
}

// BuildRequest applies the forwarding policy to a scan result: only spans
// whose risk type is in forward contribute snippets, duplicates are
// dropped, order is preserved and at most maxSnippets survive.
func BuildRequest(title string, result detector.ScanResult, forward []detector.RiskType) Request {
	allowed := make(map[detector.RiskType]bool, len(forward))
	for _, rt := range forward {
		allowed[rt] = true
	}

	req := Request{Title: title}
	seenSnippet := make(map[string]bool)
	seenRisk := make(map[detector.RiskType]bool)

	for _, span := range result.Spans {
		if !allowed[span.Type] {
			continue
		}
		if !seenRisk[span.Type] {
			seenRisk[span.Type] = true
			req.DetectedRisks = append(req.DetectedRisks, span.Type)
		}
		text := strings.TrimSpace(snippet.TrimEllipsis(span.Snippet))
		if text == "" || seenSnippet[text] {
			continue
		}
		if len(req.Snippets) >= maxSnippets {
			continue
		}
		seenSnippet[text] = true
		req.Snippets = append(req.Snippets, text)
	}
	return req
}

// riskPhrases are the fixed plain-language bullets per risk type.
var riskPhrases = map[detector.RiskType]string{
	detector.AutoRenewal:  "The plan renews automatically until you cancel.",
	detector.Cancellation: "Cancelling takes action on your part. Check the notice window.",
	detector.Arbitration:  "Disputes are pushed into arbitration instead of court.",
	detector.ClassAction:  "You may be giving up the right to join a class action.",
	detector.Fees:         "Extra fees beyond the advertised price may apply.",
	detector.DataSharing:  "Your data may be shared with other companies.",
}

// Heuristic is the in-process, network-free summarizer: one fixed phrase
// per detected risk type plus the lead sentence of each snippet.
type Heuristic struct{}

// NewHeuristic creates the heuristic summarizer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Summarize generates bullets from the request. The output never exceeds
// maxSnippets bullets.
func (h *Heuristic) Summarize(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	var bullets []string
	seen := make(map[string]bool)
	add := func(b string) {
		if b == "" || seen[b] || len(bullets) >= maxSnippets {
			return
		}
		seen[b] = true
		bullets = append(bullets, b)
	}

	for _, rt := range req.DetectedRisks {
		add(riskPhrases[rt])
	}
	for _, s := range req.Snippets {
		add(leadSentence(s))
	}
	return Response{Bullets: bullets}, nil
}

// leadSentence compresses a snippet to its first sentence, capped at
// maxBulletLen runes.
func leadSentence(s string) string {
	s = strings.TrimSpace(s)
	if end := sentenceEnd(s); end > 0 {
		s = s[:end]
	}
	if utf8.RuneCountInString(s) <= maxBulletLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxBulletLen]) + snippet.Ellipsis
}

// sentenceEnd returns the byte offset just past the first sentence
// terminator, or 0 when the text has none.
func sentenceEnd(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '!', '?':
			if i+1 == len(s) || s[i+1] == ' ' || s[i+1] == '\n' {
				return i + 1
			}
		}
	}
	return 0
}
