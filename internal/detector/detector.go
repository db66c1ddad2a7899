// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "time"

// RiskType identifies one category of risky clause.
type RiskType string

const (
	AutoRenewal  RiskType = "auto_renewal"
	Cancellation RiskType = "cancellation"
	Arbitration  RiskType = "arbitration"
	ClassAction  RiskType = "class_action"
	Fees         RiskType = "fees"
	DataSharing  RiskType = "data_sharing"
)

// AllRiskTypes lists every category in detection order. The order is part
// of the scan contract: raw spans are emitted category by category in this
// sequence before resolution.
var AllRiskTypes = []RiskType{
	AutoRenewal,
	Cancellation,
	Arbitration,
	ClassAction,
	Fees,
	DataSharing,
}

// Valid reports whether t is one of the known risk categories.
func (t RiskType) Valid() bool {
	switch t {
	case AutoRenewal, Cancellation, Arbitration, ClassAction, Fees, DataSharing:
		return true
	}
	return false
}

// Title returns a human-readable label for the category.
func (t RiskType) Title() string {
	switch t {
	case AutoRenewal:
		return "Auto-renewal"
	case Cancellation:
		return "Cancellation"
	case Arbitration:
		return "Arbitration"
	case ClassAction:
		return "Class-action waiver"
	case Fees:
		return "Fees"
	case DataSharing:
		return "Data sharing"
	}
	return string(t)
}

// Severity is the three-level risk classification used for both the
// overall scan verdict and the data-sharing heatmap level.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities so callers can compare them (low < medium < high).
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	}
	return 0
}

// Span is one detected risk phrase: a labeled half-open byte range
// [Start,End) into the text the scan ran against. MatchedText is the exact
// text of that range; Snippet is the surrounding sentence extracted for
// display, never authoritative for offsets. Spans are immutable once
// created; the resolver drops spans but does not modify them.
type Span struct {
	Type        RiskType `json:"type" msgpack:"type"`
	Start       int      `json:"start" msgpack:"start"`
	End         int      `json:"end" msgpack:"end"`
	MatchedText string   `json:"matched_text" msgpack:"matched_text"`
	Snippet     string   `json:"snippet,omitempty" msgpack:"snippet"`
}

// Len returns the span's length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans overlap. The comparison is closed at
// both ends, so spans that merely touch at a boundary count as overlapping
// and will be merged by the resolver.
func (s Span) Overlaps(other Span) bool {
	return other.Start <= s.End && other.End >= s.Start
}

// Recipient is one ranked "shares with whom" phrase from the heatmap.
type Recipient struct {
	Phrase string `json:"phrase" msgpack:"phrase"`
	Count  int    `json:"count" msgpack:"count"`
}

// Heatmap summarizes data-sharing vocabulary independently of the resolved
// spans: per-bucket occurrence counts, a fixed-threshold level, and the top
// recipient phrases. Counts always carries every bucket key, zero-valued
// when nothing matched.
type Heatmap struct {
	Counts        map[string]int `json:"counts" msgpack:"counts"`
	Level         Severity       `json:"level" msgpack:"level"`
	TopRecipients []Recipient    `json:"top_recipients" msgpack:"top_recipients"`
}

// Total returns the sum across all buckets.
func (h Heatmap) Total() int {
	total := 0
	for _, n := range h.Counts {
		total += n
	}
	return total
}

// ScanResult is the terminal output of one scan. Spans is the resolved
// set: sorted by Start ascending, pairwise non-overlapping, capped at the
// configured maximum (Truncated reports whether the cap was hit). A new
// scan produces a new result; nothing here is mutated afterwards.
type ScanResult struct {
	Title      string   `json:"title,omitempty" msgpack:"title"`
	Spans      []Span   `json:"spans" msgpack:"spans"`
	Severity   Severity `json:"severity" msgpack:"severity"`
	Hero       string   `json:"hero,omitempty" msgpack:"hero"`
	Heatmap    Heatmap  `json:"heatmap" msgpack:"heatmap"`
	Truncated  bool     `json:"truncated,omitempty" msgpack:"truncated"`
	Suppressed int      `json:"suppressed,omitempty" msgpack:"suppressed"`
	DurationMs int64    `json:"duration_ms,omitempty" msgpack:"duration_ms"`
}

// CountByType returns how many resolved spans carry each risk type.
func (r *ScanResult) CountByType() map[RiskType]int {
	counts := make(map[RiskType]int)
	for _, s := range r.Spans {
		counts[s.Type]++
	}
	return counts
}

// SuppressedSpan records a span dropped by a suppression rule.
type SuppressedSpan struct {
	Span         Span       `json:"span"`
	SuppressedBy string     `json:"suppressed_by"`
	RuleReason   string     `json:"rule_reason"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Matcher finds every occurrence of one risk category in a text. FindAll
// returns raw spans in match order with Type, Start, End and MatchedText
// populated; snippets are attached later. Implementations must be safe for
// concurrent use after construction.
type Matcher interface {
	Type() RiskType
	FindAll(text string) []Span
}
