// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resolver merges raw detector spans into the final ordered,
// non-overlapping, capped span set.
package resolver

import (
	"fmt"
	"sort"

	"fineprint/internal/detector"
)

// DefaultMaxSpans caps the resolved set when the caller passes no limit.
const DefaultMaxSpans = 50

// Resolve deduplicates overlapping spans across all categories and caps
// the result. Spans are stable-sorted by (Start ascending, End descending)
// so among equal starts the longer sorts first; the walk keeps one
// accepted span at a time, and on overlap the longer of the two survives,
// with ties keeping the already-accepted span. The overlap test is closed
// at both ends: spans that merely touch at a boundary are merged rather
// than rendered as two adjacent markers.
//
// Returns the resolved set, whether the cap truncated it, and an error if
// any input span is malformed (Start < 0 or End <= Start). Malformed
// spans are programmer errors and fail the whole call rather than being
// silently dropped, since tolerating them would corrupt the non-overlap
// invariant.
func Resolve(spans []detector.Span, maxCount int) ([]detector.Span, bool, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxSpans
	}
	for _, s := range spans {
		if s.Start < 0 || s.End <= s.Start {
			return nil, false, fmt.Errorf("malformed %s span [%d,%d)", s.Type, s.Start, s.End)
		}
	}
	if len(spans) == 0 {
		return []detector.Span{}, false, nil
	}

	sorted := make([]detector.Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	accepted := make([]detector.Span, 0, len(sorted))
	accepted = append(accepted, sorted[0])
	for _, next := range sorted[1:] {
		last := &accepted[len(accepted)-1]
		if next.Start <= last.End && next.End >= last.Start {
			if next.Len() > last.Len() {
				*last = next
			}
			continue
		}
		accepted = append(accepted, next)
	}

	truncated := false
	if len(accepted) > maxCount {
		accepted = accepted[:maxCount]
		truncated = true
	}
	return accepted, truncated, nil
}
