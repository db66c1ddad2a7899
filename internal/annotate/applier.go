// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package annotate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"fineprint/internal/detector"
	"fineprint/internal/observability"
	"fineprint/internal/snippet"
)

// DefaultMaxMarks caps how many spans one apply round will mark.
const DefaultMaxMarks = 50

// Applier projects resolved spans onto one document. It requires
// exclusive access to the document relative to other annotation
// operations; callers run clear and apply strictly in sequence.
type Applier struct {
	doc      *Document
	maxMarks int
	observer observability.Observer
}

// NewApplier binds an applier to a document and installs the marker
// styling, a one-time setup per document.
func NewApplier(doc *Document) *Applier {
	doc.installStyle()
	return &Applier{
		doc:      doc,
		maxMarks: DefaultMaxMarks,
		observer: observability.NopObserver{},
	}
}

// WithMaxMarks overrides the apply cap.
func (a *Applier) WithMaxMarks(n int) *Applier {
	if n > 0 {
		a.maxMarks = n
	}
	return a
}

// WithObserver routes miss and summary events to obs.
func (a *Applier) WithObserver(obs observability.Observer) *Applier {
	if obs != nil {
		a.observer = obs
	}
	return a
}

// Clear unwraps every marker, merging the freed text back into its
// neighbors, and returns how many markers were removed. Calling it on a
// clean document returns 0.
func (a *Applier) Clear() int {
	removed := 0
	for bi := range a.doc.Blocks {
		block := &a.doc.Blocks[bi]
		merged := make([]Run, 0, len(block.Runs))
		for _, run := range block.Runs {
			if run.Marked {
				removed++
				run = Run{Text: run.Text}
			}
			if n := len(merged); n > 0 && !merged[n-1].Marked && !run.Marked {
				merged[n-1].Text += run.Text
				continue
			}
			merged = append(merged, run)
		}
		block.Runs = merged
	}
	return removed
}

// Apply marks each span's text in document order, up to the configured
// maximum. Per span it searches the unmarked runs for the snippet (with
// truncation markers stripped) and falls back to the shorter matched
// keyword text; a span found under neither is skipped silently. capped
// reports whether applied reached the maximum.
//
// The keyword fallback can mark an occurrence unrelated to the original
// risky sentence when the keyword is common; that is an accepted
// precision tradeoff of content-based re-matching.
func (a *Applier) Apply(spans []detector.Span) (applied int, capped bool) {
	misses := 0
	for _, span := range spans {
		if applied >= a.maxMarks {
			break
		}
		if a.wrapFirst(snippet.TrimEllipsis(span.Snippet), span.Type) ||
			a.wrapFirst(span.MatchedText, span.Type) {
			applied++
			continue
		}
		misses++
		a.observer.Event("annotate", "miss",
			fmt.Sprintf("%s span not found in live document", span.Type))
	}
	if misses > 0 {
		a.observer.Event("annotate", "apply",
			fmt.Sprintf("%d of %d spans missed", misses, len(spans)))
	}
	return applied, applied >= a.maxMarks
}

// wrapFirst marks the first case-insensitive occurrence of needle in the
// document's unmarked runs. Runs already inside a marker are excluded
// from the search, so marks never nest.
func (a *Applier) wrapFirst(needle string, risk detector.RiskType) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	for bi := range a.doc.Blocks {
		block := &a.doc.Blocks[bi]
		for ri := 0; ri < len(block.Runs); ri++ {
			run := block.Runs[ri]
			if run.Marked {
				continue
			}
			from, to := indexFold(run.Text, needle)
			if from < 0 {
				continue
			}

			replacement := make([]Run, 0, 3)
			if from > 0 {
				replacement = append(replacement, Run{Text: run.Text[:from]})
			}
			replacement = append(replacement, Run{Text: run.Text[from:to], Marked: true, Risk: risk})
			if to < len(run.Text) {
				replacement = append(replacement, Run{Text: run.Text[to:]})
			}

			block.Runs = append(block.Runs[:ri], append(replacement, block.Runs[ri+1:]...)...)
			return true
		}
	}
	return false
}

// indexFold returns the byte range of the first case-insensitive
// occurrence of needle in s, or (-1, -1). The fold walks runes, so byte
// offsets stay valid even where lowercasing changes encoding length.
func indexFold(s, needle string) (int, int) {
	if needle == "" || len(s) == 0 {
		return -1, -1
	}
	if i := strings.Index(s, needle); i >= 0 {
		return i, i + len(needle)
	}

	folded := []rune(strings.ToLower(needle))
	for start := 0; start < len(s); {
		end := start
		matched := 0
		for matched < len(folded) {
			r, size := utf8.DecodeRuneInString(s[end:])
			if size == 0 || unicode.ToLower(r) != folded[matched] {
				break
			}
			end += size
			matched++
		}
		if matched == len(folded) {
			return start, end
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		if size == 0 {
			break
		}
		start += size
	}
	return -1, -1
}
