// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package snippet extracts the human-readable sentence around a span.
package snippet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis marks a truncated side of a snippet.
const Ellipsis = "…"

const (
	defaultSearchWindow   = 500
	defaultFallbackWindow = 250
	defaultMinSentence    = 30
	defaultMaxLen         = 500
)

// Builder extracts snippets from full text. Pure after construction; safe
// to share across concurrent scans.
type Builder struct {
	// Bytes to search on each side of the span for sentence boundaries.
	SearchWindow int

	// Bytes on each side of the span for the fixed fallback window, and
	// for re-centering when a sentence exceeds MaxLen.
	FallbackWindow int

	// A detected sentence shorter than this is treated as a boundary
	// detection failure (abbreviations, headings) and falls back.
	MinSentence int

	// Maximum snippet length before re-truncation, excluding the
	// ellipsis markers.
	MaxLen int
}

// NewBuilder creates a builder with default window sizes.
func NewBuilder() *Builder {
	return &Builder{
		SearchWindow:   defaultSearchWindow,
		FallbackWindow: defaultFallbackWindow,
		MinSentence:    defaultMinSentence,
		MaxLen:         defaultMaxLen,
	}
}

// WithSearchWindow sets the sentence search window size.
func (b *Builder) WithSearchWindow(n int) *Builder {
	b.SearchWindow = n
	return b
}

// WithFallbackWindow sets the fixed fallback window size.
func (b *Builder) WithFallbackWindow(n int) *Builder {
	b.FallbackWindow = n
	return b
}

// Snippet returns the sentence containing the span [start,end), or a
// bounded excerpt when no usable sentence boundary is found. The result is
// non-empty for any valid span and never exceeds MaxLen bytes plus one
// ellipsis marker per truncated side. Offsets are byte offsets; window
// edges snap to rune boundaries so multi-byte characters are never split.
func (b *Builder) Snippet(text string, start, end int) string {
	if start < 0 || end <= start || end > len(text) {
		return ""
	}

	winStart := snapToRuneStart(text, max(0, start-b.SearchWindow))
	winEnd := snapToRuneStart(text, min(len(text), end+b.SearchWindow))
	window := text[winStart:winEnd]

	out, hitOffset := sentenceAround(window, start-winStart)

	if len(out) < b.MinSentence {
		fbStart := snapToRuneStart(text, max(0, start-b.FallbackWindow))
		fbEnd := snapToRuneStart(text, min(len(text), end+b.FallbackWindow))
		raw := text[fbStart:fbEnd]
		trimmedLeft := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		out = strings.TrimSpace(raw)
		hitOffset = clamp(start-fbStart-trimmedLeft, 0, len(out))
	}

	if len(out) > b.MaxLen {
		from := snapToRuneStart(out, max(0, hitOffset-b.FallbackWindow))
		to := snapToRuneStart(out, min(len(out), hitOffset+b.FallbackWindow))
		cut := strings.TrimSpace(out[from:to])
		if from > 0 {
			cut = Ellipsis + cut
		}
		if to < len(out) {
			cut += Ellipsis
		}
		out = cut
	}

	if out == "" {
		out = strings.TrimSpace(text[start:end])
		if out == "" {
			out = text[start:end]
		}
	}
	return out
}

// TrimEllipsis strips the truncation markers from a snippet, returning the
// literal text that appeared in the source.
func TrimEllipsis(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, Ellipsis))
	s = strings.TrimSpace(strings.TrimSuffix(s, Ellipsis))
	return s
}

// sentenceAround finds the sentence segment of window that contains
// hitOffset. A sentence boundary is a '.', '!' or '?' followed by
// whitespace or the end of the window. Returns the trimmed sentence and
// the hit's offset within it.
func sentenceAround(window string, hitOffset int) (string, int) {
	hitOffset = clamp(hitOffset, 0, len(window))

	segStart := 0
	segEnd := len(window)
	for i := 0; i < len(window); i++ {
		if window[i] != '.' && window[i] != '!' && window[i] != '?' {
			continue
		}
		boundary := i + 1
		if boundary < len(window) {
			r, _ := utf8.DecodeRuneInString(window[boundary:])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		if boundary <= hitOffset {
			segStart = boundary
		} else {
			segEnd = boundary
			break
		}
	}

	raw := window[segStart:segEnd]
	trimmedLeft := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
	sentence := strings.TrimSpace(raw)
	return sentence, clamp(hitOffset-segStart-trimmedLeft, 0, len(sentence))
}

// snapToRuneStart moves pos left until it no longer splits a UTF-8
// sequence.
func snapToRuneStart(s string, pos int) int {
	for pos > 0 && pos < len(s) && !utf8.RuneStart(s[pos]) {
		pos--
	}
	return pos
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
