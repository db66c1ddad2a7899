// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package heatmap counts data-sharing vocabulary and ranks "shares with
// whom" recipient phrases. It runs over the same source text as the risk
// detectors but is independent of the resolved span set.
package heatmap

import (
	"regexp"
	"sort"
	"strings"

	"fineprint/internal/detector"
	"fineprint/internal/patterns"
)

// Level thresholds on the total across all buckets. Fixed by design, not
// configurable.
const (
	highTotal   = 15
	mediumTotal = 5
)

// maxRecipients caps the ranked recipient list.
const maxRecipients = 5

// Build counts every bucket pattern over fullText (buckets may overlap
// each other), maps the total to a level, and extracts the top recipient
// phrases. Every bucket key is present in Counts even at zero, so callers
// can render a stable table.
func Build(bank *patterns.Bank, fullText string) detector.Heatmap {
	counts := make(map[string]int, len(patterns.BucketOrder))
	total := 0
	for _, bucket := range bank.Buckets() {
		n := bucket.Count(fullText)
		counts[bucket.Name] = n
		total += n
	}

	level := detector.SeverityLow
	switch {
	case total >= highTotal:
		level = detector.SeverityHigh
	case total >= mediumTotal:
		level = detector.SeverityMedium
	}

	return detector.Heatmap{
		Counts:        counts,
		Level:         level,
		TopRecipients: topRecipients(bank.Recipients(), fullText),
	}
}

// topRecipients accumulates normalized capture-group phrases across all
// recipient patterns and returns the five most frequent. Ties keep
// first-encountered order.
func topRecipients(res []*regexp.Regexp, text string) []detector.Recipient {
	counts := make(map[string]int)
	var order []string
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			phrase := normalizePhrase(m[1])
			if phrase == "" {
				continue
			}
			if _, seen := counts[phrase]; !seen {
				order = append(order, phrase)
			}
			counts[phrase]++
		}
	}

	recipients := make([]detector.Recipient, 0, len(order))
	for _, phrase := range order {
		recipients = append(recipients, detector.Recipient{Phrase: phrase, Count: counts[phrase]})
	}
	sort.SliceStable(recipients, func(i, j int) bool {
		return recipients[i].Count > recipients[j].Count
	})
	if len(recipients) > maxRecipients {
		recipients = recipients[:maxRecipients]
	}
	return recipients
}

var spaceRun = regexp.MustCompile(`\s+`)

func normalizePhrase(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(strings.ToLower(s), " "))
}
