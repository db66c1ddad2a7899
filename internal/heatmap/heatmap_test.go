// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package heatmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fineprint/internal/detector"
	"fineprint/internal/patterns"
)

func TestBuild_CountsBuckets(t *testing.T) {
	text := "We share data with third parties. Our partners and affiliates may sell data for advertising and analytics."
	hm := Build(patterns.Default(), text)

	want := map[string]int{
		"third_party": 1,
		"share":       1,
		"sell":        1,
		"affiliate":   1,
		"partner":     1,
		"advertising": 1,
		"analytics":   1,
	}
	assert.Equal(t, want, hm.Counts)
	assert.Equal(t, detector.SeverityMedium, hm.Level, "total of 7 should map to medium")
}

func TestBuild_LevelThresholds(t *testing.T) {
	cases := []struct {
		name    string
		mention int
		want    detector.Severity
	}{
		{"zero mentions", 0, detector.SeverityLow},
		{"below medium", 4, detector.SeverityLow},
		{"medium boundary", 5, detector.SeverityMedium},
		{"below high", 14, detector.SeverityMedium},
		{"high boundary", 15, detector.SeverityHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.Repeat("share ", tc.mention)
			hm := Build(patterns.Default(), text)
			assert.Equal(t, tc.want, hm.Level)
			assert.Equal(t, tc.mention, hm.Counts["share"])
		})
	}
}

func TestBuild_EmptyTextHasAllBucketKeys(t *testing.T) {
	hm := Build(patterns.Default(), "")
	require.Len(t, hm.Counts, len(patterns.BucketOrder))
	for _, name := range patterns.BucketOrder {
		n, ok := hm.Counts[name]
		require.Truef(t, ok, "bucket %q missing", name)
		assert.Zerof(t, n, "bucket %q should be zero", name)
	}
	assert.Equal(t, detector.SeverityLow, hm.Level)
	assert.Empty(t, hm.TopRecipients)
}

func TestBuild_RecipientsRankedByCount(t *testing.T) {
	text := "We share with advertising networks. They share with advertising networks. " +
		"We sell to data brokers. Trust our marketing partners."
	hm := Build(patterns.Default(), text)

	require.Len(t, hm.TopRecipients, 3)
	assert.Equal(t, detector.Recipient{Phrase: "advertising networks", Count: 2}, hm.TopRecipients[0])
	// Equal counts keep first-encountered order.
	assert.Equal(t, "data brokers", hm.TopRecipients[1].Phrase)
	assert.Equal(t, "marketing partners", hm.TopRecipients[2].Phrase)
}

func TestBuild_RecipientsCappedAtFive(t *testing.T) {
	text := "We sell to alpha inc. We sell to beta inc. We sell to gamma inc. " +
		"We sell to delta inc. We sell to epsilon inc. We sell to zeta inc. " +
		"We sell to alpha inc."
	hm := Build(patterns.Default(), text)

	require.Len(t, hm.TopRecipients, 5)
	assert.Equal(t, detector.Recipient{Phrase: "alpha inc", Count: 2}, hm.TopRecipients[0])
	for _, r := range hm.TopRecipients[1:] {
		assert.Equal(t, 1, r.Count)
	}
}

func TestBuild_RecipientsNormalized(t *testing.T) {
	text := "We may SHARE WITH   Facebook   Ads\nwhenever convenient."
	hm := Build(patterns.Default(), text)

	require.NotEmpty(t, hm.TopRecipients)
	assert.Equal(t, "facebook ads", hm.TopRecipients[0].Phrase)
}
