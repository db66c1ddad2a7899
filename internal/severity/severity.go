// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package severity turns the resolved span set into the overall verdict
// and a single priority-selected hero warning line.
package severity

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fineprint/internal/detector"
	"fineprint/internal/patterns"
)

// Additive category weights. Fixed by design, not configurable.
const (
	weightAutoRenewalBilled = 3
	weightAutoRenewal       = 2
	weightArbitration       = 3
	weightClassAction       = 2
	weightCancellation      = 1
	weightFees              = 1
)

// Score thresholds for the severity mapping.
const (
	highScore   = 4
	mediumScore = 2
)

// billingWindow is how far around the first auto-renewal span the scorer
// looks for a price or cadence term, in bytes.
const billingWindow = 160

// Fixed hero messages. The auto-renewal message interpolates nearby
// billing terms when they exist.
const (
	heroFees         = "Fees beyond the base price are mentioned. Check what you will actually pay."
	heroCancellation = "Cancellation terms apply. Check the notice period before you commit."
	heroAutoRenewal  = "This subscription renews automatically unless you cancel."
)

// Score computes the additive risk score over the resolved spans and maps
// it to a severity, then selects the hero line. Only the first
// auto-renewal span contributes, and it is worth more when a price or
// billing-cadence term appears within the billing window around it. The
// hero is chosen by fixed priority (fees, then cancellation, then
// auto-renewal) independent of the numeric score; the empty string means
// no hero.
func Score(spans []detector.Span, fullText string, bank *patterns.Bank) (detector.Severity, string) {
	present := make(map[detector.RiskType]bool)
	var firstAutoRenewal *detector.Span
	for i := range spans {
		present[spans[i].Type] = true
		if spans[i].Type == detector.AutoRenewal && firstAutoRenewal == nil {
			firstAutoRenewal = &spans[i]
		}
	}

	score := 0
	var billing string
	if firstAutoRenewal != nil {
		billing = nearbyBilling(bank, fullText, *firstAutoRenewal)
		if billing != "" {
			score += weightAutoRenewalBilled
		} else {
			score += weightAutoRenewal
		}
	}
	if present[detector.Arbitration] {
		score += weightArbitration
	}
	if present[detector.ClassAction] {
		score += weightClassAction
	}
	if present[detector.Cancellation] {
		score += weightCancellation
	}
	if present[detector.Fees] {
		score += weightFees
	}

	severity := detector.SeverityLow
	switch {
	case score >= highScore:
		severity = detector.SeverityHigh
	case score >= mediumScore:
		severity = detector.SeverityMedium
	}

	return severity, hero(present, firstAutoRenewal != nil, billing)
}

// Weights reports the per-category contribution for inventory listings.
// Auto-renewal reports its base weight.
func Weights() map[detector.RiskType]int {
	return map[detector.RiskType]int{
		detector.AutoRenewal:  weightAutoRenewal,
		detector.Arbitration:  weightArbitration,
		detector.ClassAction:  weightClassAction,
		detector.Cancellation: weightCancellation,
		detector.Fees:         weightFees,
		detector.DataSharing:  0,
	}
}

func hero(present map[detector.RiskType]bool, hasAutoRenewal bool, billing string) string {
	switch {
	case present[detector.Fees]:
		return heroFees
	case present[detector.Cancellation]:
		return heroCancellation
	case hasAutoRenewal:
		if billing != "" {
			return fmt.Sprintf("This subscription renews automatically at %s unless you cancel.", billing)
		}
		return heroAutoRenewal
	}
	return ""
}

// nearbyBilling returns a display phrase for the price and/or cadence term
// found within the billing window around the span, or "" when neither
// occurs.
func nearbyBilling(bank *patterns.Bank, fullText string, s detector.Span) string {
	if s.Start < 0 || s.End > len(fullText) || s.End <= s.Start {
		return ""
	}
	from := snapToRuneStart(fullText, max(0, s.Start-billingWindow))
	to := snapToRuneStart(fullText, min(len(fullText), s.End+billingWindow))
	window := fullText[from:to]

	price := bank.Price().FindString(window)
	cadence := bank.Cadence().FindString(window)
	switch {
	case price != "" && cadence != "":
		if strings.HasPrefix(cadence, "/") {
			return price + cadence
		}
		return price + " " + cadence
	case price != "":
		return price
	default:
		return cadence
	}
}

func snapToRuneStart(s string, pos int) int {
	for pos > 0 && pos < len(s) && !utf8.RuneStart(s[pos]) {
		pos--
	}
	return pos
}
