// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package patterns holds the pattern bank: the risk detectors and the
// auxiliary context patterns, defined as data in an embedded TOML file and
// compiled once at startup. Adding a risk category means editing bank.toml,
// not the scan logic.
package patterns

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"fineprint/internal/detector"
)

//go:embed bank.toml
var rawBank []byte

type bankFile struct {
	Version int                    `toml:"version"`
	Risks   map[string]riskSection `toml:"risks"`
	Aux     auxSection             `toml:"aux"`
	Heatmap heatmapSection         `toml:"heatmap"`
}

type riskSection struct {
	Patterns []string `toml:"patterns"`
}

type auxSection struct {
	Price   string `toml:"price"`
	Cadence string `toml:"cadence"`
}

type heatmapSection struct {
	Buckets    map[string]string `toml:"buckets"`
	Recipients recipientSection  `toml:"recipients"`
}

type recipientSection struct {
	Patterns []string `toml:"patterns"`
}

// BucketOrder fixes the heatmap bucket sequence for counting and display.
var BucketOrder = []string{
	"third_party",
	"share",
	"sell",
	"affiliate",
	"partner",
	"advertising",
	"analytics",
}

// Bucket is one heatmap term bucket with its compiled pattern.
type Bucket struct {
	Name string
	re   *regexp.Regexp
}

// Count returns how many times the bucket's pattern occurs in text.
func (b Bucket) Count(text string) int {
	return len(b.re.FindAllStringIndex(text, -1))
}

// Bank is the compiled pattern bank. Read-only after Load; safe for
// concurrent use across scans.
type Bank struct {
	matchers    []detector.Matcher
	byType      map[detector.RiskType]*riskMatcher
	price       *regexp.Regexp
	cadence     *regexp.Regexp
	buckets     []Bucket
	recipients  []*regexp.Regexp
	fingerprint string
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
)

// Default returns the bank compiled from the embedded definitions alone.
// The embedded file is fixed at build time, so a compile failure here is a
// programmer error and panics.
func Default() *Bank {
	defaultOnce.Do(func() {
		b, err := Load(nil)
		if err != nil {
			panic("patterns: embedded bank: " + err.Error())
		}
		defaultBank = b
	})
	return defaultBank
}

// Load compiles the embedded bank plus any extra per-category patterns
// (typically from the user's config file). Extra patterns are appended
// after the built-in ones for their category.
func Load(extra map[detector.RiskType][]string) (*Bank, error) {
	var file bankFile
	if err := toml.Unmarshal(rawBank, &file); err != nil {
		return nil, fmt.Errorf("parse bank definitions: %w", err)
	}

	bank := &Bank{
		byType: make(map[detector.RiskType]*riskMatcher, len(detector.AllRiskTypes)),
	}

	hash := sha256.New()
	hash.Write(rawBank)

	for _, riskType := range detector.AllRiskTypes {
		section, ok := file.Risks[string(riskType)]
		if !ok {
			return nil, fmt.Errorf("bank definitions missing category %q", riskType)
		}
		sources := append([]string{}, section.Patterns...)
		if add := extra[riskType]; len(add) > 0 {
			sources = append(sources, add...)
			for _, p := range add {
				fmt.Fprintf(hash, "extra:%s:%s\n", riskType, p)
			}
		}
		matcher, err := newRiskMatcher(riskType, sources)
		if err != nil {
			return nil, err
		}
		bank.matchers = append(bank.matchers, matcher)
		bank.byType[riskType] = matcher
	}

	var err error
	if bank.price, err = compileInsensitive(file.Aux.Price); err != nil {
		return nil, fmt.Errorf("compile price pattern: %w", err)
	}
	if bank.cadence, err = compileInsensitive(file.Aux.Cadence); err != nil {
		return nil, fmt.Errorf("compile cadence pattern: %w", err)
	}

	for _, name := range BucketOrder {
		src, ok := file.Heatmap.Buckets[name]
		if !ok {
			return nil, fmt.Errorf("bank definitions missing heatmap bucket %q", name)
		}
		re, err := compileInsensitive(src)
		if err != nil {
			return nil, fmt.Errorf("compile heatmap bucket %q: %w", name, err)
		}
		bank.buckets = append(bank.buckets, Bucket{Name: name, re: re})
	}

	for i, src := range file.Heatmap.Recipients.Patterns {
		re, err := compileInsensitive(src)
		if err != nil {
			return nil, fmt.Errorf("compile recipient pattern %d: %w", i, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("recipient pattern %d has no capture group", i)
		}
		bank.recipients = append(bank.recipients, re)
	}

	bank.fingerprint = hex.EncodeToString(hash.Sum(nil))
	return bank, nil
}

// Matchers returns the category matchers in detection order.
func (b *Bank) Matchers() []detector.Matcher {
	return b.matchers
}

// Matcher returns the matcher for one category.
func (b *Bank) Matcher(t detector.RiskType) (detector.Matcher, bool) {
	m, ok := b.byType[t]
	return m, ok
}

// Price returns the compiled price pattern.
func (b *Bank) Price() *regexp.Regexp { return b.price }

// Cadence returns the compiled billing-cadence pattern.
func (b *Bank) Cadence() *regexp.Regexp { return b.cadence }

// Buckets returns the heatmap buckets in display order.
func (b *Bank) Buckets() []Bucket { return b.buckets }

// Recipients returns the compiled recipient capture patterns.
func (b *Bank) Recipients() []*regexp.Regexp { return b.recipients }

// Fingerprint identifies the pattern source material. Cache keys include
// it so edited patterns invalidate stale scan results.
func (b *Bank) Fingerprint() string { return b.fingerprint }

// CategoryInfo describes one category for inventory listings.
type CategoryInfo struct {
	Type         detector.RiskType `json:"type"`
	Title        string            `json:"title"`
	PatternCount int               `json:"pattern_count"`
}

// Inventory lists every category with its pattern count, in detection
// order.
func (b *Bank) Inventory() []CategoryInfo {
	infos := make([]CategoryInfo, 0, len(b.matchers))
	for _, m := range b.matchers {
		rm := b.byType[m.Type()]
		infos = append(infos, CategoryInfo{
			Type:         m.Type(),
			Title:        m.Type().Title(),
			PatternCount: len(rm.res),
		})
	}
	return infos
}

// riskMatcher implements detector.Matcher for one category as a list of
// compiled alternatives.
type riskMatcher struct {
	riskType detector.RiskType
	res      []*regexp.Regexp
}

func newRiskMatcher(riskType detector.RiskType, sources []string) (*riskMatcher, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("category %q has no patterns", riskType)
	}
	m := &riskMatcher{riskType: riskType}
	for i, src := range sources {
		re, err := compileInsensitive(src)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern %d: %w", riskType, i, err)
		}
		m.res = append(m.res, re)
	}
	return m, nil
}

func (m *riskMatcher) Type() detector.RiskType {
	return m.riskType
}

// FindAll runs every alternative over text and returns the raw spans
// sorted by start offset. Overlap between alternatives is allowed here;
// the resolver merges it later.
func (m *riskMatcher) FindAll(text string) []detector.Span {
	var spans []detector.Span
	for _, re := range m.res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, detector.Span{
				Type:        m.riskType,
				Start:       loc[0],
				End:         loc[1],
				MatchedText: text[loc[0]:loc[1]],
			})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
	return spans
}

func compileInsensitive(src string) (*regexp.Regexp, error) {
	if src == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile("(?i)" + src)
}
