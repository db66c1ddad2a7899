// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package suppressions filters known-acceptable findings out of scan
// results via a YAML rule file.
package suppressions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fineprint/internal/detector"
)

// DefaultFileName is looked up in the working directory when no explicit
// path is given.
const DefaultFileName = ".fineprint-suppressions.yaml"

// Rule suppresses spans of one risk category. A span is suppressed when
// the rule is enabled, not expired, the risk type matches (empty matches
// any), and either Match equals the span's matched text case-insensitively
// or Pattern matches it.
type Rule struct {
	ID        string            `yaml:"id"`
	RiskType  string            `yaml:"risk_type,omitempty"`
	Match     string            `yaml:"match,omitempty"`
	Pattern   string            `yaml:"pattern,omitempty"`
	Reason    string            `yaml:"reason"`
	Enabled   bool              `yaml:"enabled"`
	CreatedBy string            `yaml:"created_by,omitempty"`
	CreatedAt time.Time         `yaml:"created_at"`
	ExpiresAt *time.Time        `yaml:"expires_at,omitempty"`
	Metadata  map[string]string `yaml:"metadata,omitempty"`
}

// Config is the suppression file schema.
type Config struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Manager evaluates suppression rules against spans. Read-only after
// construction except for Add/Remove, which the CLI calls before any
// concurrent scanning starts.
type Manager struct {
	configPath string
	config     *Config
	compiled   map[string]*regexp.Regexp
	enabled    bool
}

// NewManager loads rules from configPath, falling back to the default
// file name in the working directory when empty. A missing or unreadable
// file yields an empty rule set, never an error.
func NewManager(configPath string) *Manager {
	if configPath == "" {
		configPath = DefaultFileName
	}
	m := &Manager{
		configPath: configPath,
		enabled:    true,
	}
	m.loadConfig()
	return m
}

func (m *Manager) loadConfig() {
	m.config = &Config{Version: "1.0", Rules: []Rule{}}
	m.compiled = make(map[string]*regexp.Regexp)

	data, err := os.ReadFile(filepath.Clean(m.configPath))
	if err != nil {
		return
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return
	}
	m.config = &config

	for _, rule := range m.config.Rules {
		if rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			// An uncompilable rule is skipped, not fatal.
			continue
		}
		m.compiled[rule.ID] = re
	}
}

// SetEnabled toggles rule evaluation entirely.
func (m *Manager) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// Path returns the rule file the manager reads and writes.
func (m *Manager) Path() string {
	return m.configPath
}

// IsSuppressed reports whether a span matches an active rule, and which
// one.
func (m *Manager) IsSuppressed(span detector.Span) (bool, *Rule) {
	if !m.enabled || m.config == nil {
		return false, nil
	}
	now := time.Now()
	for i := range m.config.Rules {
		rule := &m.config.Rules[i]
		if !rule.Enabled {
			continue
		}
		if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
			continue
		}
		if rule.RiskType != "" && rule.RiskType != string(span.Type) {
			continue
		}
		if rule.Match != "" && strings.EqualFold(rule.Match, span.MatchedText) {
			return true, rule
		}
		if re, ok := m.compiled[rule.ID]; ok && re.MatchString(span.MatchedText) {
			return true, rule
		}
	}
	return false, nil
}

// Filter splits spans into kept and suppressed.
func (m *Manager) Filter(spans []detector.Span) ([]detector.Span, []detector.SuppressedSpan) {
	kept := make([]detector.Span, 0, len(spans))
	var suppressed []detector.SuppressedSpan
	for _, span := range spans {
		if hit, rule := m.IsSuppressed(span); hit {
			suppressed = append(suppressed, detector.SuppressedSpan{
				Span:         span,
				SuppressedBy: rule.ID,
				RuleReason:   rule.Reason,
				ExpiresAt:    rule.ExpiresAt,
			})
			continue
		}
		kept = append(kept, span)
	}
	return kept, suppressed
}

// Add appends a rule for the given risk type and matched text and saves
// the file. A nil expiry defaults to one week out.
func (m *Manager) Add(riskType detector.RiskType, matchText, reason, createdBy string, expiresAt *time.Time) (*Rule, error) {
	if matchText == "" {
		return nil, fmt.Errorf("suppression needs the matched text")
	}
	for _, rule := range m.config.Rules {
		if rule.RiskType == string(riskType) && strings.EqualFold(rule.Match, matchText) {
			return nil, fmt.Errorf("rule %s already suppresses this finding", rule.ID)
		}
	}

	maxID := 0
	for _, rule := range m.config.Rules {
		var num int
		if _, err := fmt.Sscanf(rule.ID, "FPS-%08d", &num); err == nil && num > maxID {
			maxID = num
		}
	}

	if expiresAt == nil {
		week := time.Now().AddDate(0, 0, 7)
		expiresAt = &week
	}

	rule := Rule{
		ID:        fmt.Sprintf("FPS-%08d", maxID+1),
		RiskType:  string(riskType),
		Match:     matchText,
		Reason:    reason,
		Enabled:   true,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	m.config.Rules = append(m.config.Rules, rule)
	if err := m.saveConfig(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Remove deletes a rule by ID and saves the file.
func (m *Manager) Remove(id string) error {
	for i, rule := range m.config.Rules {
		if rule.ID == id {
			m.config.Rules = append(m.config.Rules[:i], m.config.Rules[i+1:]...)
			delete(m.compiled, id)
			return m.saveConfig()
		}
	}
	return fmt.Errorf("suppression rule %s not found", id)
}

// List returns all rules, active or not.
func (m *Manager) List() []Rule {
	if m.config == nil {
		return []Rule{}
	}
	return m.config.Rules
}

func (m *Manager) saveConfig() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("marshal suppression config: %w", err)
	}
	dir := filepath.Dir(m.configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create suppression directory: %w", err)
		}
	}
	if err := os.WriteFile(m.configPath, data, 0o600); err != nil {
		return fmt.Errorf("write suppression config: %w", err)
	}
	return nil
}
