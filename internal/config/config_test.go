// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fineprint/internal/detector"
	"fineprint/internal/observability"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if config.Defaults.Format != "text" {
		t.Errorf("Expected default format text, got %q", config.Defaults.Format)
	}
	if config.Defaults.MaxSpans != 50 {
		t.Errorf("Expected default max_spans 50, got %d", config.Defaults.MaxSpans)
	}
	if !config.Defaults.Color || !config.Defaults.Cache {
		t.Error("Expected color and cache enabled by default")
	}
	if config.Defaults.Workers != 4 {
		t.Errorf("Expected default workers 4, got %d", config.Defaults.Workers)
	}
	if config.GetProfile("ci") == nil {
		t.Error("Expected built-in ci profile")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
defaults:
  format: json
  max_spans: 25
  verbose: true
profiles:
  strict:
    format: yaml
    max_spans: 10
    description: Low-noise scans for legal review
patterns:
  fees:
    - 'surcharge'
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Defaults.Format != "json" {
		t.Errorf("Expected format json, got %q", config.Defaults.Format)
	}
	if config.Defaults.MaxSpans != 25 {
		t.Errorf("Expected max_spans 25, got %d", config.Defaults.MaxSpans)
	}
	if !config.Defaults.Verbose {
		t.Error("Expected verbose enabled")
	}

	profile := config.GetProfile("strict")
	if profile == nil {
		t.Fatal("Expected strict profile")
	}
	if profile.Format != "yaml" || profile.MaxSpans != 10 {
		t.Errorf("Expected profile overrides, got %+v", profile)
	}

	extras := config.ExtraPatterns()
	if len(extras[detector.Fees]) != 1 || extras[detector.Fees][0] != "surcharge" {
		t.Errorf("Expected fees extra pattern, got %v", extras)
	}
}

func TestLoadConfig_OmittedBoolsKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
defaults:
  format: json
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !config.Defaults.Color {
		t.Error("Expected omitted color to stay enabled")
	}
	if !config.Defaults.Cache {
		t.Error("Expected omitted cache to stay enabled")
	}
}

func TestLoadConfig_ExplicitFalseBoolsRespected(t *testing.T) {
	path := writeConfig(t, `
defaults:
  color: false
  cache: false
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Defaults.Color {
		t.Error("Expected explicit color: false to be honored")
	}
	if config.Defaults.Cache {
		t.Error("Expected explicit cache: false to be honored")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid format",
			mutate:  func(c *Config) { c.Defaults.Format = "xml" },
			wantErr: "invalid format",
		},
		{
			name:    "max_spans too small",
			mutate:  func(c *Config) { c.Defaults.MaxSpans = 0 },
			wantErr: "max_spans",
		},
		{
			name:    "max_spans too large",
			mutate:  func(c *Config) { c.Defaults.MaxSpans = 1000 },
			wantErr: "max_spans",
		},
		{
			name:    "workers out of range",
			mutate:  func(c *Config) { c.Defaults.Workers = 0 },
			wantErr: "workers",
		},
		{
			name:    "unknown risk type in patterns",
			mutate:  func(c *Config) { c.Patterns = map[string][]string{"bogus": {"x"}} },
			wantErr: "unknown risk type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, _ := LoadConfig("")
			tt.mutate(config)
			err := ValidateConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigOrDefault_FallsBackOnBrokenFile(t *testing.T) {
	path := writeConfig(t, "defaults: [not a mapping")

	var buf bytes.Buffer
	obs := observability.NewStandardObserver(observability.LevelDebug, &buf)
	config := LoadConfigOrDefault(path, obs)

	if config == nil {
		t.Fatal("Expected fallback config, got nil")
	}
	if config.Defaults.Format != "text" {
		t.Errorf("Expected built-in defaults after parse failure, got %q", config.Defaults.Format)
	}
	if !strings.Contains(buf.String(), "load_failed") {
		t.Error("Expected load failure to be reported to the observer")
	}
}

func TestLoadConfigOrDefault_NonexistentFile(t *testing.T) {
	config := LoadConfigOrDefault("/nonexistent/path/config.yaml", nil)
	if config == nil {
		t.Fatal("Expected non-nil config (fallback to defaults)")
	}
}

func TestGetProfile_Unknown(t *testing.T) {
	config, _ := LoadConfig("")
	if config.GetProfile("nope") != nil {
		t.Error("Expected nil for unknown profile")
	}
}

func TestListProfiles(t *testing.T) {
	config, _ := LoadConfig("")
	found := false
	for _, name := range config.ListProfiles() {
		if name == "ci" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected ci in profile list, got %v", config.ListProfiles())
	}
}
