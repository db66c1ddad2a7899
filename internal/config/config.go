// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fineprint/internal/detector"
	"fineprint/internal/observability"
)

// DefaultFileName is the project-local configuration file.
const DefaultFileName = ".fineprint.yaml"

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format           string `yaml:"format"`
		MaxSpans         int    `yaml:"max_spans"`
		Color            bool   `yaml:"color"`
		Cache            bool   `yaml:"cache"`
		Verbose          bool   `yaml:"verbose"`
		Workers          int    `yaml:"workers"`
		Summary          bool   `yaml:"summary"`
		SuppressionsFile string `yaml:"suppressions_file"`
	} `yaml:"defaults"`

	// Extra detection patterns appended to the embedded bank, keyed by
	// risk type.
	Patterns map[string][]string `yaml:"patterns"`

	// Profiles for different scanning scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile represents a scanning profile with specific settings
type Profile struct {
	Format           string `yaml:"format"`
	MaxSpans         int    `yaml:"max_spans"`
	Color            bool   `yaml:"color"`
	Cache            bool   `yaml:"cache"`
	Verbose          bool   `yaml:"verbose"`
	Workers          int    `yaml:"workers"`
	Summary          bool   `yaml:"summary"`
	SuppressionsFile string `yaml:"suppressions_file"`
	Description      string `yaml:"description"`
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	// Default configuration
	config := &Config{
		Patterns: make(map[string][]string),
		Profiles: make(map[string]Profile),
	}
	config.Defaults.Format = "text"
	config.Defaults.MaxSpans = 50
	config.Defaults.Color = true
	config.Defaults.Cache = true
	config.Defaults.Verbose = false
	config.Defaults.Workers = 4
	config.Defaults.Summary = false

	// Add a default CI profile: machine-readable, plain output
	config.Profiles["ci"] = Profile{
		Format:      "json",
		MaxSpans:    50,
		Color:       false,
		Cache:       false,
		Workers:     4,
		Description: "Optimized for CI pipelines with JSON output and no cache",
	}

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Store default values before unmarshaling
	defaultColor := config.Defaults.Color
	defaultCache := config.Defaults.Cache

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Restore defaults if not explicitly set in config file. YAML
	// unmarshaling zeroes bool fields that the file omits.
	if !containsField(data, "defaults", "color") {
		config.Defaults.Color = defaultColor
	}
	if !containsField(data, "defaults", "cache") {
		config.Defaults.Cache = defaultCache
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads the configuration from path, or from the
// standard search locations when path is empty. A missing or broken file
// never fails the program: the built-in defaults are returned and the
// problem is reported through the observer.
func LoadConfigOrDefault(path string, observer observability.Observer) *Config {
	if path == "" {
		path = FindConfigFile()
	}
	config, err := LoadConfig(path)
	if err != nil {
		if observer != nil {
			observer.Event("config", "load_failed", err.Error())
		}
		config, _ = LoadConfig("")
	}
	return config
}

// ValidateConfig checks configured values against their allowed ranges.
func ValidateConfig(config *Config) error {
	switch config.Defaults.Format {
	case "text", "json", "yaml", "csv":
	default:
		return fmt.Errorf("invalid format: %s (valid: text, json, yaml, csv)", config.Defaults.Format)
	}
	if config.Defaults.MaxSpans < 1 || config.Defaults.MaxSpans > 500 {
		return fmt.Errorf("max_spans must be between 1 and 500, got %d", config.Defaults.MaxSpans)
	}
	if config.Defaults.Workers < 1 || config.Defaults.Workers > 64 {
		return fmt.Errorf("workers must be between 1 and 64, got %d", config.Defaults.Workers)
	}
	for riskType := range config.Patterns {
		if !detector.RiskType(riskType).Valid() {
			return fmt.Errorf("unknown risk type in patterns: %s", riskType)
		}
	}
	return nil
}

// ExtraPatterns converts the configured pattern extras to detector keys.
func (c *Config) ExtraPatterns() map[detector.RiskType][]string {
	if len(c.Patterns) == 0 {
		return nil
	}
	extras := make(map[detector.RiskType][]string, len(c.Patterns))
	for riskType, patterns := range c.Patterns {
		extras[detector.RiskType(riskType)] = patterns
	}
	return extras
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	// Explicit override first
	if path := os.Getenv("FINEPRINT_CONFIG"); path != "" && fileExists(path) {
		return path
	}

	// Project-local config in the current directory
	if fileExists(DefaultFileName) {
		return DefaultFileName
	}
	if fileExists(".fineprint.yml") {
		return ".fineprint.yml"
	}

	// XDG config directory
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		candidate := filepath.Join(xdgConfig, "fineprint", name)
		if fileExists(candidate) {
			return candidate
		}
	}

	// Legacy location in the home directory
	homeConfig := filepath.Join(home, DefaultFileName)
	if fileExists(homeConfig) {
		return homeConfig
	}

	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// ListProfiles returns a list of available profile names
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	err := yaml.Unmarshal(data, &yamlData)
	if err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		if next, ok := current[key].(map[string]interface{}); ok {
			current = next
		} else {
			return false
		}
	}
	return false
}
