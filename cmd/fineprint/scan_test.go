// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"fineprint/internal/config"
	"fineprint/internal/extract"
	"fineprint/internal/scanner"
)

func newTestScanCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "scan"}
	addScanFlags(cmd)
	cmd.PersistentFlags().String("config", "", "")
	cmd.PersistentFlags().Bool("no-color", false, "")
	cmd.PersistentFlags().Bool("debug", false, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

func defaultTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}
	return cfg
}

func TestResolveScanSettings_Defaults(t *testing.T) {
	cmd := newTestScanCommand(t)
	settings, err := resolveScanSettings(cmd, defaultTestConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.Format != "text" {
		t.Errorf("expected format text, got %q", settings.Format)
	}
	if settings.MaxSpans != 50 {
		t.Errorf("expected max spans 50, got %d", settings.MaxSpans)
	}
	if settings.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", settings.Workers)
	}
	if !settings.UseCache {
		t.Error("expected caching on by default")
	}
	if settings.NoColor {
		t.Error("expected color on by default")
	}
	if settings.Verbose || settings.Summary {
		t.Error("expected verbose and summary off by default")
	}
}

func TestResolveScanSettings_FlagsWin(t *testing.T) {
	cmd := newTestScanCommand(t,
		"--format", "json",
		"--max-spans", "10",
		"--workers", "2",
		"--no-cache",
		"--verbose",
		"--summary",
		"--output", "out.json",
	)
	settings, err := resolveScanSettings(cmd, defaultTestConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.Format != "json" {
		t.Errorf("expected format json, got %q", settings.Format)
	}
	if settings.MaxSpans != 10 {
		t.Errorf("expected max spans 10, got %d", settings.MaxSpans)
	}
	if settings.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", settings.Workers)
	}
	if settings.UseCache {
		t.Error("expected --no-cache to disable caching")
	}
	if !settings.Verbose {
		t.Error("expected verbose on")
	}
	if !settings.Summary {
		t.Error("expected summary on")
	}
	if settings.Output != "out.json" {
		t.Errorf("expected output out.json, got %q", settings.Output)
	}
}

func TestResolveScanSettings_ProfileThenFlags(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.Profiles["strict"] = config.Profile{
		Format:   "yaml",
		MaxSpans: 100,
		Verbose:  true,
		Color:    true,
		Cache:    true,
		Workers:  8,
	}

	cmd := newTestScanCommand(t, "--profile", "strict")
	settings, err := resolveScanSettings(cmd, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Format != "yaml" {
		t.Errorf("expected profile format yaml, got %q", settings.Format)
	}
	if settings.MaxSpans != 100 {
		t.Errorf("expected profile max spans 100, got %d", settings.MaxSpans)
	}
	if !settings.Verbose {
		t.Error("expected profile verbose on")
	}
	if settings.Workers != 8 {
		t.Errorf("expected profile workers 8, got %d", settings.Workers)
	}

	cmd = newTestScanCommand(t, "--profile", "strict", "--format", "csv")
	settings, err = resolveScanSettings(cmd, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Format != "csv" {
		t.Errorf("expected flag to override profile format, got %q", settings.Format)
	}
	if settings.MaxSpans != 100 {
		t.Errorf("expected profile max spans to survive, got %d", settings.MaxSpans)
	}
}

func TestResolveScanSettings_BuiltInCIProfile(t *testing.T) {
	cmd := newTestScanCommand(t, "--profile", "ci")
	settings, err := resolveScanSettings(cmd, defaultTestConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Format != "json" {
		t.Errorf("expected ci profile format json, got %q", settings.Format)
	}
	if !settings.NoColor {
		t.Error("expected ci profile to disable color")
	}
	if settings.UseCache {
		t.Error("expected ci profile to disable caching")
	}
}

func TestResolveScanSettings_UnknownProfile(t *testing.T) {
	cmd := newTestScanCommand(t, "--profile", "nope")
	_, err := resolveScanSettings(cmd, defaultTestConfig(t))
	if err == nil {
		t.Fatal("expected an error for an unknown profile")
	}
	if !strings.Contains(err.Error(), "unknown profile") {
		t.Errorf("expected unknown profile error, got %v", err)
	}
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.html", "c.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content"), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	nested := filepath.Join(dir, "nested")
	if err := os.MkdirAll(nested, 0o700); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "d.md"), []byte("content"), 0o600); err != nil {
		t.Fatalf("failed to write d.md: %v", err)
	}

	files := scanner.NewFileScanner(scanner.New(scanner.Config{}), scanner.FileConfig{})

	inputs, err := collectInputs([]string{dir}, files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.html"),
		filepath.Join(nested, "d.md"),
	}
	if len(inputs) != len(want) {
		t.Fatalf("expected %d inputs, got %d: %v", len(want), len(inputs), inputs)
	}
	for i, path := range want {
		if inputs[i] != path {
			t.Errorf("input %d: expected %s, got %s", i, path, inputs[i])
		}
	}
}

func TestCollectInputs_ExplicitUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(path, []byte{0x00, 0x01}, 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	files := scanner.NewFileScanner(scanner.New(scanner.Config{}), scanner.FileConfig{})
	_, err := collectInputs([]string{path}, files)
	if !errors.Is(err, extract.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for explicit unsupported file, got %v", err)
	}
}

func TestCollectInputs_MissingPath(t *testing.T) {
	files := scanner.NewFileScanner(scanner.New(scanner.Config{}), scanner.FileConfig{})
	_, err := collectInputs([]string{filepath.Join(t.TempDir(), "absent.txt")}, files)
	if err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestCollectInputs_EmptyDirectory(t *testing.T) {
	files := scanner.NewFileScanner(scanner.New(scanner.Config{}), scanner.FileConfig{})
	_, err := collectInputs([]string{t.TempDir()}, files)
	if err == nil {
		t.Fatal("expected an error when nothing is scannable")
	}
}
