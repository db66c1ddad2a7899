// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"strings"
	"testing"
)

type stubFormatter struct {
	name string
}

func (s *stubFormatter) Format(reports []Report, options FormatterOptions) (string, error) {
	return s.name + " output", nil
}

func (s *stubFormatter) Name() string          { return s.name }
func (s *stubFormatter) Description() string   { return "stub" }
func (s *stubFormatter) FileExtension() string { return "." + s.name }

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubFormatter{name: "alpha"})
	registry.Register(&stubFormatter{name: "beta"})

	formatter, ok := registry.Get("alpha")
	if !ok {
		t.Fatal("Expected alpha formatter to be registered")
	}
	if formatter.Name() != "alpha" {
		t.Errorf("Expected alpha, got %q", formatter.Name())
	}

	if _, ok := registry.Get("missing"); ok {
		t.Error("Expected missing formatter lookup to fail")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubFormatter{name: "zeta"})
	registry.Register(&stubFormatter{name: "alpha"})

	names := registry.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Expected sorted names, got %v", names)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export("no-such-format", nil, FormatterOptions{})
	if err == nil {
		t.Fatal("Expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("Expected unsupported format error, got %v", err)
	}
}

func TestGetFormatInfo_UnknownFormat(t *testing.T) {
	info := GetFormatInfo("no-such-format")
	if info.Name != "" {
		t.Errorf("Expected empty info for unknown format, got %+v", info)
	}
}
