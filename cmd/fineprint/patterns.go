// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fineprint/internal/detector"
	"fineprint/internal/patterns"
	"fineprint/internal/severity"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List detection categories, pattern counts and severity weights",
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().String("format", "text", "output format (text|json)")
}

// patternInventory is the JSON shape of the patterns listing.
type patternInventory struct {
	Fingerprint    string                    `json:"fingerprint"`
	Categories     []patterns.CategoryInfo   `json:"categories"`
	Weights        map[detector.RiskType]int `json:"weights"`
	HeatmapBuckets []string                  `json:"heatmap_buckets"`
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	observer := newObserver(cmd)
	cfg := loadConfig(cmd, observer)

	bank, err := patterns.Load(cfg.ExtraPatterns())
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	inventory := patternInventory{
		Fingerprint:    bank.Fingerprint(),
		Categories:     bank.Inventory(),
		Weights:        severity.Weights(),
		HeatmapBuckets: patterns.BucketOrder,
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "json":
		data, err := json.MarshalIndent(inventory, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal inventory: %w", err)
		}
		fmt.Println(string(data))
	case "text":
		fmt.Println("Detection categories:")
		for _, info := range inventory.Categories {
			fmt.Printf("  %-14s %-28s %2d patterns, weight %d\n",
				info.Type, info.Title, info.PatternCount, inventory.Weights[info.Type])
		}
		fmt.Printf("\nHeatmap buckets: %s\n", strings.Join(inventory.HeatmapBuckets, ", "))
		fmt.Printf("Bank fingerprint: %s\n", inventory.Fingerprint)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
