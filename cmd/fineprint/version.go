// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"fineprint/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "json":
		data, err := json.MarshalIndent(version.Full(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Println(string(data))
	case "pretty":
		fmt.Println(version.Info())
		full := version.Full()
		fmt.Printf("  commit:     %s\n", full["commit"])
		fmt.Printf("  built:      %s\n", full["buildDate"])
		fmt.Printf("  go version: %s\n", full["goVersion"])
		fmt.Printf("  platform:   %s\n", full["platform"])
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
