// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Command fineprint scans terms-of-service and policy documents for
// risky clauses and re-applies the findings as highlights.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fineprint/internal/version"

	// Register the built-in output formatters.
	_ "fineprint/internal/formatters/csv"
	_ "fineprint/internal/formatters/json"
	_ "fineprint/internal/formatters/text"
	_ "fineprint/internal/formatters/yaml"
)

var rootCmd = &cobra.Command{
	Use:   "fineprint",
	Short: "Risk scanner for terms-of-service and policy documents",
	Long: `fineprint detects risky clauses in consumer agreements: automatic
renewals, cancellation traps, forced arbitration, class action waivers,
hidden fees and data sharing. Findings carry document offsets and
sentence snippets so they can be re-applied as highlights.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(suppressionsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to configuration file")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().Bool("debug", false, "emit debug events to stderr")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errHighSeverity) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
