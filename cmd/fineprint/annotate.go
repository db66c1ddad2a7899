// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fineprint/internal/annotate"
	"fineprint/internal/extract"
	"fineprint/internal/patterns"
	"fineprint/internal/scanner"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <file.html>",
	Short: "Scan an HTML document and write it back with findings marked",
	Long: `Scan an HTML document and emit annotated HTML with every finding
wrapped in a <mark> element. Findings are located by their snippet text
first and the matched keyword second; findings whose text no longer
appears in the document are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringP("output", "o", "", "write annotated HTML to a file instead of stdout")
	annotateCmd.Flags().Int("max-marks", 0, "maximum marks to apply")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	observer := newObserver(cmd)
	cfg := loadConfig(cmd, observer)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	content, err := extract.ParseHTML(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	bank, err := patterns.Load(cfg.ExtraPatterns())
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}
	core := scanner.New(scanner.Config{Bank: bank, Observer: observer})
	files := scanner.NewFileScanner(core, scanner.FileConfig{})

	result, err := files.ScanContent(content)
	if err != nil {
		return fmt.Errorf("failed to scan document: %w", err)
	}

	doc := annotate.NewDocument(content.Blocks...)
	applier := annotate.NewApplier(doc).WithObserver(observer)
	if maxMarks, _ := cmd.Flags().GetInt("max-marks"); maxMarks > 0 {
		applier = applier.WithMaxMarks(maxMarks)
	}
	applied, capped := applier.Apply(result.Spans)

	rendered := doc.RenderHTML()
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := os.WriteFile(output, []byte(rendered), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	} else {
		fmt.Print(rendered)
	}

	status := fmt.Sprintf("Applied %d of %d findings", applied, len(result.Spans))
	if capped {
		status += " (mark budget reached)"
	}
	fmt.Fprintln(os.Stderr, status)
	return nil
}
