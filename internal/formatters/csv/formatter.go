// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"fmt"
	"strings"

	"fineprint/internal/formatters"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

// Format writes one row per resolved span. Document-level fields repeat
// on every row so the file filters cleanly in a spreadsheet.
func (f *Formatter) Format(reports []formatters.Report, options formatters.FormatterOptions) (string, error) {
	headers := []string{"Path", "Title", "Severity", "Type", "Start", "End", "Matched Text"}
	if options.Verbose {
		headers = append(headers, "Snippet")
	}

	csvRows := []string{strings.Join(headers, ",")}

	for _, report := range reports {
		result := report.Result
		for _, span := range result.Spans {
			row := []string{
				f.escapeCSVField(report.Path),
				f.escapeCSVField(result.Title),
				f.escapeCSVField(string(result.Severity)),
				f.escapeCSVField(string(span.Type)),
				fmt.Sprintf("%d", span.Start),
				fmt.Sprintf("%d", span.End),
				f.escapeCSVField(span.MatchedText),
			}
			if options.Verbose {
				row = append(row, f.escapeCSVField(span.Snippet))
			}
			csvRows = append(csvRows, strings.Join(row, ","))
		}
	}

	return strings.Join(csvRows, "\n"), nil
}

// escapeCSVField quotes a field when it contains a comma, quote or newline
func (f *Formatter) escapeCSVField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
	}
	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
