// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"fineprint/internal/detector"
	"fineprint/internal/formatters"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"white":   color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

// Format renders one section per document: title line, hero warning,
// per-type finding counts, the data-sharing heatmap, summary bullets and,
// in verbose mode, every span with its snippet.
func (f *Formatter) Format(reports []formatters.Report, options formatters.FormatterOptions) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	if len(reports) == 0 {
		return "No documents scanned.", nil
	}

	var builder strings.Builder
	for i, report := range reports {
		if i > 0 {
			builder.WriteString("\n")
		}
		f.formatReport(&builder, report, options)
	}
	f.appendTotals(&builder, reports)
	return builder.String(), nil
}

func (f *Formatter) formatReport(builder *strings.Builder, report formatters.Report, options formatters.FormatterOptions) {
	result := report.Result

	// Header: title and path
	header := result.Title
	if header == "" {
		header = report.Path
	} else if report.Path != "" && report.Path != result.Title {
		header = fmt.Sprintf("%s (%s)", result.Title, report.Path)
	}
	builder.WriteString(f.sprint("white", header))
	builder.WriteString("\n")

	// Severity verdict
	builder.WriteString(fmt.Sprintf("  Severity: %s", f.severityLabel(result.Severity, options)))
	if result.Truncated {
		builder.WriteString("  (findings truncated)")
	}
	if result.Suppressed > 0 {
		builder.WriteString(fmt.Sprintf("  (%d suppressed)", result.Suppressed))
	}
	builder.WriteString("\n")

	if result.Hero != "" {
		builder.WriteString(fmt.Sprintf("  %s\n", f.sprint("yellow", result.Hero)))
	}

	// Finding counts per risk type, in canonical order
	counts := result.CountByType()
	if len(result.Spans) == 0 {
		builder.WriteString("  No risky clauses found.\n")
	} else {
		for _, riskType := range detector.AllRiskTypes {
			count := counts[riskType]
			if count == 0 {
				continue
			}
			label := fmt.Sprintf("%-14s", riskType)
			builder.WriteString(fmt.Sprintf("  %s %s\n", f.sprint("cyan", label), pluralFindings(count)))
		}
	}

	// Data-sharing heatmap, only when something was seen
	if result.Heatmap.Total() > 0 {
		builder.WriteString(fmt.Sprintf("  Data sharing: %s", f.severityLabel(result.Heatmap.Level, options)))
		if len(result.Heatmap.TopRecipients) > 0 {
			var recipients []string
			for _, r := range result.Heatmap.TopRecipients {
				recipients = append(recipients, fmt.Sprintf("%s (%d)", r.Phrase, r.Count))
			}
			builder.WriteString("  recipients: " + strings.Join(recipients, ", "))
		}
		builder.WriteString("\n")
	}

	// Summary bullets
	for _, bullet := range report.Bullets {
		builder.WriteString(fmt.Sprintf("  - %s\n", bullet))
	}

	if options.Verbose {
		f.appendSpanDetail(builder, result.Spans, options)
	}
}

// appendSpanDetail lists every span with offsets, matched text and snippet
func (f *Formatter) appendSpanDetail(builder *strings.Builder, spans []detector.Span, options formatters.FormatterOptions) {
	for _, span := range spans {
		offsets := fmt.Sprintf("%6d-%-6d", span.Start, span.End)
		typeStr := fmt.Sprintf("%-14s", span.Type)
		builder.WriteString(fmt.Sprintf("    %s %s %q\n",
			f.sprint("magenta", offsets),
			f.sprint("cyan", typeStr),
			span.MatchedText))
		if span.Snippet != "" {
			builder.WriteString(fmt.Sprintf("      %s\n", span.Snippet))
		}
	}
}

// appendTotals writes the cross-document footer
func (f *Formatter) appendTotals(builder *strings.Builder, reports []formatters.Report) {
	if len(reports) < 2 {
		return
	}
	total := 0
	worst := detector.SeverityLow
	for _, report := range reports {
		total += len(report.Result.Spans)
		if report.Result.Severity.Rank() > worst.Rank() {
			worst = report.Result.Severity
		}
	}
	builder.WriteString(fmt.Sprintf("\n%d documents scanned, %s, worst severity %s\n",
		len(reports), pluralFindings(total), strings.ToUpper(string(worst))))
}

// severityLabel renders a severity in its conventional color
func (f *Formatter) severityLabel(severity detector.Severity, options formatters.FormatterOptions) string {
	label := strings.ToUpper(string(severity))
	if options.NoColor {
		return label
	}
	switch severity {
	case detector.SeverityHigh:
		return f.sprint("red", label)
	case detector.SeverityMedium:
		return f.sprint("yellow", label)
	default:
		return f.sprint("green", label)
	}
}

func (f *Formatter) sprint(name, text string) string {
	c, ok := f.colors[name]
	if !ok {
		return text
	}
	return c.Sprint(text)
}

func pluralFindings(count int) string {
	if count == 1 {
		return "1 finding"
	}
	return fmt.Sprintf("%d findings", count)
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
