// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fineprint/internal/cache"
	"fineprint/internal/config"
	"fineprint/internal/detector"
	"fineprint/internal/extract"
	"fineprint/internal/formatters"
	"fineprint/internal/observability"
	"fineprint/internal/patterns"
	"fineprint/internal/scanner"
	"fineprint/internal/summarize"
	"fineprint/internal/suppressions"
)

// errHighSeverity signals the CI-gate exit code. The findings themselves
// are already printed when it is returned.
var errHighSeverity = errors.New("high severity findings")

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan documents for risky clauses",
	Long: `Scan files, directories or stdin for risky clauses and print the
findings. Directories are walked recursively and files with unsupported
extensions are skipped; with no paths the document is read from stdin.

Exit codes: 0 when no document reaches high severity, 1 when any does,
2 on usage or extraction errors.`,
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "output format (text|json|yaml|csv)")
	cmd.Flags().StringP("output", "o", "", "write results to a file instead of stdout")
	cmd.Flags().Int("max-spans", 0, "maximum findings per document")
	cmd.Flags().String("profile", "", "configuration profile to apply")
	cmd.Flags().Bool("no-cache", false, "bypass the scan result cache")
	cmd.Flags().String("suppressions", "", "path to the suppressions file")
	cmd.Flags().Bool("summary", false, "include plain-language summary bullets")
	cmd.Flags().Bool("verbose", false, "include offsets and snippets in output")
	cmd.Flags().Int("workers", 0, "maximum concurrent file scans")
}

// scanSettings are the resolved knobs for one scan invocation.
type scanSettings struct {
	Format       string
	Output       string
	MaxSpans     int
	Verbose      bool
	Summary      bool
	Workers      int
	UseCache     bool
	NoColor      bool
	Suppressions string
}

func runScan(cmd *cobra.Command, args []string) error {
	observer := newObserver(cmd)
	cfg := loadConfig(cmd, observer)

	settings, err := resolveScanSettings(cmd, cfg)
	if err != nil {
		return err
	}
	// Color only makes sense on a terminal; files and pipes get plain text.
	if settings.Output != "" || !isTerminal(os.Stdout) {
		settings.NoColor = true
	}

	files, err := buildFileScanner(cfg, settings, observer)
	if err != nil {
		return err
	}

	var reports []formatters.Report
	if len(args) == 0 {
		report, err := scanStdin(files)
		if err != nil {
			return err
		}
		reports = []formatters.Report{report}
	} else {
		inputs, err := collectInputs(args, files)
		if err != nil {
			return err
		}
		reports, err = scanFiles(files, inputs, settings.Workers)
		if err != nil {
			return err
		}
	}

	if settings.Summary {
		addSummaries(cmd, reports, observer)
	}

	output, err := formatters.Export(settings.Format, reports, formatters.FormatterOptions{
		Verbose: settings.Verbose,
		NoColor: settings.NoColor,
	})
	if err != nil {
		return err
	}

	if settings.Output != "" {
		if err := os.WriteFile(settings.Output, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", settings.Output)
	} else {
		fmt.Print(output)
	}

	for _, report := range reports {
		if report.Result.Severity == detector.SeverityHigh {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return errHighSeverity
		}
	}
	return nil
}

// newObserver builds the event sink for this invocation. Without --debug
// the engine stays silent.
func newObserver(cmd *cobra.Command) observability.Observer {
	debug, err := cmd.Root().PersistentFlags().GetBool("debug")
	if err != nil || !debug {
		return observability.NopObserver{}
	}
	return observability.NewStandardObserver(observability.LevelDebug, os.Stderr)
}

// loadConfig reads the configuration named by --config, or the first one
// found in the standard locations. Load failures fall back to defaults.
func loadConfig(cmd *cobra.Command, observer observability.Observer) *config.Config {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.LoadConfigOrDefault(path, observer)
}

// resolveScanSettings resolves final values from config defaults, the
// active profile, and command line flags, in increasing precedence.
func resolveScanSettings(cmd *cobra.Command, cfg *config.Config) (scanSettings, error) {
	settings := scanSettings{
		Format:       cfg.Defaults.Format,
		MaxSpans:     cfg.Defaults.MaxSpans,
		Verbose:      cfg.Defaults.Verbose,
		Summary:      cfg.Defaults.Summary,
		Workers:      cfg.Defaults.Workers,
		UseCache:     cfg.Defaults.Cache,
		NoColor:      !cfg.Defaults.Color,
		Suppressions: cfg.Defaults.SuppressionsFile,
	}

	profileName, err := cmd.Flags().GetString("profile")
	if err != nil {
		return settings, fmt.Errorf("failed to get profile flag: %w", err)
	}
	if profileName != "" {
		profile := cfg.GetProfile(profileName)
		if profile == nil {
			return settings, fmt.Errorf("unknown profile %q (available: %v)", profileName, cfg.ListProfiles())
		}
		if profile.Format != "" {
			settings.Format = profile.Format
		}
		if profile.MaxSpans > 0 {
			settings.MaxSpans = profile.MaxSpans
		}
		if profile.Workers > 0 {
			settings.Workers = profile.Workers
		}
		if profile.SuppressionsFile != "" {
			settings.Suppressions = profile.SuppressionsFile
		}
		settings.Verbose = profile.Verbose
		settings.Summary = profile.Summary
		settings.UseCache = profile.Cache
		settings.NoColor = !profile.Color
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		settings.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		settings.Output, _ = flags.GetString("output")
	}
	if flags.Changed("max-spans") {
		settings.MaxSpans, _ = flags.GetInt("max-spans")
	}
	if flags.Changed("verbose") {
		settings.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("summary") {
		settings.Summary, _ = flags.GetBool("summary")
	}
	if flags.Changed("workers") {
		settings.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		settings.UseCache = !noCache
	}
	if flags.Changed("suppressions") {
		settings.Suppressions, _ = flags.GetString("suppressions")
	}
	if noColor, err := cmd.Root().PersistentFlags().GetBool("no-color"); err == nil && noColor {
		settings.NoColor = true
	}

	if settings.MaxSpans <= 0 {
		settings.MaxSpans = 50
	}
	if settings.Workers <= 0 {
		settings.Workers = 4
	}
	if settings.Format == "" {
		settings.Format = "text"
	}
	return settings, nil
}

// buildFileScanner assembles the scan pipeline from the resolved settings.
func buildFileScanner(cfg *config.Config, settings scanSettings, observer observability.Observer) (*scanner.FileScanner, error) {
	bank, err := patterns.Load(cfg.ExtraPatterns())
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	var manager *suppressions.Manager
	if settings.Suppressions != "" {
		manager = suppressions.NewManager(settings.Suppressions)
	} else if _, err := os.Stat(suppressions.DefaultFileName); err == nil {
		manager = suppressions.NewManager(suppressions.DefaultFileName)
	}

	core := scanner.New(scanner.Config{
		Bank:         bank,
		MaxSpans:     settings.MaxSpans,
		Suppressions: manager,
		Observer:     observer,
	})

	var store *cache.DiskCache
	if settings.UseCache {
		store, err = cache.Open("fineprint")
		if err != nil {
			observer.Event("scanner", "cache_unavailable", err.Error())
			store = nil
		}
	}

	return scanner.NewFileScanner(core, scanner.FileConfig{Cache: store}), nil
}

// collectInputs expands the path arguments into scannable files. Files
// named explicitly must be scannable; unsupported files inside directories
// are skipped.
func collectInputs(args []string, files *scanner.FileScanner) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !info.IsDir() {
			if !files.CanScan(arg) {
				return nil, fmt.Errorf("%w: %s", extract.ErrUnsupported, arg)
			}
			inputs = append(inputs, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !files.CanScan(path) {
				return nil
			}
			inputs = append(inputs, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory %s: %w", arg, err)
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no scannable documents found")
	}
	return inputs, nil
}

// scanFiles scans the inputs with bounded concurrency, keeping the report
// order aligned with the input order.
func scanFiles(files *scanner.FileScanner, inputs []string, workers int) ([]formatters.Report, error) {
	reports := make([]formatters.Report, len(inputs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range inputs {
		i, path := i, path
		g.Go(func() error {
			result, err := files.ScanFile(path)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", path, err)
			}
			reports[i] = formatters.Report{Path: path, Result: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// scanStdin scans a document read from standard input.
func scanStdin(files *scanner.FileScanner) (formatters.Report, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return formatters.Report{}, fmt.Errorf("failed to read stdin: %w", err)
	}
	content := extract.NewContent("", string(data))
	result, err := files.ScanContent(content)
	if err != nil {
		return formatters.Report{}, err
	}
	return formatters.Report{Path: "(stdin)", Result: result}, nil
}

// addSummaries attaches plain-language bullets to each report. Summary
// failures are reported to the observer and leave the report untouched.
func addSummaries(cmd *cobra.Command, reports []formatters.Report, observer observability.Observer) {
	heuristic := summarize.NewHeuristic()
	for i := range reports {
		req := summarize.BuildRequest(reports[i].Result.Title, reports[i].Result, summarize.DefaultForwardTypes)
		resp, err := heuristic.Summarize(cmd.Context(), req)
		if err != nil {
			observer.Event("summarize", "failed", err.Error())
			continue
		}
		reports[i].Bullets = resp.Bullets
	}
}
