// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fineprint/internal/cache"
	"fineprint/internal/observability"
	"fineprint/internal/patterns"
	"fineprint/internal/scanner"
	"fineprint/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fineprint web UI and API",
	Long: `Serve the scanning and annotation API with an embedded web UI.
Settings come from flags, then a .env file or the process environment:
FINEPRINT_ADDR, FINEPRINT_MAX_BODY and FINEPRINT_CACHE.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default "+web.DefaultAddr+")")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	level := observability.LevelInfo
	if debug, err := cmd.Root().PersistentFlags().GetBool("debug"); err == nil && debug {
		level = observability.LevelDebug
	}
	observer := observability.NewStandardObserver(level, os.Stderr)
	cfg := loadConfig(cmd, observer)

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	if addr == "" {
		addr = os.Getenv("FINEPRINT_ADDR")
	}

	var maxBody int64
	if v := os.Getenv("FINEPRINT_MAX_BODY"); v != "" {
		maxBody, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FINEPRINT_MAX_BODY %q: %w", v, err)
		}
	}

	bank, err := patterns.Load(cfg.ExtraPatterns())
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}
	core := scanner.New(scanner.Config{
		Bank:     bank,
		MaxSpans: cfg.Defaults.MaxSpans,
		Observer: observer,
	})

	var store *cache.DiskCache
	if os.Getenv("FINEPRINT_CACHE") != "false" {
		store, err = cache.Open("fineprint")
		if err != nil {
			observer.Event("web", "cache_unavailable", err.Error())
			store = nil
		}
	}

	server := web.NewServer(web.Options{
		Addr:     addr,
		MaxBody:  maxBody,
		Scanner:  core,
		Cache:    store,
		Observer: observer,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}
