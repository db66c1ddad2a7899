// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"

	"fineprint/internal/cache"
	"fineprint/internal/detector"
	"fineprint/internal/extract"
)

// FileConfig holds the file-level collaborators around a Scanner.
type FileConfig struct {
	// Cache stores scan results keyed by document content. Nil disables
	// caching.
	Cache *cache.DiskCache

	// Extractors convert document formats to text. Nil selects the
	// built-in set.
	Extractors []extract.Extractor
}

// FileScanner scans documents on disk: extract, consult the cache, scan,
// store. Safe for concurrent use.
type FileScanner struct {
	scanner    *Scanner
	cache      *cache.DiskCache
	extractors []extract.Extractor
}

// NewFileScanner wraps a Scanner with extraction and caching.
func NewFileScanner(s *Scanner, cfg FileConfig) *FileScanner {
	fs := &FileScanner{
		scanner:    s,
		cache:      cfg.Cache,
		extractors: cfg.Extractors,
	}
	if fs.extractors == nil {
		fs.extractors = extract.DefaultExtractors()
	}
	return fs
}

// Scanner returns the underlying text scanner.
func (fs *FileScanner) Scanner() *Scanner {
	return fs.scanner
}

// CanScan reports whether any extractor handles the given path.
func (fs *FileScanner) CanScan(path string) bool {
	_, err := extract.For(path, fs.extractors)
	return err == nil
}

// ScanFile extracts text from the document at path and scans it. Results
// are served from the cache when the document and pattern bank are
// unchanged; cache failures never fail the scan.
func (fs *FileScanner) ScanFile(path string) (detector.ScanResult, error) {
	var zero detector.ScanResult

	extractor, err := extract.For(path, fs.extractors)
	if err != nil {
		return zero, err
	}
	content, err := extractor.Extract(path)
	if err != nil {
		return zero, fmt.Errorf("extracting %s: %w", path, err)
	}

	result, err := fs.ScanContent(content)
	if err != nil {
		return zero, err
	}
	return result, nil
}

// ScanContent scans already-extracted content, consulting the cache first.
func (fs *FileScanner) ScanContent(content *extract.Content) (detector.ScanResult, error) {
	key := cache.Key(fs.scanner.Bank().Fingerprint(), content.Text)
	if cached, ok, err := fs.cache.Get(key); err == nil && ok {
		cached.Title = content.Title
		fs.scanner.observer.Event("scanner", "cache_hit", content.Title)
		return cached, nil
	}

	result, err := fs.scanner.Scan(content.Text)
	if err != nil {
		return detector.ScanResult{}, err
	}
	result.Title = content.Title

	if err := fs.cache.Put(key, *result); err != nil {
		fs.scanner.observer.Event("scanner", "cache_write_failed", err.Error())
	}
	return *result, nil
}
