// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"fineprint/internal/detector"
)

// schemaVersion invalidates every cached entry when the payload format
// or scan semantics change.
const schemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [sha256.Size]byte

// Payload is the cached outcome of scanning one document.
type Payload struct {
	Schema  uint16
	SavedAt int64 // Unix seconds
	Result  detector.ScanResult
}

// DiskCache stores scan results keyed by content digest. Safe for
// concurrent use. A nil *DiskCache is valid and caches nothing.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes the disk cache at the standard user cache location,
// honoring XDG_CACHE_HOME.
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, app))
}

// OpenAt initializes the disk cache rooted at dir.
func OpenAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Key derives the cache key for a document. The key covers the schema
// version, the compiled pattern bank fingerprint, and the document text,
// so pattern changes invalidate prior results.
func Key(bankFingerprint, text string) Digest {
	h := sha256.New()
	var schema [2]byte
	binary.BigEndian.PutUint16(schema[:], schemaVersion)
	h.Write(schema[:])
	h.Write([]byte(bankFingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "scans", hex.EncodeToString(key[:])+".mp")
}

// Put serializes a scan result and writes it to the cache atomically.
func (c *DiskCache) Put(key Digest, result detector.ScanResult) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	payload := Payload{
		Schema:  schemaVersion,
		SavedAt: time.Now().Unix(),
		Result:  result,
	}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads a cached scan result. A missing entry, a schema mismatch,
// or a corrupt entry is a miss, not an error.
func (c *DiskCache) Get(key Digest) (detector.ScanResult, bool, error) {
	var zero detector.ScanResult
	if c == nil {
		return zero, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, false, nil
		}
		return zero, false, err
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return zero, false, nil
	}
	if payload.Schema != schemaVersion {
		return zero, false, nil
	}
	return payload.Result, true, nil
}

// DropAll removes every cached entry and reports how many were deleted.
func (c *DiskCache) DropAll() (int, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := filepath.Glob(filepath.Join(c.dir, "scans", "*.mp"))
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(filepath.Join(c.dir, "scans")); err != nil {
		return 0, err
	}
	return len(entries), nil
}
