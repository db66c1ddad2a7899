// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability is the engine's single event sink: one-line JSON
// records for stage timings, misses and errors.
package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level gates which events are written.
type Level int

const (
	LevelOff Level = iota
	LevelInfo
	LevelDebug
)

// Observer receives engine events. Implementations must be safe for
// concurrent use; independent scans report through the same observer.
type Observer interface {
	// Event records a point-in-time detail (debug level).
	Event(component, operation, detail string)

	// StartTiming begins timing one operation and returns its completion
	// function. Pass a nil error for success; metadata may be nil.
	StartTiming(component, operation string) func(err error, metadata map[string]any)
}

// Record is the JSON shape of one emitted event.
type Record struct {
	Timestamp  time.Time      `json:"ts"`
	Level      string         `json:"level"`
	ScanID     string         `json:"scan_id"`
	Component  string         `json:"component"`
	Operation  string         `json:"operation"`
	Detail     string         `json:"detail,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// sink serializes writes from observers that share a destination.
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) write(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = json.NewEncoder(s.w).Encode(rec)
}

// StandardObserver writes records to a single writer. Every observer
// carries a scan ID so records from concurrent scans can be correlated.
type StandardObserver struct {
	level  Level
	scanID string
	sink   *sink
}

// NewStandardObserver creates an observer with a fresh scan ID.
func NewStandardObserver(level Level, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		scanID: uuid.NewString(),
		sink:   &sink{w: writer},
	}
}

// WithScanID returns an observer writing to the same destination under a
// different scan ID. The web server derives one per request.
func (o *StandardObserver) WithScanID(id string) *StandardObserver {
	return &StandardObserver{level: o.level, scanID: id, sink: o.sink}
}

// ScanID returns the observer's correlation ID.
func (o *StandardObserver) ScanID() string {
	return o.scanID
}

// Event records a debug-level detail.
func (o *StandardObserver) Event(component, operation, detail string) {
	if o.level < LevelDebug {
		return
	}
	o.emit(Record{
		Level:     "debug",
		Component: component,
		Operation: operation,
		Detail:    detail,
	})
}

// StartTiming begins timing one operation.
func (o *StandardObserver) StartTiming(component, operation string) func(err error, metadata map[string]any) {
	start := time.Now()
	return func(err error, metadata map[string]any) {
		if o.level < LevelInfo {
			return
		}
		rec := Record{
			Level:      "info",
			Component:  component,
			Operation:  operation,
			DurationMs: time.Since(start).Milliseconds(),
			Metadata:   metadata,
		}
		if err != nil {
			rec.Level = "error"
			rec.Error = err.Error()
		}
		o.emit(rec)
	}
}

func (o *StandardObserver) emit(rec Record) {
	rec.Timestamp = time.Now().UTC()
	rec.ScanID = o.scanID
	o.sink.write(rec)
}

// NopObserver discards everything. It is the default for library callers
// that pass no observer.
type NopObserver struct{}

func (NopObserver) Event(string, string, string) {}

func (NopObserver) StartTiming(string, string) func(error, map[string]any) {
	return func(error, map[string]any) {}
}
