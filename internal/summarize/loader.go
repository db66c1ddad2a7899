// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package summarize

import (
	"context"
	"sync"
)

// LoadFunc constructs a Summarizer. May be slow: model warm-up, reading
// template packs from disk.
type LoadFunc func(ctx context.Context) (Summarizer, error)

// Loader shares one summarizer load across the process. The first Get
// starts the load; concurrent callers wait on the same completion; the
// outcome, success or failure, is memoized and never retried. Cancelling
// a caller's context abandons that caller's wait, not the load itself.
type Loader struct {
	load LoadFunc
	once sync.Once
	done chan struct{}

	summarizer Summarizer
	err        error
}

// NewLoader wraps a LoadFunc in a shared-future loader.
func NewLoader(load LoadFunc) *Loader {
	return &Loader{
		load: load,
		done: make(chan struct{}),
	}
}

// Get returns the shared summarizer, starting the load on first use.
func (l *Loader) Get(ctx context.Context) (Summarizer, error) {
	l.once.Do(func() {
		go func() {
			defer close(l.done)
			l.summarizer, l.err = l.load(context.WithoutCancel(ctx))
		}()
	})

	select {
	case <-l.done:
		return l.summarizer, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
