// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"context"
	"sync"
)

// snapshot is the outcome of a single build.
type snapshot struct {
	files map[string][]byte // path with leading slash -> contents
	err   error             // set if the build failed
}

// buildState tracks whether a build is in progress. Requests arriving while
// a build is pending are queued until it finishes.
type buildState struct {
	mu      sync.Mutex
	pending bool
	done    chan struct{} // closed when the pending build finishes
	snap    *snapshot
}

// newBuildState returns a buildState waiting for the first build.
func newBuildState() *buildState {
	return &buildState{
		pending: true,
		done:    make(chan struct{}),
	}
}

// begin marks a build as pending.
func (s *buildState) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return
	}
	s.pending = true
	s.done = make(chan struct{})
}

// finish stores the result of the pending build and releases every queued
// waiter.
func (s *buildState) finish(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	if s.pending {
		s.pending = false
		close(s.done)
	}
}

// wait returns the latest build result, waiting for the pending build if
// there is one.
func (s *buildState) wait(ctx context.Context) (*snapshot, error) {
	s.mu.Lock()
	if !s.pending {
		snap := s.snap
		s.mu.Unlock()
		return snap, nil
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}
