// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"time"
)

// DefaultSleep is the pause between checks of a closed Gate.
const DefaultSleep = 600 * time.Second

// Gate decides when staging may proceed.
type Gate interface {
	// OnSchedule reports whether staging runs under a schedule at all.
	OnSchedule() bool
	// ResourcesAvailable reports whether local resources permit staging now.
	ResourcesAvailable() bool
}

// Open is a Gate that never blocks.
type Open struct{}

func (Open) OnSchedule() bool         { return true }
func (Open) ResourcesAvailable() bool { return true }

// wait blocks while the gate is on schedule but resources are unavailable.
func (s *Stager) wait(ctx context.Context) error {
	g := s.Gate
	if g == nil {
		g = Open{}
	}
	d := s.Sleep
	if d <= 0 {
		d = DefaultSleep
	}
	for g.OnSchedule() && !g.ResourcesAvailable() {
		s.logf("Resources unavailable; sleeping %s", d)
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
