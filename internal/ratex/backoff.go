// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package ratex paces requests to the archive.
package ratex

import (
	"context"
	"sync"
	"time"
)

// maxPeriod caps the backoff so a flapping server cannot stall a run for hours.
const maxPeriod = 5 * time.Minute

// BackoffLimiter spaces events at least one period apart. The period grows
// when the server pushes back and shrinks back toward the minimum on success.
type BackoffLimiter struct {
	mu            sync.Mutex
	currentPeriod time.Duration
	minimum       time.Duration
	next          time.Time
	now           func() time.Time
}

func NewBackoffLimiter(minimum time.Duration) *BackoffLimiter {
	return &BackoffLimiter{currentPeriod: minimum, minimum: minimum, now: time.Now}
}

// reserve claims the next slot and returns how long to wait for it.
func (l *BackoffLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.currentPeriod)
	return slot.Sub(now)
}

// Wait blocks until the limiter permits another event to happen.
// If ctx becomes Done(), Wait will return an error.
func (l *BackoffLimiter) Wait(ctx context.Context) error {
	d := l.reserve()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff will increase the period by 33%.
// This will not take effect until the next period.
func (l *BackoffLimiter) Backoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentPeriod = min(l.currentPeriod*4/3, maxPeriod)
}

// Success will decrease the period by 10%.
// This will not take effect until the next period.
func (l *BackoffLimiter) Success() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentPeriod = max(l.currentPeriod*9/10, l.minimum)
}

func (l *BackoffLimiter) CurrentPeriod() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentPeriod
}
