// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package act separates the operations behind each xnatpet subcommand from
// the command-line plumbing that invokes them.
package act

import "context"

// Input is a validated input type, typically a command's flag values.
type Input interface {
	Validate() error
}

// Deps is a marker type for dependency containers.
type Deps any

// InitDeps builds the dependencies an action needs (archive connections,
// filesystems, stores) from the validated input.
type InitDeps[I Input, D Deps] func(context.Context, I) (D, error)

// Action is a single operation such as staging a session or locating
// calibration data.
type Action[I Input, O any, D Deps] func(context.Context, I, D) (*O, error)

// NoOutput is a zero-value output for actions that only produce side effects.
type NoOutput struct{}
