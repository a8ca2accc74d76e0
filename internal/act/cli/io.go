// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package cli adapts act actions into cobra commands.
package cli

import (
	"io"
	"log"
)

// IO provides input/output streams for CLI commands.
type IO struct {
	In  io.Reader // stdin
	Out io.Writer // stdout
	Err io.Writer // stderr, also receives log output
}

// Logger returns a logger writing to the error stream.
func (cio IO) Logger() *log.Logger {
	if cio.Err == nil {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cio.Err, "", log.LstdFlags)
}
