// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CommandOptions configures a converter run.
type CommandOptions struct {
	// Output receives stdout and stderr. Nil discards them.
	Output io.Writer
	// Dir is the working directory of the command.
	Dir string
}

// CommandExecutor runs the external converter.
type CommandExecutor interface {
	// Execute runs a command to completion.
	Execute(ctx context.Context, opts CommandOptions, name string, args ...string) error
	// LookPath resolves an executable from PATH.
	LookPath(file string) (string, error)
}

// execExecutor runs commands with os/exec. A failed run reports the last
// lines the command printed.
type execExecutor struct {
	tailLines int
}

// NewRealCommandExecutor creates a CommandExecutor backed by os/exec.
func NewRealCommandExecutor() CommandExecutor {
	return &execExecutor{tailLines: 5}
}

func (e *execExecutor) Execute(ctx context.Context, opts CommandOptions, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	tail := &tailWriter{n: e.tailLines}
	var w io.Writer = tail
	if opts.Output != nil {
		w = io.MultiWriter(opts.Output, tail)
	}
	cmd.Stdout, cmd.Stderr = w, w
	if err := cmd.Run(); err != nil {
		if s := tail.String(); s != "" {
			return errors.Wrapf(err, "%s: %s", filepath.Base(name), s)
		}
		return errors.Wrap(err, filepath.Base(name))
	}
	return nil
}

func (e *execExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// tailWriter keeps the last n non-blank lines written to it.
type tailWriter struct {
	n       int
	lines   []string
	partial []byte
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		t.push(string(t.partial[:i]))
		t.partial = t.partial[i+1:]
	}
	return len(p), nil
}

func (t *tailWriter) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

// String joins the retained lines, including an unterminated last line.
func (t *tailWriter) String() string {
	lines := t.lines
	if p := strings.TrimSpace(string(t.partial)); p != "" {
		lines = append(append([]string(nil), lines...), p)
		if len(lines) > t.n {
			lines = lines[len(lines)-t.n:]
		}
	}
	return strings.Join(lines, "; ")
}
