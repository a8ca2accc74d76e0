// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// MockCommandExecutor implements CommandExecutor for testing
type MockCommandExecutor struct {
	mu           sync.RWMutex
	commands     []MockCommand
	executeFunc  func(ctx context.Context, opts CommandOptions, name string, args ...string) error
	lookPathFunc func(file string) (string, error)
}

// MockCommand is a recorded Execute call.
type MockCommand struct {
	Name  string
	Args  []string
	Error error
}

// NewMockCommandExecutor creates a new mock command executor
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{}
}

// SetExecuteFunc sets a custom function for Execute calls
func (m *MockCommandExecutor) SetExecuteFunc(f func(ctx context.Context, opts CommandOptions, name string, args ...string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executeFunc = f
}

// SetLookPathFunc sets a custom function for LookPath calls
func (m *MockCommandExecutor) SetLookPathFunc(f func(file string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookPathFunc = f
}

// Execute records the call and runs the execute func, if any.
func (m *MockCommandExecutor) Execute(ctx context.Context, opts CommandOptions, name string, args ...string) error {
	m.mu.RLock()
	f := m.executeFunc
	m.mu.RUnlock()
	var err error
	if f != nil {
		err = f(ctx, opts, name, args...)
	} else if opts.Output != nil {
		fmt.Fprintf(opts.Output, "mock output for: %s %s\n", name, strings.Join(args, " "))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, MockCommand{Name: name, Args: slices.Clone(args), Error: err})
	return err
}

// GetCommands returns all recorded commands for verification
func (m *MockCommandExecutor) GetCommands() []MockCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.commands)
}

// LookPath implements CommandExecutor
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	m.mu.RLock()
	f := m.lookPathFunc
	m.mu.RUnlock()
	if f != nil {
		return f(file)
	}
	if file == "" {
		return "", errors.New("empty command name")
	}
	return "/usr/bin/" + file, nil
}
