// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/ccir/xnatpet/internal/act"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type testConfig struct {
	Session string
}

func (c testConfig) Validate() error {
	if c.Session == "" {
		return errors.New("session is required")
	}
	return nil
}

type testDeps struct {
	IO      IO
	Session string
}

func (d *testDeps) SetIO(cio IO) { d.IO = cio }

func testInitDeps(ctx context.Context, cfg testConfig) (*testDeps, error) {
	return &testDeps{Session: cfg.Session}, nil
}

type testSummary struct {
	Staged int
}

func (s testSummary) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "staged %d files", s.Staged)
	return err
}

func stageAction(ctx context.Context, cfg testConfig, deps *testDeps) (*testSummary, error) {
	deps.IO.Logger().Printf("staging %s", deps.Session)
	return &testSummary{Staged: 3}, nil
}

func TestSkipArgs(t *testing.T) {
	cfg := &testConfig{}
	if err := SkipArgs(cfg, []string{"ignored"}); err != nil {
		t.Errorf("SkipArgs() error = %v", err)
	}
}

func TestRunE(t *testing.T) {
	cfg := testConfig{Session: "CNDA_E248568"}
	cmd := &cobra.Command{
		Use:  "test",
		RunE: RunE(&cfg, SkipArgs[testConfig], testInitDeps, stageAction),
	}
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, want := outBuf.String(), "staged 3 files"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if !bytes.Contains(errBuf.Bytes(), []byte("staging CNDA_E248568")) {
		t.Errorf("log output = %q, want it to mention the session", errBuf.String())
	}
}

func TestRunEValidation(t *testing.T) {
	cfg := testConfig{}
	called := false
	cmd := &cobra.Command{
		Use:           "test",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: RunE(&cfg, SkipArgs[testConfig], testInitDeps, func(ctx context.Context, cfg testConfig, deps *testDeps) (*act.NoOutput, error) {
			called = true
			return &act.NoOutput{}, nil
		}),
	}
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() succeeded with an invalid config")
	}
	if called {
		t.Error("action ran despite validation failure")
	}
}
