// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"io"

	"github.com/ccir/xnatpet/internal/act"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Deps interface {
	SetIO(IO)
}

// Printer is implemented by action outputs that render a summary for the user.
type Printer interface {
	Print(w io.Writer) error
}

// ParseArgs populates an Input from positional arguments.
type ParseArgs[I act.Input] func(in *I, args []string) error

// SkipArgs is a ParseArgs that sets no arguments.
func SkipArgs[I act.Input](cfg *I, args []string) error {
	return nil
}

// RunE constructs a cobra.Command.RunE from act components:
//  1. positional arguments are parsed into the Input
//  2. the Input is validated
//  3. dependencies are initialized from the Input
//  4. IO streams are attached to the dependencies
//  5. the action runs and any Printer output is written to stdout
func RunE[I act.Input, O any, D Deps](
	cfg *I,
	parseArgs ParseArgs[I],
	initDeps act.InitDeps[I, D],
	action act.Action[I, O, D],
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := parseArgs(cfg, args); err != nil {
			return err
		}
		if err := (*cfg).Validate(); err != nil {
			return err
		}
		return run(cmd.Context(), *cfg, IO{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		}, initDeps, action)
	}
}

func run[I act.Input, O any, D Deps](ctx context.Context, cfg I, cio IO, initDeps act.InitDeps[I, D], action act.Action[I, O, D]) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deps, err := initDeps(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "initializing dependencies")
	}
	deps.SetIO(cio)
	out, err := action(ctx, cfg, deps)
	if err != nil {
		return err
	}
	if p, ok := any(out).(Printer); ok && out != nil {
		if err := p.Print(cio.Out); err != nil {
			return errors.Wrap(err, "printing output")
		}
	}
	return nil
}
