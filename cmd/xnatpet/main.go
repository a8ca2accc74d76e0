// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Command xnatpet stages PET data from an XNAT archive into a local cache.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccir/xnatpet/internal/command/convert"
	"github.com/ccir/xnatpet/internal/command/export"
	"github.com/ccir/xnatpet/internal/command/locate"
	"github.com/ccir/xnatpet/internal/command/search"
	"github.com/ccir/xnatpet/internal/command/sort"
	"github.com/ccir/xnatpet/internal/command/stage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "xnatpet",
	Short:         "Retrieve and organize PET sessions from XNAT",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(stage.Command())
	rootCmd.AddCommand(sort.Command())
	rootCmd.AddCommand(search.Command())
	rootCmd.AddCommand(locate.Command())
	rootCmd.AddCommand(convert.Command())
	rootCmd.AddCommand(export.Command())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
