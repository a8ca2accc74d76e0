// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/ccir/xnatpet/internal/command/sort"
)

// usageFlags returns the flag names written in a command's usage line.
func usageFlags(use string) []string {
	var names []string
	for _, tok := range strings.Fields(use) {
		tok = strings.Trim(tok, "[]|")
		if strings.HasPrefix(tok, "-") {
			names = append(names, tok)
		}
	}
	return names
}

func TestUsageFlagsParse(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		t.Run(cmd.Name(), func(t *testing.T) {
			var args []string
			for _, tok := range usageFlags(cmd.Use) {
				name, ok := strings.CutPrefix(tok, "--")
				if !ok {
					t.Errorf("usage flag %q is not written as --name", tok)
					continue
				}
				f := cmd.Flags().Lookup(name)
				if f == nil {
					t.Errorf("usage names unknown flag %q", tok)
					continue
				}
				args = append(args, tok)
				if f.NoOptDefVal == "" {
					args = append(args, "x")
				}
			}
			if err := cmd.ParseFlags(args); err != nil {
				t.Errorf("ParseFlags(%v) error = %v", args, err)
			}
		})
	}
}

func TestSingleDashLongFlagRejected(t *testing.T) {
	cmd := sort.Command()
	if err := cmd.ParseFlags([]string{"-project", "P", "-session", "S"}); err == nil {
		t.Error("ParseFlags(-project) succeeded, want shorthand error")
	}
	cmd = sort.Command()
	if err := cmd.ParseFlags([]string{"--project", "P", "--session", "S"}); err != nil {
		t.Errorf("ParseFlags(--project) error = %v", err)
	}
	if got := cmd.Flags().Lookup("project").Value.String(); got != "P" {
		t.Errorf("project = %q, want P", got)
	}
}
