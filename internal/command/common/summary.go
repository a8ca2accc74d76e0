// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Summary is the printed outcome of a batch command.
type Summary struct {
	Verb     string
	Items    []string
	Warnings []error
}

// Print lists the items and the warnings, the latter in yellow.
func (s *Summary) Print(w io.Writer) error {
	for _, it := range s.Items {
		if _, err := fmt.Fprintln(w, it); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s %d, %d warnings\n", s.Verb, len(s.Items), len(s.Warnings)); err != nil {
		return err
	}
	yellow := color.New(color.FgYellow)
	for _, e := range s.Warnings {
		if _, err := yellow.Fprintf(w, "Warning: %v\n", e); err != nil {
			return err
		}
	}
	return nil
}
