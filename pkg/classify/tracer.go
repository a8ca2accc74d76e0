// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"strings"

	"github.com/pkg/errors"
)

// Tracer is a radiopharmaceutical name as recorded by the scanner.
type Tracer string

const (
	FDG         Tracer = "Fluorodeoxyglucose"
	Carbon      Tracer = "Carbon"
	Oxygen      Tracer = "Oxygen"
	OxygenWater Tracer = "Oxygen-water"
)

var labels = map[Tracer]string{
	FDG:         "FDG",
	Carbon:      "OC",
	Oxygen:      "OO",
	OxygenWater: "HO",
}

// DefaultTracers are staged unless configured otherwise.
var DefaultTracers = []Tracer{OxygenWater, Carbon, Oxygen}

// Label returns the short label used in directory names, e.g. "HO".
func (t Tracer) Label() (string, error) {
	l, ok := labels[t]
	if !ok {
		return "", errors.Errorf("unknown tracer %q", string(t))
	}
	return l, nil
}

// ParseTracer accepts a tracer name or its label, case-insensitively.
func ParseTracer(s string) (Tracer, error) {
	s = strings.TrimSpace(s)
	for t, l := range labels {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, l) {
			return t, nil
		}
	}
	return "", errors.Errorf("unknown tracer %q", s)
}

// ParseTracers parses a comma-separated list, returning DefaultTracers for an empty one.
func ParseTracers(s string) ([]Tracer, error) {
	if strings.TrimSpace(s) == "" {
		return append([]Tracer(nil), DefaultTracers...), nil
	}
	var out []Tracer
	for _, p := range strings.Split(s, ",") {
		t, err := ParseTracer(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
