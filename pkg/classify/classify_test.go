// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"testing"

	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/google/go-cmp/cmp"
)

func TestImageType(t *testing.T) {
	for _, tc := range []struct {
		name         string
		header       *dicomx.Header
		wantNorm     bool
		wantListmode bool
	}{
		{name: "norm", header: &dicomx.Header{ImageType: []string{"ORIGINAL", "PRIMARY", "PET_NORM"}}, wantNorm: true},
		{name: "listmode", header: &dicomx.Header{ImageType: []string{"ORIGINAL", "PRIMARY", "PET_LISTMODE"}}, wantListmode: true},
		{name: "derived", header: &dicomx.Header{ImageType: []string{"DERIVED", "PRIMARY", "PET_NORM"}}},
		{name: "calibration", header: &dicomx.Header{ImageType: []string{"ORIGINAL", "PRIMARY", "PET_CALIBRATION"}}},
		{name: "extra value", header: &dicomx.Header{ImageType: []string{"ORIGINAL", "PRIMARY", "PET_NORM", "X"}}},
		{name: "missing", header: &dicomx.Header{}},
		{name: "nil"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNorm(tc.header); got != tc.wantNorm {
				t.Errorf("IsNorm() = %v, want %v", got, tc.wantNorm)
			}
			if got := IsListmode(tc.header); got != tc.wantListmode {
				t.Errorf("IsListmode() = %v, want %v", got, tc.wantListmode)
			}
		})
	}
}

func TestTracerInContent(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		want    Tracer
		wantErr bool
	}{
		{name: "water", content: "\x00\x01Radiopharmaceutical:Oxygen-water\x00more", want: OxygenWater},
		{name: "fdg", content: "junk Radiopharmaceutical:Fluorodeoxyglucose;", want: FDG},
		{name: "absent", content: "\x00\x01 no tracer here", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TracerInContent([]byte(tc.content))
			if (err != nil) != tc.wantErr {
				t.Fatalf("TracerInContent() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("TracerInContent() = %q, want %q", got, tc.want)
			}
		})
	}
	if ok, err := IsTracer([]byte("Radiopharmaceutical:Oxygen-water"), Oxygen); err != nil || ok {
		t.Errorf("IsTracer(Oxygen-water, Oxygen) = %v, %v", ok, err)
	}
}

func TestLabel(t *testing.T) {
	for tracer, want := range map[Tracer]string{FDG: "FDG", Carbon: "OC", Oxygen: "OO", OxygenWater: "HO"} {
		got, err := tracer.Label()
		if err != nil || got != want {
			t.Errorf("%s.Label() = %q, %v; want %q", tracer, got, err, want)
		}
	}
	if _, err := Tracer("Rubidium").Label(); err == nil {
		t.Error("Label() of unknown tracer succeeded")
	}
}

func TestParseTracers(t *testing.T) {
	for _, tc := range []struct {
		input   string
		want    []Tracer
		wantErr bool
	}{
		{input: "", want: []Tracer{OxygenWater, Carbon, Oxygen}},
		{input: "FDG", want: []Tracer{FDG}},
		{input: "ho, Carbon,oxygen", want: []Tracer{OxygenWater, Carbon, Oxygen}},
		{input: "FDG,Rubidium", wantErr: true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseTracers(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseTracers() error = %v, wantErr %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseTracers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNames(t *testing.T) {
	for _, tc := range []struct {
		name, fn, in, want string
	}{
		{name: "bf", fn: "bf", in: "rawdata/1.3.12.2.1107.5.2.38.51010.2018051111574487268710305.dcm", want: "rawdata/1.3.12.2.1107.5.2.38.51010.2018051111574487268710305.bf"},
		{name: "dcm", fn: "dcm", in: "a.b.bf", want: "a.b.dcm"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			if tc.fn == "bf" {
				got = BFName(tc.in)
			} else {
				got = DCMName(tc.in)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !IsUmap(&dicomx.Header{SeriesDescription: DefaultUmapDescription}, "") {
		t.Error("IsUmap() default description = false")
	}
	if IsUmap(&dicomx.Header{SeriesDescription: "t1_mprage"}, "") {
		t.Error("IsUmap(t1_mprage) = true")
	}
	for m, want := range map[string]bool{"SC": true, "'SR'": true, `"SC"`: true, "PT": false, "": false} {
		if got := IsSecondaryCapture(m); got != want {
			t.Errorf("IsSecondaryCapture(%q) = %v", m, got)
		}
	}
	if !IsCTHead("HYGLY48.CT.Head_CCIR_00754_Arbelaez__Adult_.2.1.20180517.114605.1ndhf0p.dcm") {
		t.Error("IsCTHead() = false for head CT")
	}
	if IsCTHead("HYGLY50.MR.CCIR-00700_CCIR-00754_Arbelaez.82.112.20180511.081754.5x7muj.dcm") {
		t.Error("IsCTHead() = true for MR")
	}
}
