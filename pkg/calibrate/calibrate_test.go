// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package calibrate

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
)

const (
	shortFDG = "CCIR_00754/ses-E1/FDG_DT20180511115744.000000-Converted-NAC"
	longFDG  = "CCIR_00754/sub-HYGLY50/ses-E2/FDG_DT20180601090000.000000-Converted-NAC"
	oldFDG   = "CCIR_00754/ses-E3/FDG_DT20150101000000.000000-Converted-AC"
	timedFDG = "CCIR_00754/ses-E4/FDG_DT20180701100000.000000-Converted-NAC"
	emptyFDG = "CCIR_00754/ses-E5/FDG_DT20180801100000.000000-Converted-NAC"
	water    = "CCIR_00754/ses-E1/HO_DT20180511120000.000000-Converted-NAC"
)

func timeHeader(fs billy.Filesystem, p string) (*dicomx.Header, error) {
	b, err := util.ReadFile(fs, p)
	if err != nil {
		return nil, err
	}
	h := &dicomx.Header{}
	for _, line := range strings.Split(string(b), "\n") {
		if v, ok := strings.CutPrefix(line, "AcquisitionTime="); ok {
			h.AcquisitionTime = v
		}
		if v, ok := strings.CutPrefix(line, "InstanceCreationTime="); ok {
			h.InstanceCreationTime = v
		}
	}
	return h, nil
}

func cache(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	files := map[string]string{
		shortFDG + "/LM/a.dcm": "\x00DICM\x02!INTERFILE:=\n!image duration (sec):=600\n!END OF INTERFILE:=\n\x00",
		shortFDG + "/LM/a.bf":  "0123456789",
		longFDG + "/LM/a.dcm":  "\x00DICM\x02image duration (sec) :=3600\x00",
		longFDG + "/LM/a.bf":   "x",
		oldFDG + "/LM/a.dcm":   "\x00DICM\x02image duration (sec) :=300\x00",
		timedFDG + "/LM/a.dcm": "\x00\x01aborted",
		timedFDG + "/LM/b.dcm": "AcquisitionTime=100000.000000\nInstanceCreationTime=100500.250000\n",
		timedFDG + "/LM/b.bf":  "x",
		water + "/LM/a.dcm":    "\x00DICM\x02image duration (sec) :=120\x00",
		"CCIR_00754/notes.txt": "ses-E9 is not a directory",
		"CCIR_00559/ses-E7/x":  "other project",
	}
	for p, c := range files {
		if err := util.WriteFile(fs, p, []byte(c), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fs.MkdirAll(emptyFDG, 0755); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLocate(t *testing.T) {
	var logs bytes.Buffer
	f := &Finder{
		FS:         cache(t),
		Project:    "CCIR_00754",
		To:         time.Date(2019, 1, 1, 0, 0, 0, 0, time.Local),
		Logger:     log.New(&logs, "", 0),
		ReadHeader: timeHeader,
	}
	r, err := f.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if diff := cmp.Diff([]string{shortFDG, timedFDG}, r.Locations); diff != "" {
		t.Errorf("Locations mismatch (-want +got):\n%s", diff)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0].Error(), "has no listmode") {
		t.Errorf("Warnings = %v, want one about %s", r.Warnings, emptyFDG)
	}
}

func TestLocateChecksSize(t *testing.T) {
	f := &Finder{
		FS:         cache(t),
		Project:    "CCIR_00754",
		To:         time.Date(2019, 1, 1, 0, 0, 0, 0, time.Local),
		CheckSize:  true,
		MaxSize:    5,
		Logger:     log.New(&bytes.Buffer{}, "", 0),
		ReadHeader: timeHeader,
	}
	r, err := f.Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{timedFDG}, r.Locations); diff != "" {
		t.Errorf("Locations mismatch (-want +got):\n%s", diff)
	}
}

func TestExperiments(t *testing.T) {
	f := &Finder{FS: cache(t), Project: "CCIR_00754"}
	got, err := f.Experiments()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"CCIR_00754/ses-E1",
		"CCIR_00754/ses-E3",
		"CCIR_00754/ses-E4",
		"CCIR_00754/ses-E5",
		"CCIR_00754/sub-HYGLY50/ses-E2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Experiments() mismatch (-want +got):\n%s", diff)
	}
}

func TestAcquisitionTime(t *testing.T) {
	got, err := AcquisitionTime(shortFDG)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2018, 5, 11, 11, 57, 44, 0, time.Local); !got.Equal(want) {
		t.Errorf("AcquisitionTime() = %v, want %v", got, want)
	}
	if _, err := AcquisitionTime("CCIR_00754/ses-E1/FDG-Converted-NAC"); err == nil {
		t.Error("AcquisitionTime() without timestamp succeeded")
	}
}

func TestParseTM(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "115744", want: 11*time.Hour + 57*time.Minute + 44*time.Second},
		{in: "100500.250000", want: 10*time.Hour + 5*time.Minute + 250*time.Millisecond},
		{in: "1005", wantErr: true},
		{in: "", wantErr: true},
		{in: "250000", wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseTM(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseTM() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("parseTM() = %v, want %v", got, tc.want)
			}
		})
	}
}
