// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package billyx

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
)

func TestWriteAtomic(t *testing.T) {
	fs := memfs.New()
	n, err := WriteAtomic(fs, "p/ses-E1/rawdata/a.dcm", strings.NewReader("header"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("WriteAtomic() = %d bytes, want 6", n)
	}
	b, err := util.ReadFile(fs, "p/ses-E1/rawdata/a.dcm")
	if err != nil || string(b) != "header" {
		t.Errorf("ReadFile() = %q, %v", b, err)
	}
	entries, _ := fs.ReadDir("p/ses-E1/rawdata")
	if len(entries) != 1 {
		t.Errorf("rawdata has %d entries, want 1 (no leftover .part files)", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	src, dst := memfs.New(), memfs.New()
	if err := util.WriteFile(src, "/data/CNDA/archive/a.dcm", []byte("dicom"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := CopyFile(dst, "SCANS/1/a.dcm", src, "/data/CNDA/archive/a.dcm"); err != nil {
		t.Fatal(err)
	}
	if b, _ := util.ReadFile(dst, "SCANS/1/a.dcm"); string(b) != "dicom" {
		t.Errorf("copied content = %q", b)
	}
	if _, err := CopyFile(dst, "x", src, "/missing"); err == nil {
		t.Error("CopyFile() of missing file succeeded")
	}
}

func TestMove(t *testing.T) {
	fs := memfs.New()
	for _, p := range []string{"ses/SCANS/3/a.dcm", "ses/SCANS/3/b.dcm", "ses/umaps/U_DT1/old.dcm"} {
		if err := util.WriteFile(fs, p, []byte(p), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := Move(fs, "ses/SCANS/3", "ses/umaps/U_DT1", false); err == nil {
		t.Error("Move() over existing target without replace succeeded")
	}
	if err := Move(fs, "ses/SCANS/3", "ses/umaps/U_DT1", true); err != nil {
		t.Fatal(err)
	}
	entries, err := fs.ReadDir("ses/umaps/U_DT1")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"a.dcm", "b.dcm"}, names); diff != "" {
		t.Errorf("moved entries mismatch (-want +got):\n%s", diff)
	}
	if Exists(fs, "ses/SCANS/3") {
		t.Error("source still exists after Move()")
	}
}

func TestClear(t *testing.T) {
	fs := memfs.New()
	for _, p := range []string{"SCANS/1/stale.dcm", "SCANS/1/sub/keep.dcm"} {
		if err := util.WriteFile(fs, p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := Clear(fs, "SCANS/1"); err != nil {
		t.Fatal(err)
	}
	if Exists(fs, "SCANS/1/stale.dcm") || !Exists(fs, "SCANS/1/sub/keep.dcm") {
		t.Error("Clear() removed the wrong entries")
	}
	if err := Clear(fs, "SCANS/2"); err != nil || !Exists(fs, "SCANS/2") {
		t.Errorf("Clear() of new dir = %v", err)
	}
}
