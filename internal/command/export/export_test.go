// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/pkg/mirror"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"project", Config{Project: "CCIR_00754", Destination: "gs://bucket"}, false},
		{"session", Config{Project: "CCIR_00754", Session: "CNDA_E248568", Subject: "HYGLY50", Destination: "/tmp/out"}, false},
		{"no destination", Config{Project: "CCIR_00754"}, true},
		{"subject without session", Config{Project: "CCIR_00754", Subject: "HYGLY50", Destination: "/tmp/out"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	src := memfs.New()
	if err := util.WriteFile(src, "CCIR_00754/sub-HYGLY50/ses-E248568/ct/a.dcm", []byte("ct"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := util.WriteFile(src, "CCIR_00754/sub-OTHER/ses-E1/ct/b.dcm", []byte("other"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := memfs.New()
	deps := &Deps{FS: src, Store: mirror.NewFilesystemStore(dst)}
	deps.SetIO(cli.IO{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	cfg := Config{Project: "CCIR_00754", Subject: "HYGLY50", Session: "CNDA_E248568", Destination: "/tmp/out"}

	got, err := Handler(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if got.Files != 1 || got.Bytes != 2 {
		t.Errorf("Handler() = %+v, want 1 file of 2 bytes", got)
	}
	if _, err := dst.Stat("CCIR_00754/sub-HYGLY50/ses-E248568/ct/a.dcm"); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
	if _, err := Handler(context.Background(), Config{Project: "CCIR_00754", Session: "CNDA_E9"}, deps); err == nil {
		t.Error("Handler() error = nil for a session missing from the cache")
	}
}
