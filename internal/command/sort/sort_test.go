// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package sort

import (
	"bytes"
	"context"
	"testing"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/pkg/stage"
	"github.com/go-git/go-billy/v5/memfs"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete", Config{Project: "CCIR_00754", Session: "CNDA_E248568"}, false},
		{"no project", Config{Session: "CNDA_E248568"}, true},
		{"no session", Config{Project: "CCIR_00754"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestHandlerMissingRawdata(t *testing.T) {
	deps := &Deps{Stager: &stage.Stager{FS: memfs.New(), Project: "CCIR_00754"}}
	deps.SetIO(cli.IO{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	cfg := Config{Project: "CCIR_00754", Subject: "HYGLY50", Session: "CNDA_E248568"}
	if _, err := Handler(context.Background(), cfg, deps); err == nil {
		t.Error("Handler() error = nil, want missing rawdata")
	}
}
