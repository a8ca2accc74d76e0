// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"bytes"
	"context"
	"testing"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/pkg/stage"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/ccir/xnatpet/pkg/xnat/xnattest"
	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"constraints", Config{Constraints: "[('xnat:petSessionData/DATE', '>', '2018-01-01')]"}, false},
		{"none", Config{}, true},
		{"malformed", Config{Constraints: "[('xnat:petSessionData/DATE', '>'"}, true},
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
	a := &xnattest.Archive{
		SearchRows: []map[string]string{
			{"session_id": "CNDA_E248568", "date": "2018-05-11"},
			{"session_id": "CNDA_E249152", "date": "2018-05-21"},
		},
	}
	deps := &Deps{Stager: &stage.Stager{Archive: a}}
	deps.SetIO(cli.IO{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	cfg := Config{Project: "CCIR_00754", Constraints: "[('xnat:petSessionData/DATE', '>', '2018-01-01')]", Modality: "pet"}

	hits, err := Handler(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	var out bytes.Buffer
	if err := hits.Print(&out); err != nil {
		t.Fatal(err)
	}
	want := "session_id,date\nCNDA_E248568,2018-05-11\nCNDA_E249152,2018-05-21\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if len(a.Queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(a.Queries))
	}
	wantWhere := xnat.Constraints{
		Method:   "AND",
		Criteria: []xnat.Constraint{{Field: "xnat:petSessionData/PROJECT", Op: "=", Value: "CCIR_00754"}},
		Groups: []xnat.Constraints{{
			Method:   "AND",
			Criteria: []xnat.Constraint{{Field: "xnat:petSessionData/DATE", Op: ">", Value: "2018-01-01"}},
		}},
	}
	if diff := cmp.Diff(wantWhere, a.Queries[0].Where); diff != "" {
		t.Errorf("constraints mismatch (-want +got):\n%s", diff)
	}
}
