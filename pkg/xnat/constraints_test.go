// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xnat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseConstraints(t *testing.T) {
	for _, tc := range []struct {
		name    string
		input   string
		want    Constraints
		wantErr bool
	}{
		{
			name:  "single criterion",
			input: `[('xnat:petSessionData/DATE', '<', '2018-01-01'), 'AND']`,
			want: Constraints{
				Method:   "AND",
				Criteria: []Constraint{{Field: "xnat:petSessionData/DATE", Op: "<", Value: "2018-01-01"}},
			},
		},
		{
			name:  "default combinator",
			input: `[("xnat:petSessionData/LABEL", "like", "HYGLY%")]`,
			want: Constraints{
				Method:   "AND",
				Criteria: []Constraint{{Field: "xnat:petSessionData/LABEL", Op: "LIKE", Value: "HYGLY%"}},
			},
		},
		{
			name: "nested",
			input: `[('xnat:petSessionData/DATE', '>=', '2016-07-18'),
				[('xnat:petSessionData/LABEL', 'LIKE', 'HYGLY%'), ('xnat:petSessionData/LABEL', 'LIKE', 'NP995%'), 'or'],
				'AND']`,
			want: Constraints{
				Method:   "AND",
				Criteria: []Constraint{{Field: "xnat:petSessionData/DATE", Op: ">=", Value: "2016-07-18"}},
				Groups: []Constraints{{
					Method: "OR",
					Criteria: []Constraint{
						{Field: "xnat:petSessionData/LABEL", Op: "LIKE", Value: "HYGLY%"},
						{Field: "xnat:petSessionData/LABEL", Op: "LIKE", Value: "NP995%"},
					},
				}},
			},
		},
		{
			name:  "empty list",
			input: `[]`,
			want:  Constraints{Method: "AND"},
		},
		{name: "bad operator", input: `[('a', '~', 'b')]`, wantErr: true},
		{name: "bad combinator", input: `[('a', '=', 'b'), 'XOR']`, wantErr: true},
		{name: "two element tuple", input: `[('a', '=')]`, wantErr: true},
		{name: "unterminated", input: `[('a', '=', 'b)]`, wantErr: true},
		{name: "trailing garbage", input: `[] []`, wantErr: true},
		{name: "bare word", input: `[AND]`, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseConstraints(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseConstraints() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseConstraints() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
