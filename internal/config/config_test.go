// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name     string
		content  string
		path     string
		optional bool
		want     Config
		wantErr  bool
	}{
		{
			name:     "missing optional file",
			path:     "/home/u/.xnatpet.yaml",
			optional: true,
			want:     Default(),
		},
		{
			name:    "missing required file",
			path:    "/home/u/.xnatpet.yaml",
			wantErr: true,
		},
		{
			name: "file overrides defaults",
			path: "/home/u/.xnatpet.yaml",
			content: `host: https://xnat.example.org
user: jjlee
tracers: [Fluorodeoxyglucose]
sleep: 30s
insecure: true
request_interval: 2s
`,
			want: func() Config {
				c := Default()
				c.Host = "https://xnat.example.org"
				c.User = "jjlee"
				c.Tracers = []string{"Fluorodeoxyglucose"}
				c.Sleep = 30 * time.Second
				c.Insecure = true
				c.RequestInterval = 2 * time.Second
				return c
			}(),
		},
		{
			name:    "unknown field",
			path:    "/home/u/.xnatpet.yaml",
			content: "hostname: x\n",
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fs := memfs.New()
			if tc.content != "" {
				if err := util.WriteFile(fs, tc.path, []byte(tc.content), 0600); err != nil {
					t.Fatal(err)
				}
			}
			got, err := Load(fs, tc.path, tc.optional)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"CNDA_UID": "envuser", "CNDA_PWD": "envpass"}
	c := Default()
	c.User = "fileuser"
	c.ApplyEnv(func(k string) string { return env[k] })
	if c.User != "fileuser" || c.Password != "envpass" {
		t.Errorf("ApplyEnv() = %q/%q, want fileuser/envpass", c.User, c.Password)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	empty := Default()
	empty.ApplyEnv(func(string) string { return "" })
	if err := empty.Validate(); err == nil {
		t.Error("Validate() without credentials succeeded")
	}
}
