// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package interfile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

const listmodeHeader = `!INTERFILE:=
%comment:=SMS-MI header
!originating system:=2008
%SMS-MI header name space:=sinogram subheader
!name of data file:=1.3.12.2.1107.5.2.38.51010.2018051111574487268710305.bf
;listmode bookkeeping follows
%study date (yyyy:mm:dd):=2018:05:11
%study time (hh:mm:ss GMT+00:00):=11:57:44
radiopharmaceutical:=Fluorodeoxyglucose
!image duration (sec):=600
!END OF INTERFILE:=
trailing:=ignored
`

func TestParse(t *testing.T) {
	h, err := Parse(strings.NewReader(listmodeHeader))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, tc := range []struct {
		key  string
		want Field
	}{
		{"interfile", Field{}},
		{"originating system", Field{Value: "2008"}},
		{"sms-mi header name space", Field{Value: "sinogram subheader"}},
		{"study date", Field{Value: "2018:05:11", Unit: "yyyy:mm:dd"}},
		{"study time", Field{Value: "11:57:44", Unit: "hh:mm:ss GMT+00:00"}},
		{"image duration", Field{Value: "600", Unit: "sec"}},
	} {
		if diff := cmp.Diff(tc.want, h[tc.key]); diff != "" {
			t.Errorf("field %q mismatch (-want +got):\n%s", tc.key, diff)
		}
	}
	if _, ok := h["trailing"]; ok {
		t.Error("parsed past end of interfile")
	}
	if d, err := h.ImageDuration(); err != nil || d != 600 {
		t.Errorf("ImageDuration() = %v, %v", d, err)
	}
	if got := h.Radiopharmaceutical(); got != "Fluorodeoxyglucose" {
		t.Errorf("Radiopharmaceutical() = %q", got)
	}
	if got := h.StudyDate() + " " + h.StudyTime(); got != "2018:05:11 11:57:44" {
		t.Errorf("study date/time = %q", got)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("no header here\n")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("Parse() error = %v, want ErrNoHeader", err)
	}
}

func TestParseEmbedded(t *testing.T) {
	content := append([]byte("DICM\x00\x01\x02\xff"), []byte(listmodeHeader)...)
	content = append(content, 0x00, 0x9f, 'x')
	h, err := ParseEmbedded(content)
	if err != nil {
		t.Fatalf("ParseEmbedded() error = %v", err)
	}
	if v, _ := h.Get("name of data file"); v != "1.3.12.2.1107.5.2.38.51010.2018051111574487268710305.bf" {
		t.Errorf("name of data file = %q", v)
	}
	if _, err := ParseEmbedded([]byte("\x00\x01DICM")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("ParseEmbedded() error = %v, want ErrNoHeader", err)
	}
}

func TestStrings(t *testing.T) {
	got := Strings([]byte("ab\x00image duration (sec) :=1200\x01\x02xyz\x00PET_NORM"), 4)
	want := []string{"image duration (sec) :=1200", "PET_NORM"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Strings() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchImageDuration(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{name: "present", content: "\x00\x07image duration (sec) :=1200\x00", want: 1200},
		{name: "absent", content: "\x00\x07image size :=1200\x00", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SearchImageDuration([]byte(tc.content))
			if (err != nil) != tc.wantErr {
				t.Fatalf("SearchImageDuration() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("SearchImageDuration() = %d, want %d", got, tc.want)
			}
		})
	}
}
