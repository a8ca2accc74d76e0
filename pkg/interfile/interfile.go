// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package interfile parses Interfile headers, including those that Siemens
// scanners embed in listmode and norm DICOM files.
package interfile

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoHeader is returned when content holds no Interfile block.
var ErrNoHeader = errors.New("no interfile header")

const (
	beginMarker = "!INTERFILE"
	endMarker   = "!END OF INTERFILE"
)

// Field is a header value and its optional unit, e.g. "1200" and "sec".
type Field struct {
	Value string
	Unit  string
}

// Header maps normalized keys to fields.
type Header map[string]Field

// Parse reads "key := value" lines. Keys lose leading '!' and '%',
// parenthesized units are split off and the remainder is lower-cased.
// Lines starting with ';' are comments. Later keys override earlier ones.
func Parse(r io.Reader) (Header, error) {
	h := make(Header)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	seen := false
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		k, v, ok := strings.Cut(line, ":=")
		if !ok {
			continue
		}
		key, unit := normalize(k)
		if key == "" {
			continue
		}
		seen = true
		if strings.EqualFold(key, "end of interfile") {
			break
		}
		h[key] = Field{Value: strings.TrimSpace(v), Unit: unit}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading interfile")
	}
	if !seen {
		return nil, ErrNoHeader
	}
	return h, nil
}

func normalize(k string) (key, unit string) {
	k = strings.TrimSpace(k)
	k = strings.TrimLeft(k, "!%")
	if i := strings.Index(k, "("); i >= 0 {
		if j := strings.LastIndex(k, ")"); j > i {
			unit = strings.TrimSpace(k[i+1 : j])
			k = k[:i] + k[j+1:]
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(k), " ")), unit
}

// Extract returns the Interfile block embedded in binary content.
func Extract(b []byte) ([]byte, error) {
	i := bytes.Index(b, []byte(beginMarker))
	if i < 0 {
		return nil, ErrNoHeader
	}
	block := b[i:]
	if j := bytes.Index(block, []byte(endMarker)); j >= 0 {
		block = block[:j+len(endMarker)]
	}
	return block, nil
}

// ParseEmbedded extracts and parses the Interfile block in b.
func ParseEmbedded(b []byte) (Header, error) {
	block, err := Extract(b)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(block))
}

var printable = regexp.MustCompile(`[A-Za-z0-9/\-:.,_$%'()\[\]<>= ]+`)

// Strings returns the runs of printable characters of at least min bytes.
func Strings(b []byte, min int) []string {
	var out []string
	for _, m := range printable.FindAll(b, -1) {
		if len(m) >= min {
			out = append(out, string(m))
		}
	}
	return out
}

// Get returns the value for a normalized key.
func (h Header) Get(key string) (string, bool) {
	f, ok := h[key]
	return f.Value, ok
}

// ImageDuration returns the acquisition duration in seconds.
func (h Header) ImageDuration() (float64, error) {
	v, ok := h.Get("image duration")
	if !ok || v == "" {
		return 0, errors.New("image duration missing")
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing image duration %q", v)
	}
	return d, nil
}

// StudyDate returns the raw study date, e.g. "2018:05:11".
func (h Header) StudyDate() string {
	v, _ := h.Get("study date")
	return v
}

// StudyTime returns the raw study time, e.g. "11:57:44".
func (h Header) StudyTime() string {
	v, _ := h.Get("study time")
	return v
}

// Radiopharmaceutical names the tracer, e.g. "Fluorodeoxyglucose".
func (h Header) Radiopharmaceutical() string {
	v, _ := h.Get("radiopharmaceutical")
	return v
}

var durationPattern = regexp.MustCompile(`image duration \(sec\) :=(\d+)`)

// SearchImageDuration scans printable runs of b for an image duration,
// for files whose embedded header does not parse.
func SearchImageDuration(b []byte) (int, error) {
	for _, s := range Strings(b, 4) {
		if m := durationPattern.FindStringSubmatch(s); m != nil {
			return strconv.Atoi(m[1])
		}
	}
	return 0, errors.New("image duration not found")
}
