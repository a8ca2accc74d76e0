// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package archivetest builds zip bundles for tests.
package archivetest

import (
	"archive/zip"
	"bytes"

	"github.com/ccir/xnatpet/pkg/archive"
)

// ZipFile returns a zip holding entries, in order.
func ZipFile(entries []archive.ZipEntry) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if err := entry.WriteTo(zw); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Files returns a zip of regular files keyed by name.
func Files(files map[string]string, order ...string) (*bytes.Buffer, error) {
	var entries []archive.ZipEntry
	for _, name := range order {
		entries = append(entries, archive.ZipEntry{
			FileHeader: &zip.FileHeader{Name: name, Method: zip.Deflate},
			Body:       []byte(files[name]),
		})
	}
	return ZipFile(entries)
}
