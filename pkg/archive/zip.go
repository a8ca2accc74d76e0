// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package archive unpacks the zip bundles the archive serves for assessors.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/ccir/xnatpet/internal/billyx"
	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

// ZipEntry represents an entry in a zip archive.
type ZipEntry struct {
	*zip.FileHeader
	Body []byte
}

// WriteTo writes the ZipEntry to a zip writer.
func (e ZipEntry) WriteTo(zw *zip.Writer) error {
	fw, err := zw.CreateHeader(e.FileHeader)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, bytes.NewReader(e.Body))
	return err
}

// ToZipCompatibleReader coerces an io.Reader into an io.ReaderAt required to construct a zip.Reader.
func ToZipCompatibleReader(r io.Reader) (io.ReaderAt, int64, error) {
	seeker, seekerOK := r.(io.Seeker)
	readerAt, readerOK := r.(io.ReaderAt)
	if seekerOK && readerOK {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, errors.Wrap(err, "locating reader position")
		}
		size, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, errors.Wrap(err, "retrieving size")
		}
		if _, err := seeker.Seek(pos, io.SeekStart); err != nil {
			return nil, 0, errors.Wrap(err, "restoring reader position")
		}
		return readerAt, size, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "buffering archive")
	}
	return bytes.NewReader(b), int64(len(b)), nil
}

// entryPath resolves a zip entry name under dir, rejecting names that escape it.
func entryPath(dir, name string) (string, error) {
	n := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(n) {
		return "", errors.Errorf("unsafe zip entry %q", name)
	}
	for _, el := range strings.Split(n, "/") {
		if el == ".." {
			return "", errors.Errorf("unsafe zip entry %q", name)
		}
	}
	c := path.Clean(n)
	if c == "." {
		return "", errors.Errorf("empty zip entry %q", name)
	}
	return path.Join(dir, c), nil
}

// ExtractZip writes every entry of zr under dir in fs and returns the files written.
// Entries whose names would land outside dir are rejected.
func ExtractZip(fs billy.Filesystem, dir string, zr *zip.Reader) ([]string, error) {
	var written []string
	for _, f := range zr.File {
		p, err := entryPath(dir, f.Name)
		if err != nil {
			return written, err
		}
		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(p, 0755); err != nil {
				return written, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return written, errors.Wrapf(err, "opening %s", f.Name)
		}
		_, err = billyx.WriteAtomic(fs, p, rc)
		rc.Close()
		if err != nil {
			return written, errors.Wrapf(err, "extracting %s", f.Name)
		}
		written = append(written, p)
	}
	return written, nil
}
