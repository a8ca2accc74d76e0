// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package billyx provides utilities for working with billy filesystems.
package billyx

import (
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Exists reports whether p exists in fs.
func Exists(fs billy.Filesystem, p string) bool {
	_, err := fs.Lstat(p)
	return err == nil
}

// WriteAtomic writes r to a temporary sibling of p and renames it into place,
// so that an interrupted write never leaves a partial file at p.
func WriteAtomic(fs billy.Filesystem, p string, r io.Reader) (int64, error) {
	if err := fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return 0, err
	}
	tmp := p + "." + uuid.New().String() + ".part"
	f, err := fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fs.Remove(tmp)
		return n, err
	}
	if err := fs.Rename(tmp, p); err != nil {
		fs.Remove(tmp)
		return n, err
	}
	return n, nil
}

// CopyFile copies srcPath in src to dstPath in dst.
func CopyFile(dst billy.Filesystem, dstPath string, src billy.Filesystem, srcPath string) (int64, error) {
	in, err := src.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return WriteAtomic(dst, dstPath, in)
}

// Move renames from to to, creating the parent of to.
// An existing directory or file at to is replaced when replace is set.
func Move(fs billy.Filesystem, from, to string, replace bool) error {
	if Exists(fs, to) {
		if !replace {
			return errors.Errorf("%s already exists", to)
		}
		if err := util.RemoveAll(fs, to); err != nil {
			return errors.Wrapf(err, "removing %s", to)
		}
	}
	if err := fs.MkdirAll(path.Dir(to), 0755); err != nil {
		return err
	}
	return errors.Wrapf(fs.Rename(from, to), "moving %s", from)
}

// Clear removes the regular files directly inside dir, creating dir if needed.
func Clear(fs billy.Filesystem, dir string) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := fs.Remove(path.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
