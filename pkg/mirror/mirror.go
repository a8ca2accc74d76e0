// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package mirror copies staged trees out of the local cache.
package mirror

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/cheggaaa/pb"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

// Result counts what a Mirror call copied.
type Result struct {
	Files int
	Bytes int64
}

// Mirror copies every regular file under root in src to dst at the same path.
// Symlinks and other special files are not followed.
func Mirror(ctx context.Context, src billy.Filesystem, root string, dst Store, progress io.Writer) (*Result, error) {
	var files []string
	err := util.Walk(src, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	sort.Strings(files)
	var bar *pb.ProgressBar
	if progress != nil {
		bar = pb.New(len(files))
		bar.Output = progress
		bar.ShowTimeLeft = true
		bar.Start()
		defer bar.Finish()
	}
	res := &Result{}
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := copyFile(ctx, src, p, dst)
		if err != nil {
			return res, errors.Wrapf(err, "copying %s", p)
		}
		res.Files++
		res.Bytes += n
		if bar != nil {
			bar.Increment()
		}
	}
	return res, nil
}

func copyFile(ctx context.Context, src billy.Filesystem, p string, dst Store) (int64, error) {
	r, err := src.Open(p)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	w, err := dst.Writer(ctx, p)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return n, err
	}
	return n, w.Close()
}
