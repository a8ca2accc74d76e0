// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"path"

	"github.com/ccir/xnatpet/internal/billyx"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/cheggaaa/pb"
	"github.com/pkg/errors"
)

// fetch places f at dst, reusing an existing file when reuse is set and
// copying from the archive's own storage when it is locally readable.
func (s *Stager) fetch(ctx context.Context, a xnat.Archive, f xnat.File, dst string, reuse bool) error {
	if reuse && billyx.Exists(s.FS, dst) {
		s.logf("Found %s", dst)
		return nil
	}
	if s.Local != nil && f.AbsolutePath != "" && billyx.Exists(s.Local, f.AbsolutePath) {
		_, err := billyx.CopyFile(s.FS, dst, s.Local, f.AbsolutePath)
		if err == nil {
			return nil
		}
		s.logf("Warning: copying %s: %v; downloading instead", f.AbsolutePath, err)
	}
	rc, err := a.Download(ctx, f)
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := billyx.WriteAtomic(s.FS, dst, rc); err != nil {
		return errors.Wrapf(err, "writing %s", dst)
	}
	return nil
}

// fetchAll places files into dir. With a nil warn it stops at the first
// failure; otherwise each failed file is passed to warn and the batch goes on.
// Cancellation always stops the batch.
func (s *Stager) fetchAll(ctx context.Context, a xnat.Archive, files []xnat.File, dir string, reuse bool, warn func(error)) ([]string, error) {
	var bar *pb.ProgressBar
	if s.Progress != nil && len(files) > 1 {
		bar = pb.New(len(files))
		bar.Output = s.Progress
		bar.ShowTimeLeft = true
		bar.Start()
		defer bar.Finish()
	}
	var out []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dst := path.Join(dir, f.Name)
		err := s.fetch(ctx, a, f, dst, reuse)
		if bar != nil {
			bar.Increment()
		}
		if err != nil {
			err = errors.Wrapf(err, "fetching %s", f.Name)
			if warn == nil || ctx.Err() != nil {
				return out, err
			}
			warn(err)
			continue
		}
		out = append(out, dst)
	}
	return out, nil
}
