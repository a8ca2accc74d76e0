// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"archive/zip"
	"context"
	"path"
	"strings"

	"github.com/ccir/xnatpet/internal/billyx"
	"github.com/ccir/xnatpet/pkg/archive"
	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

const mriPattern = "CNDA*freesurfer*/out/resources/DATA/files/*/mri"

// StageFreesurfer makes the session's FreeSurfer mri directory available as <ses>/mri.
// An existing <ses>/<experiment>_freesurfer_* directory is reused; otherwise
// the assessors bundle is downloaded and unpacked.
func (s *Stager) StageFreesurfer(ctx context.Context, a xnat.Archive, ses layout.Session) (string, error) {
	dir := ses.Dir()
	existing, err := util.Glob(s.FS, path.Join(dir, ses.Experiment+"_freesurfer_*"))
	if err != nil {
		return "", errors.Wrap(err, "looking for freesurfer")
	}
	if len(existing) > 0 {
		s.logf("Found %s", existing[0])
		return existing[0], nil
	}
	if err := layout.Ensure(s.FS, dir); err != nil {
		return "", err
	}
	rc, err := a.Assessors(ctx, ses.Experiment, "ALL", "files")
	if err != nil {
		return "", err
	}
	zipPath := path.Join(dir, "assessors_ALL_files.zip")
	_, err = billyx.WriteAtomic(s.FS, zipPath, rc)
	rc.Close()
	if err != nil {
		return "", errors.Wrap(err, "saving assessors")
	}
	defer s.FS.Remove(zipPath)
	if err := s.unzip(zipPath, dir); err != nil {
		return "", err
	}
	matches, err := util.Glob(s.FS, path.Join(dir, mriPattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", errors.Errorf("assessors of %s hold no freesurfer mri", ses.Experiment)
	}
	mri := ses.MRI()
	if billyx.Exists(s.FS, mri) {
		if err := s.FS.Remove(mri); err != nil {
			return "", errors.Wrapf(err, "replacing %s", mri)
		}
	}
	target := strings.TrimPrefix(matches[0], dir+"/")
	if err := s.FS.Symlink(target, mri); err != nil {
		return "", errors.Wrapf(err, "linking %s", mri)
	}
	s.logf("Linked %s to %s", mri, target)
	return mri, nil
}

func (s *Stager) unzip(zipPath, dir string) error {
	f, err := s.FS.Open(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()
	ra, size, err := archive.ToZipCompatibleReader(f)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return errors.Wrap(err, "malformed assessors zip")
	}
	_, err = archive.ExtractZip(s.FS, dir, zr)
	return errors.Wrap(err, "extracting assessors")
}
