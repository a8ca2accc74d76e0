// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"path"

	"github.com/ccir/xnatpet/internal/billyx"
	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/pkg/errors"
)

// StageScan downloads every DICOM file of a scan into SCANS/<scan>, replacing stale files.
func (s *Stager) StageScan(ctx context.Context, a xnat.Archive, ses layout.Session, scan string) ([]string, error) {
	files, err := a.ScanFiles(ctx, ses.Experiment, scan, dicomResource, "*.dcm")
	if err != nil {
		return nil, err
	}
	dir := ses.Scan(scan)
	if err := billyx.Clear(s.FS, dir); err != nil {
		return nil, errors.Wrapf(err, "clearing %s", dir)
	}
	s.logf("Staging %s scan %s: %d files", ses.Experiment, scan, len(files))
	return s.fetchAll(ctx, a, files, dir, false, nil)
}

// StageDICOM0 fetches the first DICOM file of a scan, reusing a local copy, and reads its header.
func (s *Stager) StageDICOM0(ctx context.Context, a xnat.Archive, ses layout.Session, scan string) (*dicomx.Header, error) {
	files, err := a.ScanFiles(ctx, ses.Experiment, scan, dicomResource, "*.dcm")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("scan %s of %s has no DICOM files", scan, ses.Experiment)
	}
	dst := path.Join(ses.Scan(scan), files[0].Name)
	if err := s.fetch(ctx, a, files[0], dst, true); err != nil {
		return nil, errors.Wrapf(err, "fetching %s", files[0].Name)
	}
	h, err := s.header(dst)
	return h, errors.Wrapf(err, "reading header of %s", dst)
}

// StageCT stages the head CT into ct/ when the CT scan holds one.
func (s *Stager) StageCT(ctx context.Context, a xnat.Archive, ses layout.Session) ([]string, error) {
	files, err := a.ScanFiles(ctx, ses.Experiment, s.ctScan(), dicomResource, "*")
	if err != nil && !errors.Is(err, xnat.ErrNotFound) {
		return nil, err
	}
	if len(files) == 0 || !classify.IsCTHead(files[0].Name) {
		return nil, errors.Wrapf(ErrNoCT, "session %s", ses.Experiment)
	}
	dir := ses.CT()
	if err := billyx.Clear(s.FS, dir); err != nil {
		return nil, errors.Wrapf(err, "clearing %s", dir)
	}
	s.logf("Staging head CT of %s", ses.Experiment)
	return s.fetchAll(ctx, a, files, dir, false, nil)
}

// StageUmaps stages each attenuation map scan and moves it to umaps/<desc>_DT<date><time>.
// Per-scan failures are recorded in rep.
func (s *Stager) StageUmaps(ctx context.Context, a xnat.Archive, ses layout.Session, rep *Report) ([]string, error) {
	scans, err := a.Scans(ctx, ses.Experiment, "")
	if err != nil {
		return nil, err
	}
	var staged []string
	for _, sc := range scans {
		if err := ctx.Err(); err != nil {
			return staged, err
		}
		h, err := s.StageDICOM0(ctx, a, ses, sc.ID)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "checking scan %s for umap", sc.ID))
			continue
		}
		if !classify.IsUmap(h, s.UmapDescription) {
			continue
		}
		name, err := layout.ScanName(h)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "naming umap scan %s", sc.ID))
			continue
		}
		if _, err := s.StageScan(ctx, a, ses, sc.ID); err != nil {
			rep.warn(s, errors.Wrapf(err, "staging umap scan %s", sc.ID))
			continue
		}
		dst := path.Join(ses.Umaps(), name)
		if err := billyx.Move(s.FS, ses.Scan(sc.ID), dst, true); err != nil {
			rep.warn(s, errors.Wrapf(err, "moving umap scan %s", sc.ID))
			continue
		}
		s.logf("Staged umap %s", dst)
		staged = append(staged, dst)
	}
	if len(staged) == 0 {
		return nil, errors.Wrapf(ErrNoUmap, "session %s", ses.Experiment)
	}
	return staged, nil
}
