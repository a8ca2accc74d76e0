// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/ccir/xnatpet/internal/billyx"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

// StageRawdata downloads the RawData headers of a session, keeps the norm and
// listmode files acquired with tracer, fetches their .bf data and moves each
// pair to the tracer's raw data directory. Per-file failures are recorded in rep.
func (s *Stager) StageRawdata(ctx context.Context, a xnat.Archive, ses layout.Session, tracer classify.Tracer, rep *Report) ([]string, error) {
	if _, err := tracer.Label(); err != nil {
		return nil, err
	}
	files, err := a.SessionFiles(ctx, ses.Experiment, rawdataResource, "")
	if err != nil {
		return nil, err
	}
	done, err := s.sortedNames(ses)
	if err != nil {
		return nil, err
	}
	var dcms []xnat.File
	bfs := make(map[string]xnat.File)
	for _, f := range files {
		switch path.Ext(f.Name) {
		case ".dcm":
			if !done[f.Name] {
				dcms = append(dcms, f)
				continue
			}
			stale := path.Join(ses.Rawdata(), f.Name)
			if billyx.Exists(s.FS, stale) {
				if err := s.FS.Remove(stale); err != nil {
					rep.warn(s, errors.Wrapf(err, "removing %s", stale))
				}
			}
		case ".bf":
			bfs[f.Name] = f
		}
	}
	s.logf("Staging %s raw data of %s: %d unsorted headers", tracer, ses.Experiment, len(dcms))
	warn := func(err error) { rep.warn(s, err) }
	if _, err := s.fetchAll(ctx, a, dcms, ses.Rawdata(), true, warn); err != nil {
		return nil, err
	}
	return s.sortRawdata(ctx, a, bfs, ses, tracer, rep)
}

// sortedNames lists the headers already moved into a raw data destination.
func (s *Stager) sortedNames(ses layout.Session) (map[string]bool, error) {
	m, err := util.Glob(s.FS, path.Join(ses.Dir(), layout.RawdataGlob, "*.dcm"))
	if err != nil {
		return nil, errors.Wrap(err, "listing sorted raw data")
	}
	names := make(map[string]bool, len(m))
	for _, p := range m {
		names[path.Base(p)] = true
	}
	return names, nil
}

// SortRawdata sorts already downloaded rawdata/*.dcm files, and their .bf
// data, without contacting the archive.
func (s *Stager) SortRawdata(ctx context.Context, ses layout.Session, tracer classify.Tracer, rep *Report) ([]string, error) {
	if _, err := tracer.Label(); err != nil {
		return nil, err
	}
	if !billyx.Exists(s.FS, ses.Rawdata()) {
		return nil, errors.Errorf("%s does not exist", ses.Rawdata())
	}
	return s.sortRawdata(ctx, nil, nil, ses, tracer, rep)
}

// SortSession sorts the raw data of a session for every configured tracer.
func (s *Stager) SortSession(ctx context.Context, ses layout.Session) (*Report, error) {
	rep := &Report{}
	for _, t := range s.tracers() {
		moved, err := s.SortRawdata(ctx, ses, t, rep)
		if err != nil {
			return rep, err
		}
		rep.add(moved...)
	}
	return rep, nil
}

func (s *Stager) sortRawdata(ctx context.Context, a xnat.Archive, bfs map[string]xnat.File, ses layout.Session, tracer classify.Tracer, rep *Report) ([]string, error) {
	label, _ := tracer.Label()
	dir := ses.Rawdata()
	entries, err := s.FS.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".dcm") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	var moved []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		dcm := path.Join(dir, name)
		content, err := util.ReadFile(s.FS, dcm)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "reading %s", dcm))
			continue
		}
		ok, err := classify.IsTracer(content, tracer)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "classifying %s", dcm))
			continue
		}
		if !ok {
			continue
		}
		h, err := s.header(dcm)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "reading header of %s", dcm))
			continue
		}
		if !classify.IsNorm(h) && !classify.IsListmode(h) {
			continue
		}
		dest, err := ses.RawdataDestination(label, h)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "placing %s", dcm))
			continue
		}
		bfName := classify.BFName(name)
		bf := path.Join(dir, bfName)
		if !billyx.Exists(s.FS, bf) {
			f, known := bfs[bfName]
			if a == nil || !known {
				rep.warn(s, errors.Errorf("%s has no data file %s", dcm, bfName))
				continue
			}
			if err := s.fetch(ctx, a, f, bf, true); err != nil {
				rep.warn(s, errors.Wrapf(err, "fetching %s", bfName))
				continue
			}
		}
		pair, err := s.movePair(dcm, bf, dest)
		moved = append(moved, pair...)
		if err != nil {
			rep.warn(s, err)
			continue
		}
		s.logf("Sorted %s into %s", name, dest)
	}
	return moved, nil
}

func (s *Stager) movePair(dcm, bf, dest string) ([]string, error) {
	if err := layout.Ensure(s.FS, dest); err != nil {
		return nil, err
	}
	var moved []string
	for _, p := range []string{dcm, bf} {
		dst := path.Join(dest, path.Base(p))
		if err := billyx.Move(s.FS, p, dst, true); err != nil {
			return moved, err
		}
		moved = append(moved, dst)
	}
	return moved, nil
}
