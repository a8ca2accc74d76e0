// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"

	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/pkg/errors"
)

// Hit is one session found by Search.
type Hit struct {
	SessionID string
	Date      string
}

// StageProject stages every experiment of the project.
func (s *Stager) StageProject(ctx context.Context) (*Report, error) {
	rep := &Report{}
	err := s.withSession(ctx, func(a xnat.ArchiveSession) error {
		exps, err := a.Experiments(ctx, s.Project, "")
		if err != nil {
			return err
		}
		return s.stageAll(ctx, a, exps, rep)
	})
	return rep, err
}

// StageSubject stages every experiment of one subject, given by ID or label.
func (s *Stager) StageSubject(ctx context.Context, subject string) (*Report, error) {
	rep := &Report{}
	err := s.withSession(ctx, func(a xnat.ArchiveSession) error {
		exps, err := a.SubjectExperiments(ctx, s.Project, subject, "")
		if err != nil {
			return err
		}
		for i := range exps {
			if exps[i].SubjectLabel == "" {
				exps[i].SubjectLabel = subject
			}
		}
		return s.stageAll(ctx, a, exps, rep)
	})
	return rep, err
}

// StageConstraints stages the project sessions of xnat:<modality>SessionData
// that satisfy c.
func (s *Stager) StageConstraints(ctx context.Context, c xnat.Constraints, modality string) (*Report, error) {
	rep := &Report{}
	err := s.withSession(ctx, func(a xnat.ArchiveSession) error {
		hits, err := search(ctx, a, c, modality)
		if err != nil {
			return err
		}
		all, err := a.Experiments(ctx, s.Project, "")
		if err != nil {
			return err
		}
		byID := make(map[string]xnat.Experiment, len(all))
		for _, e := range all {
			byID[e.ID] = e
		}
		var exps []xnat.Experiment
		for _, h := range hits {
			e, ok := byID[h.SessionID]
			if !ok {
				rep.warn(s, errors.Errorf("session %s is not in project %s", h.SessionID, s.Project))
				continue
			}
			exps = append(exps, e)
		}
		return s.stageAll(ctx, a, exps, rep)
	})
	return rep, err
}

// StageSession stages one experiment by ID.
func (s *Stager) StageSession(ctx context.Context, experiment string) (*Report, error) {
	rep := &Report{}
	err := s.withSession(ctx, func(a xnat.ArchiveSession) error {
		exp, err := s.lookup(ctx, a, experiment)
		if err != nil {
			return err
		}
		return s.stageExperiment(ctx, a, exp, rep)
	})
	return rep, err
}

// Search lists the sessions of xnat:<modality>SessionData satisfying c.
func (s *Stager) Search(ctx context.Context, c xnat.Constraints, modality string) ([]Hit, error) {
	var hits []Hit
	err := s.withSession(ctx, func(a xnat.ArchiveSession) error {
		var err error
		hits, err = search(ctx, a, c, modality)
		return err
	})
	return hits, err
}

func search(ctx context.Context, a xnat.Archive, c xnat.Constraints, modality string) ([]Hit, error) {
	if modality == "" {
		modality = "pet"
	}
	rows, err := a.Search(ctx, xnat.Query{
		RootElement: "xnat:" + modality + "SessionData",
		Fields:      []string{"SESSION_ID", "DATE"},
		Where:       c,
	})
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		if r["session_id"] == "" {
			continue
		}
		hits = append(hits, Hit{SessionID: r["session_id"], Date: r["date"]})
	}
	return hits, nil
}

// lookup finds an experiment of the project so its subject is known.
func (s *Stager) lookup(ctx context.Context, a xnat.Archive, experiment string) (xnat.Experiment, error) {
	exps, err := a.Experiments(ctx, s.Project, experiment)
	if err != nil {
		return xnat.Experiment{}, err
	}
	for _, e := range exps {
		if e.ID == experiment {
			return e, nil
		}
	}
	if len(exps) == 1 {
		return exps[0], nil
	}
	s.logf("Warning: %s not listed in %s; staging without subject", experiment, s.Project)
	return xnat.Experiment{ID: experiment, Project: s.Project}, nil
}

func (s *Stager) stageAll(ctx context.Context, a xnat.Archive, exps []xnat.Experiment, rep *Report) error {
	s.logf("Staging %d sessions of %s", len(exps), s.Project)
	for _, e := range exps {
		if err := s.stageExperiment(ctx, a, e, rep); err != nil {
			return err
		}
	}
	return nil
}

// stageExperiment stages scans, CT, FreeSurfer, umaps and raw data.
// Only cancellation is returned; everything else becomes a warning.
func (s *Stager) stageExperiment(ctx context.Context, a xnat.Archive, exp xnat.Experiment, rep *Report) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	ses := layout.Session{Project: s.Project, Subject: exp.SubjectLabel, Experiment: exp.ID}
	s.logf("Staging %s into %s", exp.ID, ses.Dir())
	if err := layout.Ensure(s.FS, ses.Dir()); err != nil {
		return err
	}
	scans, err := a.Scans(ctx, exp.ID, "")
	switch {
	case err != nil:
		rep.warn(s, errors.Wrapf(err, "listing scans of %s", exp.ID))
	case len(scans) == 0:
		rep.warn(s, errors.Errorf("session %s has no scans", exp.ID))
	default:
		if !s.AllScans {
			scans = scans[:1]
		}
		for _, sc := range scans {
			paths, err := s.StageScan(ctx, a, ses, sc.ID)
			rep.add(paths...)
			if err != nil {
				rep.warn(s, errors.Wrapf(err, "staging %s scan %s", exp.ID, sc.ID))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if paths, err := s.StageCT(ctx, a, ses); err != nil {
		rep.warn(s, err)
	} else {
		rep.add(paths...)
	}
	if mri, err := s.StageFreesurfer(ctx, a, ses); err != nil {
		rep.warn(s, errors.Wrapf(err, "staging freesurfer of %s", exp.ID))
	} else {
		rep.add(mri)
	}
	if paths, err := s.StageUmaps(ctx, a, ses, rep); err != nil {
		rep.warn(s, err)
	} else {
		rep.add(paths...)
	}
	for _, t := range s.tracers() {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths, err := s.StageRawdata(ctx, a, ses, t, rep)
		rep.add(paths...)
		if err != nil {
			rep.warn(s, errors.Wrapf(err, "staging %s raw data of %s", t, exp.ID))
		}
	}
	return ctx.Err()
}
