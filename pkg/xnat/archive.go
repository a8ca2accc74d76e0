// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xnat

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

var experimentColumns = "ID,label,project,subject_ID,subject_label,xsiType,date"

// Projects lists projects whose ID or name matches glob.
func (s *Session) Projects(ctx context.Context, glob string) ([]Project, error) {
	all, err := list[Project](ctx, s, "/data/projects", nil)
	if err != nil {
		return nil, errors.Wrap(err, "listing projects")
	}
	var out []Project
	for _, p := range all {
		if Match(glob, p.ID, p.Name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Subjects lists subjects of a project whose ID or label matches glob.
func (s *Session) Subjects(ctx context.Context, project, glob string) ([]Subject, error) {
	all, err := list[Subject](ctx, s, segments("data", "projects", project, "subjects"), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "listing subjects of %s", project)
	}
	var out []Subject
	for _, sub := range all {
		if Match(glob, sub.ID, sub.Label) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// Experiments lists experiments of a project, including the subject of each.
func (s *Session) Experiments(ctx context.Context, project, glob string) ([]Experiment, error) {
	q := url.Values{"columns": {experimentColumns}}
	all, err := list[Experiment](ctx, s, segments("data", "projects", project, "experiments"), q)
	if err != nil {
		return nil, errors.Wrapf(err, "listing experiments of %s", project)
	}
	return filterExperiments(all, glob), nil
}

// SubjectExperiments lists the experiments of one subject.
func (s *Session) SubjectExperiments(ctx context.Context, project, subject, glob string) ([]Experiment, error) {
	q := url.Values{"columns": {experimentColumns}}
	all, err := list[Experiment](ctx, s, segments("data", "projects", project, "subjects", subject, "experiments"), q)
	if err != nil {
		return nil, errors.Wrapf(err, "listing experiments of %s/%s", project, subject)
	}
	return filterExperiments(all, glob), nil
}

func filterExperiments(all []Experiment, glob string) []Experiment {
	var out []Experiment
	for _, e := range all {
		if Match(glob, e.ID, e.Label) {
			out = append(out, e)
		}
	}
	return out
}

// Scans lists the scans of an experiment.
func (s *Session) Scans(ctx context.Context, experiment, glob string) ([]Scan, error) {
	all, err := list[Scan](ctx, s, segments("data", "experiments", experiment, "scans"), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "listing scans of %s", experiment)
	}
	var out []Scan
	for _, sc := range all {
		if Match(glob, sc.ID) {
			out = append(out, sc)
		}
	}
	return out, nil
}

// ScanResources lists the resources of a scan.
func (s *Session) ScanResources(ctx context.Context, experiment, scan string) ([]Resource, error) {
	rs, err := list[Resource](ctx, s, segments("data", "experiments", experiment, "scans", scan, "resources"), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "listing resources of %s scan %s", experiment, scan)
	}
	return rs, nil
}

// ScanFiles lists the files of a scan resource.
func (s *Session) ScanFiles(ctx context.Context, experiment, scan, resource, glob string) ([]File, error) {
	p := segments("data", "experiments", experiment, "scans", scan, "resources", resource, "files")
	fs, err := s.files(ctx, p, glob)
	return fs, errors.Wrapf(err, "listing %s of %s scan %s", resource, experiment, scan)
}

// SessionFiles lists the files of an experiment-level resource such as RawData.
func (s *Session) SessionFiles(ctx context.Context, experiment, resource, glob string) ([]File, error) {
	p := segments("data", "experiments", experiment, "resources", resource, "files")
	fs, err := s.files(ctx, p, glob)
	return fs, errors.Wrapf(err, "listing %s of %s", resource, experiment)
}

// files lists p and then merges absolute paths from a second, located listing.
func (s *Session) files(ctx context.Context, p, glob string) ([]File, error) {
	all, err := list[File](ctx, s, p, nil)
	if err != nil {
		return nil, err
	}
	located, err := list[File](ctx, s, p, url.Values{"locator": {"absolutePath"}})
	if err != nil {
		return nil, err
	}
	abs := make(map[string]string, len(located))
	for _, f := range located {
		abs[f.Name] = f.AbsolutePath
	}
	var out []File
	for _, f := range all {
		if !Match(glob, f.Name) {
			continue
		}
		if f.AbsolutePath == "" {
			f.AbsolutePath = abs[f.Name]
		}
		out = append(out, f)
	}
	return out, nil
}

// Download streams the content of f.
func (s *Session) Download(ctx context.Context, f File) (io.ReadCloser, error) {
	u, err := url.Parse(f.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing URI of %s", f.Name)
	}
	resp, err := s.do(ctx, http.MethodGet, u.EscapedPath(), u.Query(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", f.Name)
	}
	return resp.Body, nil
}

// Assessors streams the zip of an experiment's assessor files.
// variety is typically "ALL" and vtype "files".
func (s *Session) Assessors(ctx context.Context, experiment, variety, vtype string) (io.ReadCloser, error) {
	p := segments("data", "experiments", experiment, "assessors", variety, vtype)
	resp, err := s.do(ctx, http.MethodGet, p, url.Values{"format": {"zip"}}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading assessors of %s", experiment)
	}
	return resp.Body, nil
}

// Upload describes a file added to a scan resource.
type Upload struct {
	Experiment string
	Scan       string
	Resource   string
	Name       string
	Format     string
	Content    string
	Body       io.Reader
}

// Upload puts a file into a scan resource, creating the resource if needed.
func (s *Session) Upload(ctx context.Context, u Upload) error {
	p := segments("data", "experiments", u.Experiment, "scans", u.Scan, "resources", u.Resource, "files", u.Name)
	q := url.Values{"inbody": {"true"}}
	if u.Format != "" {
		q.Set("format", u.Format)
	}
	if u.Content != "" {
		q.Set("content", u.Content)
	}
	resp, err := s.do(ctx, http.MethodPut, p, q, u.Body)
	if err != nil {
		return errors.Wrapf(err, "uploading %s", u.Name)
	}
	resp.Body.Close()
	return nil
}

// DeleteScanResource removes a scan resource and its files.
func (s *Session) DeleteScanResource(ctx context.Context, experiment, scan, resource string) error {
	p := segments("data", "experiments", experiment, "scans", scan, "resources", resource)
	resp, err := s.do(ctx, http.MethodDelete, p, nil, nil)
	if err != nil {
		return errors.Wrapf(err, "deleting %s of %s scan %s", resource, experiment, scan)
	}
	resp.Body.Close()
	return nil
}
