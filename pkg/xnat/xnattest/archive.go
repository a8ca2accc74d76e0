// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package xnattest provides an in-memory xnat.Archive for tests.
package xnattest

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/pkg/errors"
)

// Archive is a fake archive. Files are keyed by FileKey and contents by URI.
type Archive struct {
	Project        xnat.Project
	SubjectList    []xnat.Subject
	ExperimentList []xnat.Experiment
	ScanMap        map[string][]xnat.Scan
	Resources      map[string][]xnat.Resource
	Files          map[string][]xnat.File
	Content        map[string][]byte
	AssessorZip    map[string][]byte
	SearchRows     []map[string]string

	// FailDownload lists URIs whose download fails.
	FailDownload map[string]bool

	Logins    int
	Closes    int
	Downloads []string
	Uploads   []xnat.Upload
	Uploaded  map[string][]byte
	Deleted   []string
	Queries   []xnat.Query
}

var _ xnat.Connector = &Archive{}
var _ xnat.ArchiveSession = &Archive{}

// ScanKey names the scans of an experiment or the resources of a scan.
func ScanKey(parts ...string) string {
	return strings.Join(parts, "/")
}

// AddFile registers a file of an experiment resource (scan == "") or scan resource.
func (a *Archive) AddFile(experiment, scan, resource, name string, content []byte) xnat.File {
	var key, uri string
	if scan == "" {
		key = ScanKey(experiment, resource)
		uri = "/data/experiments/" + experiment + "/resources/" + resource + "/files/" + name
	} else {
		key = ScanKey(experiment, scan, resource)
		uri = "/data/experiments/" + experiment + "/scans/" + scan + "/resources/" + resource + "/files/" + name
	}
	f := xnat.File{Name: name, URI: uri, Size: xnat.Count(len(content))}
	if a.Files == nil {
		a.Files = make(map[string][]xnat.File)
	}
	if a.Content == nil {
		a.Content = make(map[string][]byte)
	}
	a.Files[key] = append(a.Files[key], f)
	a.Content[uri] = content
	return f
}

func (a *Archive) Connect(context.Context) (xnat.ArchiveSession, error) {
	a.Logins++
	return a, nil
}

func (a *Archive) Close(context.Context) error {
	a.Closes++
	return nil
}

func (a *Archive) Projects(_ context.Context, glob string) ([]xnat.Project, error) {
	if xnat.Match(glob, a.Project.ID, a.Project.Name) {
		return []xnat.Project{a.Project}, nil
	}
	return nil, nil
}

func (a *Archive) Subjects(_ context.Context, project, glob string) ([]xnat.Subject, error) {
	if project != a.Project.ID {
		return nil, errors.Wrap(xnat.ErrNotFound, project)
	}
	var out []xnat.Subject
	for _, s := range a.SubjectList {
		if xnat.Match(glob, s.ID, s.Label) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *Archive) Experiments(_ context.Context, project, glob string) ([]xnat.Experiment, error) {
	if project != a.Project.ID {
		return nil, errors.Wrap(xnat.ErrNotFound, project)
	}
	var out []xnat.Experiment
	for _, e := range a.ExperimentList {
		if xnat.Match(glob, e.ID, e.Label) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *Archive) SubjectExperiments(ctx context.Context, project, subject, glob string) ([]xnat.Experiment, error) {
	all, err := a.Experiments(ctx, project, glob)
	if err != nil {
		return nil, err
	}
	var out []xnat.Experiment
	for _, e := range all {
		if e.SubjectID == subject || e.SubjectLabel == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *Archive) Scans(_ context.Context, experiment, glob string) ([]xnat.Scan, error) {
	var out []xnat.Scan
	for _, s := range a.ScanMap[experiment] {
		if xnat.Match(glob, s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *Archive) ScanResources(_ context.Context, experiment, scan string) ([]xnat.Resource, error) {
	return a.Resources[ScanKey(experiment, scan)], nil
}

func (a *Archive) ScanFiles(_ context.Context, experiment, scan, resource, glob string) ([]xnat.File, error) {
	return a.files(ScanKey(experiment, scan, resource), glob)
}

func (a *Archive) SessionFiles(_ context.Context, experiment, resource, glob string) ([]xnat.File, error) {
	return a.files(ScanKey(experiment, resource), glob)
}

func (a *Archive) files(key, glob string) ([]xnat.File, error) {
	fs, ok := a.Files[key]
	if !ok {
		return nil, errors.Wrap(xnat.ErrNotFound, key)
	}
	var out []xnat.File
	for _, f := range fs {
		if xnat.Match(glob, f.Name) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Archive) Download(_ context.Context, f xnat.File) (io.ReadCloser, error) {
	a.Downloads = append(a.Downloads, f.URI)
	if a.FailDownload[f.URI] {
		return nil, errors.Errorf("downloading %s: 500 Internal Server Error", f.Name)
	}
	b, ok := a.Content[f.URI]
	if !ok {
		return nil, errors.Wrap(xnat.ErrNotFound, f.URI)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (a *Archive) Assessors(_ context.Context, experiment, variety, vtype string) (io.ReadCloser, error) {
	b, ok := a.AssessorZip[experiment]
	if !ok {
		return nil, errors.Wrap(xnat.ErrNotFound, "assessors of "+experiment)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (a *Archive) Upload(_ context.Context, u xnat.Upload) error {
	b, err := io.ReadAll(u.Body)
	if err != nil {
		return err
	}
	if a.Uploaded == nil {
		a.Uploaded = make(map[string][]byte)
	}
	a.Uploaded[ScanKey(u.Experiment, u.Scan, u.Resource, u.Name)] = b
	u.Body = nil
	a.Uploads = append(a.Uploads, u)
	return nil
}

func (a *Archive) DeleteScanResource(_ context.Context, experiment, scan, resource string) error {
	a.Deleted = append(a.Deleted, ScanKey(experiment, scan, resource))
	return nil
}

func (a *Archive) Search(_ context.Context, q xnat.Query) ([]map[string]string, error) {
	a.Queries = append(a.Queries, q)
	return a.SearchRows, nil
}
