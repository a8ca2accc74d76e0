// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xnat

import (
	"encoding/json"
	"path"
	"strconv"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the archive responds 404.
var ErrNotFound = errors.New("not found")

// Project is a top-level archive container.
type Project struct {
	ID   string `json:"ID"`
	Name string `json:"name"`
}

// Subject is a participant within a project.
type Subject struct {
	ID      string `json:"ID"`
	Label   string `json:"label"`
	Project string `json:"project"`
}

// Experiment is an imaging session, e.g. CNDA_E248568.
type Experiment struct {
	ID           string `json:"ID"`
	Label        string `json:"label"`
	Project      string `json:"project"`
	SubjectID    string `json:"subject_ID"`
	SubjectLabel string `json:"subject_label"`
	XSIType      string `json:"xsiType"`
	Date         string `json:"date"`
}

// Scan is a series within an experiment.
type Scan struct {
	ID                string `json:"ID"`
	Type              string `json:"type"`
	SeriesDescription string `json:"series_description"`
	XSIType           string `json:"xsiType"`
}

// Resource is a named file collection attached to a scan or experiment.
type Resource struct {
	ID        string `json:"xnat_abstractresource_id"`
	Label     string `json:"label"`
	Format    string `json:"format"`
	FileCount Count  `json:"file_count"`
}

// File is one archived file.
// AbsolutePath is the archive server's own path, readable when the cache shares its storage.
type File struct {
	Name         string `json:"Name"`
	URI          string `json:"URI"`
	AbsolutePath string `json:"absolutePath"`
	Size         Count  `json:"Size"`
	Collection   string `json:"collection"`
}

// Count decodes integers that the archive serializes as either numbers or strings.
type Count int64

func (c *Count) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "decoding count")
		}
		n = json.Number(s)
	}
	if n == "" {
		*c = 0
		return nil
	}
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "decoding count %q", n)
	}
	*c = Count(v)
	return nil
}

// resultSet is the envelope of every JSON listing.
type resultSet[T any] struct {
	ResultSet struct {
		Result []T `json:"Result"`
	} `json:"ResultSet"`
}

// Match reports whether the glob matches any of the names.
// An empty glob matches everything.
func Match(glob string, names ...string) bool {
	if glob == "" || glob == "*" {
		return true
	}
	for _, n := range names {
		if ok, err := path.Match(glob, n); err == nil && ok {
			return true
		}
	}
	return false
}
