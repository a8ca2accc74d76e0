// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package layout names the directories of the local staging cache.
package layout

import (
	"path"
	"strings"

	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

const (
	ScansDir   = "SCANS"   // Per-scan DICOM downloads.
	CTDir      = "ct"      // Head CT, when one was acquired.
	UmapsDir   = "umaps"   // MR attenuation maps, renamed by acquisition.
	RawdataDir = "rawdata" // RawData downloads awaiting sorting.
	MRIDir     = "mri"     // Link into the FreeSurfer assessor tree.
	LMDir      = "LM"      // Listmode files inside a tracer directory.

	SessionPrefix = "ses-"
	SubjectPrefix = "sub-"

	nacSuffix = "-Converted-NAC"
	// RawdataGlob matches raw data destinations of any tracer.
	RawdataGlob = "*_DT*" + nacSuffix
)

// SessionName maps an experiment ID to its directory name: CNDA_E248568 becomes ses-E248568.
func SessionName(experiment string) string {
	if _, rest, ok := strings.Cut(experiment, "_"); ok && rest != "" {
		return SessionPrefix + rest
	}
	return SessionPrefix + experiment
}

// Session locates one experiment in the cache.
// Subject may be empty, in which case the session sits directly under the project.
type Session struct {
	Project    string
	Subject    string
	Experiment string
}

// Dir is the session directory relative to the cache root.
func (s Session) Dir() string {
	if s.Subject == "" {
		return path.Join(s.Project, SessionName(s.Experiment))
	}
	return path.Join(s.Project, SubjectPrefix+s.Subject, SessionName(s.Experiment))
}

func (s Session) Scan(id string) string { return path.Join(s.Dir(), ScansDir, id) }
func (s Session) CT() string            { return path.Join(s.Dir(), CTDir) }
func (s Session) Umaps() string         { return path.Join(s.Dir(), UmapsDir) }
func (s Session) Rawdata() string       { return path.Join(s.Dir(), RawdataDir) }
func (s Session) MRI() string           { return path.Join(s.Dir(), MRIDir) }

// RawdataDestination returns the directory for sorted raw data, e.g. HO_DT20180511115744.000000-Converted-NAC.
func (s Session) RawdataDestination(label string, h *dicomx.Header) (string, error) {
	name, err := RawdataName(label, h)
	if err != nil {
		return "", err
	}
	return path.Join(s.Dir(), name), nil
}

// RawdataName is <label>_DT<StudyDate><SeriesTime>-Converted-NAC.
func RawdataName(label string, h *dicomx.Header) (string, error) {
	if h == nil || h.StudyDate == "" || h.SeriesTime == "" {
		return "", errors.New("header lacks StudyDate or SeriesTime")
	}
	if label == "" {
		return "", errors.New("empty tracer label")
	}
	return label + "_DT" + h.StudyDate + h.SeriesTime + nacSuffix, nil
}

// ScanName is <SeriesDescription>_DT<SeriesDate><AcquisitionTime>.
func ScanName(h *dicomx.Header) (string, error) {
	if h == nil || h.SeriesDescription == "" || h.SeriesDate == "" || h.AcquisitionTime == "" {
		return "", errors.New("header lacks SeriesDescription, SeriesDate or AcquisitionTime")
	}
	return h.SeriesDescription + "_DT" + h.SeriesDate + h.AcquisitionTime, nil
}

// Ensure creates dir and its parents if needed.
func Ensure(fs billy.Filesystem, dir string) error {
	return errors.Wrapf(fs.MkdirAll(dir, 0755), "creating %s", dir)
}
