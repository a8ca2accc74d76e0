// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package calibrate finds short tracer acquisitions in the local cache that
// can serve as scanner calibrations.
package calibrate

import (
	"context"
	"log"
	"math"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/ccir/xnatpet/pkg/interfile"
	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxDuration bounds the length of a calibration acquisition.
	DefaultMaxDuration = 900 * time.Second
	// DefaultMaxSize bounds the listmode data of a calibration.
	DefaultMaxSize = int64(1e9)
)

// DefaultFrom is the earliest acquisition date considered.
var DefaultFrom = time.Date(2016, 7, 18, 0, 0, 0, 0, time.Local)

// Finder selects calibration candidates among the staged sessions of a project.
type Finder struct {
	FS      billy.Filesystem
	Project string
	Tracers []classify.Tracer
	// From and To bound acquisition dates. Zero values mean DefaultFrom and now.
	From, To    time.Time
	MaxDuration time.Duration
	// CheckSize additionally requires the .bf data to be smaller than MaxSize.
	CheckSize  bool
	MaxSize    int64
	Logger     *log.Logger
	ReadHeader func(fs billy.Filesystem, p string) (*dicomx.Header, error)
}

// Result holds the selected tracer locations and the problems met on the way.
type Result struct {
	Locations []string
	Warnings  []error
}

func (f *Finder) logf(format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (f *Finder) warn(r *Result, err error) {
	f.logf("Warning: %v", err)
	r.Warnings = append(r.Warnings, err)
}

// Locate walks every experiment of the project and keeps the tracer
// locations whose date and duration, and optionally size, are consistent
// with a calibration.
func (f *Finder) Locate(ctx context.Context) (*Result, error) {
	r := &Result{}
	exps, err := f.Experiments()
	if err != nil {
		return nil, err
	}
	for _, e := range exps {
		locs, err := f.TracerLocations(e)
		if err != nil {
			f.warn(r, err)
			continue
		}
		for _, loc := range locs {
			if err := ctx.Err(); err != nil {
				return r, err
			}
			ok, err := f.consistent(loc)
			if err != nil {
				f.warn(r, errors.Wrapf(err, "checking %s", loc))
				continue
			}
			if ok {
				r.Locations = append(r.Locations, loc)
			}
		}
	}
	return r, nil
}

func (f *Finder) consistent(loc string) (bool, error) {
	if ok, err := f.ConsistentDate(loc); err != nil || !ok {
		return false, err
	}
	d, err := f.Duration(loc)
	if err != nil {
		return false, err
	}
	limit := f.MaxDuration
	if limit == 0 {
		limit = DefaultMaxDuration
	}
	if d >= limit {
		return false, nil
	}
	if f.CheckSize {
		return f.ConsistentSize(loc)
	}
	return true, nil
}

// Experiments lists the session directories of the project, flat or under subjects.
func (f *Finder) Experiments() ([]string, error) {
	var out []string
	for _, pattern := range []string{
		path.Join(f.Project, layout.SessionPrefix+"*"),
		path.Join(f.Project, layout.SubjectPrefix+"*", layout.SessionPrefix+"*"),
	} {
		m, err := util.Glob(f.FS, pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", pattern)
		}
		for _, p := range m {
			if fi, err := f.FS.Stat(p); err == nil && fi.IsDir() {
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// TracerLocations lists <TRACER>_DT*.*-Converted-*AC directories of an experiment.
func (f *Finder) TracerLocations(exp string) ([]string, error) {
	tracers := f.Tracers
	if len(tracers) == 0 {
		tracers = []classify.Tracer{classify.FDG}
	}
	var out []string
	for _, t := range tracers {
		label, err := t.Label()
		if err != nil {
			return nil, err
		}
		m, err := util.Glob(f.FS, path.Join(exp, strings.ToUpper(label)+"_DT*.*-Converted-*AC"))
		if err != nil {
			return nil, err
		}
		out = append(out, m...)
	}
	return out, nil
}

var datePattern = regexp.MustCompile(`\w+_DT(\d+).(\d+)\w*`)

// AcquisitionTime parses the timestamp encoded in a tracer location name.
func AcquisitionTime(loc string) (time.Time, error) {
	m := datePattern.FindStringSubmatch(path.Base(loc))
	if m == nil {
		return time.Time{}, errors.Errorf("no timestamp in %q", path.Base(loc))
	}
	t, err := time.ParseInLocation("20060102150405", m[1], time.Local)
	return t, errors.Wrapf(err, "parsing timestamp of %q", path.Base(loc))
}

// ConsistentDate reports whether loc was acquired within [From, To].
func (f *Finder) ConsistentDate(loc string) (bool, error) {
	t, err := AcquisitionTime(loc)
	if err != nil {
		return false, err
	}
	from, to := f.From, f.To
	if from.IsZero() {
		from = DefaultFrom
	}
	if to.IsZero() {
		to = time.Now()
	}
	return !t.Before(from) && !t.After(to), nil
}

// listmode returns the last LM/*.dcm of loc; earlier ones may have been aborted.
func (f *Finder) listmode(loc string) (string, error) {
	m, err := util.Glob(f.FS, path.Join(loc, layout.LMDir, "*.dcm"))
	if err != nil {
		return "", err
	}
	if len(m) == 0 {
		return "", errors.Errorf("%s has no listmode", loc)
	}
	sort.Strings(m)
	return m[len(m)-1], nil
}

// Duration returns the acquisition length of the last listmode file of loc,
// preferring its embedded Interfile header over DICOM timestamps.
func (f *Finder) Duration(loc string) (time.Duration, error) {
	dcm, err := f.listmode(loc)
	if err != nil {
		return 0, err
	}
	b, err := util.ReadFile(f.FS, dcm)
	if err != nil {
		return 0, err
	}
	if h, err := interfile.ParseEmbedded(b); err == nil {
		if secs, err := h.ImageDuration(); err == nil && secs > 0 {
			return seconds(secs), nil
		}
	}
	if secs, err := interfile.SearchImageDuration(b); err == nil && secs > 0 {
		return seconds(float64(secs)), nil
	}
	read := f.ReadHeader
	if read == nil {
		read = dicomx.ReadFile
	}
	h, err := read(f.FS, dcm)
	if err != nil {
		return 0, errors.Wrap(err, "no interfile duration and unreadable DICOM")
	}
	t0, err := parseTM(h.AcquisitionTime)
	if err != nil {
		return 0, errors.Wrap(err, "AcquisitionTime")
	}
	t1, err := parseTM(h.InstanceCreationTime)
	if err != nil {
		return 0, errors.Wrap(err, "InstanceCreationTime")
	}
	return t1 - t0, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// parseTM parses a DICOM TM value, hhmmss with optional fraction, as an offset from midnight.
func parseTM(s string) (time.Duration, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if len(whole) != 6 {
		return 0, errors.Errorf("malformed time %q", s)
	}
	t, err := time.Parse("150405", whole)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed time %q", s)
	}
	d := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
	if frac != "" {
		v, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "malformed time %q", s)
		}
		d += seconds(v)
	}
	return d, nil
}

// ConsistentSize reports whether the .bf data of the last listmode file is below MaxSize.
func (f *Finder) ConsistentSize(loc string) (bool, error) {
	dcm, err := f.listmode(loc)
	if err != nil {
		return false, err
	}
	fi, err := f.FS.Stat(classify.BFName(dcm))
	if err != nil {
		return false, err
	}
	limit := f.MaxSize
	if limit == 0 {
		limit = DefaultMaxSize
	}
	return fi.Size() < limit, nil
}
