// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package stage retrieves PET sessions from an XNAT archive into the local
// cache layout and sorts their raw data by tracer.
package stage

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
)

var (
	// ErrNoCT is reported for sessions without a head CT.
	ErrNoCT = errors.New("no head CT")
	// ErrNoUmap is reported for sessions without an attenuation map.
	ErrNoUmap = errors.New("no umap")
)

const (
	dicomResource   = "DICOM"
	rawdataResource = "RawData"
)

// HeaderReader reads a DICOM header from a file in fs.
type HeaderReader func(fs billy.Filesystem, p string) (*dicomx.Header, error)

// Stager stages sessions of one project into a cache filesystem.
type Stager struct {
	Archive xnat.Connector
	// FS is rooted at the cache directory.
	FS billy.Filesystem
	// Local exposes the archive server's storage for files whose absolutePath
	// is readable from this host. Nil disables local copies.
	Local           billy.Filesystem
	Project         string
	Tracers         []classify.Tracer
	UmapDescription string
	CTScan          string
	// AllScans stages every scan of a session rather than only the first.
	AllScans bool
	Gate     Gate
	Sleep    time.Duration
	// Progress receives download progress bars when set.
	Progress   io.Writer
	Logger     *log.Logger
	ReadHeader HeaderReader
}

func (s *Stager) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (s *Stager) header(p string) (*dicomx.Header, error) {
	if s.ReadHeader != nil {
		return s.ReadHeader(s.FS, p)
	}
	return dicomx.ReadFile(s.FS, p)
}

func (s *Stager) tracers() []classify.Tracer {
	if len(s.Tracers) == 0 {
		return classify.DefaultTracers
	}
	return s.Tracers
}

func (s *Stager) ctScan() string {
	if s.CTScan == "" {
		return "2"
	}
	return s.CTScan
}

// withSession runs fn with a fresh archive session and always expires it.
func (s *Stager) withSession(ctx context.Context, fn func(xnat.ArchiveSession) error) (err error) {
	a, err := s.Archive.Connect(ctx)
	if err != nil {
		return errors.Wrap(err, "connecting to archive")
	}
	defer func() {
		// Expire even when ctx was cancelled.
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil {
			s.logf("Warning: expiring session: %v", cerr)
		}
	}()
	return fn(a)
}

// Report summarizes a staging run.
type Report struct {
	Staged   []string
	Warnings []error
}

func (r *Report) warn(s *Stager, err error) {
	s.logf("Warning: %v", err)
	r.Warnings = append(r.Warnings, err)
}

func (r *Report) add(paths ...string) {
	r.Staged = append(r.Staged, paths...)
}
