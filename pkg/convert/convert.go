// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package convert converts the DICOM scans of an archive session to NIfTI
// with an external converter and uploads the results as scan resources.
package convert

import (
	"context"
	"io"
	"log"
	"path"
	"path/filepath"
	"sort"

	"github.com/ccir/xnatpet/internal/billyx"
	"github.com/ccir/xnatpet/internal/dicomx"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

const (
	// DefaultCommand is the converter run when none is configured.
	DefaultCommand = "dcm2nii"

	dicomResource = "DICOM"
	niftiResource = "NIFTI"
	niftiFormat   = "NIFTI"
	niftiContent  = "NIFTI_RAW"
)

// Converter converts every scan of a session.
type Converter struct {
	Archive xnat.Connector
	// FS holds DICOMDir and NIFTIDir. The converter command is given
	// paths under FS.Root(), so FS must be backed by the host filesystem.
	FS billy.Filesystem
	// Local exposes the archive server's storage. Nil disables local copies.
	Local    billy.Filesystem
	DICOMDir string
	NIFTIDir string
	Executor CommandExecutor
	Command  string
	// Overwrite replaces existing NIFTI resources.
	Overwrite bool
	// NII writes a single .nii file instead of an .hdr/.img pair.
	NII  bool
	Gzip bool
	// Output receives the converter's stdout and stderr.
	Output     io.Writer
	Logger     *log.Logger
	ReadHeader func(fs billy.Filesystem, p string) (*dicomx.Header, error)
}

// Report summarizes a conversion run.
type Report struct {
	Converted []string
	Uploaded  []string
	Skipped   []string
	Warnings  []error
}

// skip is a reason for leaving a scan alone. It is not a failure.
type skip string

func (s skip) Error() string { return string(s) }

func (c *Converter) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (c *Converter) header(p string) (*dicomx.Header, error) {
	if c.ReadHeader != nil {
		return c.ReadHeader(c.FS, p)
	}
	return dicomx.ReadFile(c.FS, p)
}

func (c *Converter) command() string {
	if c.Command == "" {
		return DefaultCommand
	}
	return c.Command
}

func (c *Converter) hostPath(p string) string {
	return filepath.Join(c.FS.Root(), filepath.FromSlash(p))
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

// args builds the converter command line. Reorientation and cropping are off.
func (c *Converter) args(out string, inputs []string) []string {
	args := []string{"-a", "y", "-g", yesNo(c.Gzip), "-n", yesNo(c.NII), "-r", "n", "-x", "n", "-o", out}
	return append(args, inputs...)
}

// ConvertSession converts each scan of experiment using a single archive session.
// Per-scan failures are recorded as warnings.
func (c *Converter) ConvertSession(ctx context.Context, experiment string) (*Report, error) {
	bin, err := c.Executor.LookPath(c.command())
	if err != nil {
		return nil, errors.Wrapf(err, "locating %s", c.command())
	}
	for _, dir := range []string{c.DICOMDir, c.NIFTIDir} {
		if err := c.FS.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", dir)
		}
	}
	a, err := c.Archive.Connect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to archive")
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil {
			c.logf("Warning: expiring session: %v", cerr)
		}
	}()
	scans, err := a.Scans(ctx, experiment, "*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(scans))
	for _, sc := range scans {
		ids = append(ids, sc.ID)
	}
	c.logf("Found scans %v of %s", ids, experiment)
	rep := &Report{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		c.logf("Converting scan %s", id)
		uploaded, err := c.convertScan(ctx, a, bin, experiment, id)
		var s skip
		switch {
		case errors.As(err, &s):
			c.logf("Skipping scan %s: %s", id, s)
			rep.Skipped = append(rep.Skipped, id)
		case err != nil:
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			err = errors.Wrapf(err, "scan %s", id)
			c.logf("Warning: %v", err)
			rep.Warnings = append(rep.Warnings, err)
		default:
			rep.Converted = append(rep.Converted, id)
			rep.Uploaded = append(rep.Uploaded, uploaded...)
		}
	}
	return rep, nil
}

func (c *Converter) convertScan(ctx context.Context, a xnat.Archive, bin, experiment, scan string) ([]string, error) {
	resources, err := a.ScanResources(ctx, experiment, scan)
	if err != nil {
		return nil, err
	}
	var hasNifti bool
	var dicoms []xnat.Resource
	for _, r := range resources {
		switch r.Label {
		case niftiResource:
			hasNifti = true
		case dicomResource:
			dicoms = append(dicoms, r)
		}
	}
	switch {
	case hasNifti && !c.Overwrite:
		return nil, skip("NIFTI resource exists")
	case len(dicoms) == 0:
		return nil, skip("no DICOM resource")
	case len(dicoms) > 1:
		return nil, skip("more than one DICOM resource")
	case dicoms[0].FileCount == 0:
		return nil, skip("DICOM resource has no files")
	}
	dcmDir := path.Join(c.DICOMDir, scan)
	if err := billyx.Clear(c.FS, dcmDir); err != nil {
		return nil, errors.Wrapf(err, "clearing %s", dcmDir)
	}
	inputs, err := c.download(ctx, a, experiment, scan, dcmDir)
	if err != nil {
		if rerr := util.RemoveAll(c.FS, dcmDir); rerr != nil {
			c.logf("Warning: removing %s: %v", dcmDir, rerr)
		}
		return nil, err
	}
	outDir := path.Join(c.NIFTIDir, scan)
	if err := billyx.Clear(c.FS, outDir); err != nil {
		return nil, errors.Wrapf(err, "clearing %s", outDir)
	}
	hostInputs := make([]string, len(inputs))
	for i, p := range inputs {
		hostInputs[i] = c.hostPath(p)
	}
	if err := c.Executor.Execute(ctx, CommandOptions{Output: c.Output}, bin, c.args(c.hostPath(outDir), hostInputs)...); err != nil {
		return nil, errors.Wrap(err, "converting")
	}
	outputs, err := c.outputs(outDir)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, errors.Errorf("%s produced no output", c.command())
	}
	if hasNifti {
		c.logf("Deleting existing NIFTI resource of scan %s", scan)
		if err := a.DeleteScanResource(ctx, experiment, scan, niftiResource); err != nil {
			return nil, errors.Wrap(err, "skipping upload")
		}
	}
	var uploaded []string
	for _, p := range outputs {
		if err := c.upload(ctx, a, experiment, scan, p); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, path.Join(scan, path.Base(p)))
	}
	return uploaded, errors.Wrapf(billyx.Clear(c.FS, dcmDir), "cleaning %s", dcmDir)
}

// download fetches the scan's DICOM files into dir. The first file is
// checked before the rest are fetched so secondary captures cost one file.
func (c *Converter) download(ctx context.Context, a xnat.Archive, experiment, scan, dir string) ([]string, error) {
	files, err := a.ScanFiles(ctx, experiment, scan, dicomResource, "*")
	if err != nil {
		return nil, err
	}
	var out []string
	for i, f := range files {
		dst := path.Join(dir, f.Name)
		if err := c.fetch(ctx, a, f, dst); err != nil {
			return nil, errors.Wrapf(err, "fetching %s", f.Name)
		}
		out = append(out, dst)
		if i != 0 {
			continue
		}
		h, err := c.header(dst)
		if err != nil || h.Modality == "" {
			return nil, skip("cannot read modality of " + f.Name)
		}
		if classify.IsSecondaryCapture(h.Modality) {
			return nil, skip("secondary capture")
		}
	}
	c.logf("Fetched %d files of scan %s", len(out), scan)
	return out, nil
}

func (c *Converter) fetch(ctx context.Context, a xnat.Archive, f xnat.File, dst string) error {
	if c.Local != nil && f.AbsolutePath != "" && billyx.Exists(c.Local, f.AbsolutePath) {
		if _, err := billyx.CopyFile(c.FS, dst, c.Local, f.AbsolutePath); err == nil {
			return nil
		}
	}
	rc, err := a.Download(ctx, f)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = billyx.WriteAtomic(c.FS, dst, rc)
	return err
}

// outputs lists the regular files the converter left in dir.
func (c *Converter) outputs(dir string) ([]string, error) {
	entries, err := c.FS.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.Mode().IsRegular() {
			out = append(out, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *Converter) upload(ctx context.Context, a xnat.Archive, experiment, scan, p string) error {
	f, err := c.FS.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	name := path.Base(p)
	c.logf("Uploading %s for scan %s", name, scan)
	return a.Upload(ctx, xnat.Upload{
		Experiment: experiment,
		Scan:       scan,
		Resource:   niftiResource,
		Name:       name,
		Format:     niftiFormat,
		Content:    niftiContent,
		Body:       f,
	})
}
