// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/internal/command/common"
	"github.com/ccir/xnatpet/pkg/convert"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the convert command.
type Config struct {
	Archive     common.ArchiveFlags
	Session     string
	DICOMDir    string
	NIFTIDir    string
	Overwrite   bool
	NII         bool
	Gzip        bool
	Converter   string
	ArchiveRoot string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	switch {
	case c.Session == "":
		return errors.New("session is required")
	case c.DICOMDir == "":
		return errors.New("dicomdir is required")
	case c.NIFTIDir == "":
		return errors.New("niftidir is required")
	}
	return nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO        cli.IO
	Converter *convert.Converter
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps. The working directories are resolved to
// absolute paths so the converter sees the same files.
func InitDeps(ctx context.Context, cfg Config) (*Deps, error) {
	settings, err := cfg.Archive.LoadSettings()
	if err != nil {
		return nil, err
	}
	dicomDir, err := filepath.Abs(cfg.DICOMDir)
	if err != nil {
		return nil, err
	}
	niftiDir, err := filepath.Abs(cfg.NIFTIDir)
	if err != nil {
		return nil, err
	}
	c := &convert.Converter{
		Archive:   common.Client(settings),
		FS:        osfs.New("/"),
		DICOMDir:  dicomDir,
		NIFTIDir:  niftiDir,
		Executor:  convert.NewRealCommandExecutor(),
		Command:   cfg.Converter,
		Overwrite: cfg.Overwrite,
		NII:       cfg.NII,
		Gzip:      cfg.Gzip,
	}
	if cfg.ArchiveRoot != "" {
		c.Local = osfs.New(cfg.ArchiveRoot)
	}
	return &Deps{Converter: c}, nil
}

// Handler contains the business logic for the convert command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*common.Summary, error) {
	c := deps.Converter
	c.Logger = deps.IO.Logger()
	c.Output = deps.IO.Err
	rep, err := c.ConvertSession(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	return &common.Summary{Verb: "Uploaded", Items: rep.Uploaded, Warnings: rep.Warnings}, nil
}

// Command creates a new convert command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "convert --session <ID> --dicomdir <dir> --niftidir <dir> [--overwrite] [--nii] [--gzip] [--converter dcm2nii]",
		Short: "Convert every scan of a session to NIfTI and upload the results",
		Args:  cobra.NoArgs,
		RunE: cli.RunE(
			&cfg,
			cli.SkipArgs[Config],
			InitDeps,
			Handler,
		),
	}
	cmd.Flags().AddGoFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

// flagSet returns the command-line flags for the Config struct.
func flagSet(name string, cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.Archive.Register(set)
	set.StringVar(&cfg.Session, "session", "", "the experiment to convert")
	set.StringVar(&cfg.DICOMDir, "dicomdir", "", "working directory for downloaded DICOM files")
	set.StringVar(&cfg.NIFTIDir, "niftidir", "", "working directory for converter output")
	set.BoolVar(&cfg.Overwrite, "overwrite", false, "replace existing NIFTI resources")
	set.BoolVar(&cfg.NII, "nii", true, "write .nii files rather than .hdr/.img pairs")
	set.BoolVar(&cfg.Gzip, "gzip", true, "compress .nii output")
	set.StringVar(&cfg.Converter, "converter", convert.DefaultCommand, "the DICOM to NIfTI converter")
	set.StringVar(&cfg.ArchiveRoot, "archive-root", "/", "where archive absolute paths resolve on this host; empty disables local copies")
	return set
}
