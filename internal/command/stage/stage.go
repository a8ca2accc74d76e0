// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"context"
	"flag"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/internal/command/common"
	"github.com/ccir/xnatpet/pkg/stage"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the stage command.
type Config struct {
	Archive     common.ArchiveFlags
	CacheDir    string
	Project     string
	Subject     string
	Session     string
	Constraints string
	Modality    string
	Tracers     string
	AllScans    bool
	Progress    bool
	// ArchiveRoot is where archive absolute paths resolve on this host.
	ArchiveRoot string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Project == "" {
		return errors.New("project is required")
	}
	n := 0
	for _, s := range []string{c.Subject, c.Session, c.Constraints} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return errors.New("at most one of subject, session and constraints may be set")
	}
	if c.Constraints != "" {
		if _, err := xnat.ParseConstraints(c.Constraints); err != nil {
			return errors.Wrap(err, "parsing constraints")
		}
	}
	return nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO     cli.IO
	Stager *stage.Stager
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
func InitDeps(ctx context.Context, cfg Config) (*Deps, error) {
	settings, err := cfg.Archive.LoadSettings()
	if err != nil {
		return nil, err
	}
	dir := cfg.CacheDir
	if dir == "" {
		dir = settings.CacheDir
	}
	fs, err := common.CacheFS(dir)
	if err != nil {
		return nil, err
	}
	tracers, err := common.Tracers(cfg.Tracers, settings)
	if err != nil {
		return nil, err
	}
	s := &stage.Stager{
		Archive:         common.Client(settings),
		FS:              fs,
		Project:         cfg.Project,
		Tracers:         tracers,
		UmapDescription: settings.UmapDescription,
		CTScan:          settings.CTScan,
		AllScans:        cfg.AllScans,
		Sleep:           settings.Sleep,
	}
	if cfg.ArchiveRoot != "" {
		s.Local = osfs.New(cfg.ArchiveRoot)
	}
	return &Deps{Stager: s}, nil
}

// Handler contains the business logic for the stage command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*common.Summary, error) {
	s := deps.Stager
	s.Logger = deps.IO.Logger()
	if cfg.Progress {
		s.Progress = deps.IO.Err
	}
	var rep *stage.Report
	var err error
	switch {
	case cfg.Constraints != "":
		var c xnat.Constraints
		c, err = xnat.ParseConstraints(cfg.Constraints)
		if err != nil {
			return nil, err
		}
		rep, err = s.StageConstraints(ctx, c, cfg.Modality)
	case cfg.Session != "":
		rep, err = s.StageSession(ctx, cfg.Session)
	case cfg.Subject != "":
		rep, err = s.StageSubject(ctx, cfg.Subject)
	default:
		rep, err = s.StageProject(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &common.Summary{Verb: "Staged", Items: rep.Staged, Warnings: rep.Warnings}, nil
}

// Command creates a new stage command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "stage --project <ID> [--cachedir <dir>] [--subject <ID> | --session <ID> | --constraints <list>] [--modality pet] [--tracers HO,OC,OO] [--all-scans] [--progress]",
		Short: "Stage PET sessions from XNAT into the local cache",
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
	set.StringVar(&cfg.CacheDir, "cachedir", "", "the local cache root (default from the config file)")
	set.StringVar(&cfg.Project, "project", "", "the XNAT project, e.g. CCIR_00754")
	set.StringVar(&cfg.Subject, "subject", "", "stage only the sessions of this subject")
	set.StringVar(&cfg.Session, "session", "", "stage only this experiment, e.g. CNDA_E248568")
	set.StringVar(&cfg.Constraints, "constraints", "", "stage the search hits of a constraint list, e.g. \"[('xnat:petSessionData/DATE', '>', '2018-01-01')]\"")
	set.StringVar(&cfg.Modality, "modality", "pet", "the session modality searched with --constraints")
	set.StringVar(&cfg.Tracers, "tracers", "", "comma-separated tracers to stage (default HO,OC,OO)")
	set.BoolVar(&cfg.AllScans, "all-scans", false, "stage every scan rather than only the first")
	set.BoolVar(&cfg.Progress, "progress", false, "show download progress bars")
	set.StringVar(&cfg.ArchiveRoot, "archive-root", "/", "where archive absolute paths resolve on this host; empty disables local copies")
	return set
}
