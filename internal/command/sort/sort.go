// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package sort

import (
	"context"
	"flag"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/internal/command/common"
	"github.com/ccir/xnatpet/internal/config"
	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/ccir/xnatpet/pkg/stage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the sort command.
type Config struct {
	ConfigPath string
	CacheDir   string
	Project    string
	Subject    string
	Session    string
	Tracers    string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Project == "" {
		return errors.New("project is required")
	}
	if c.Session == "" {
		return errors.New("session is required")
	}
	return nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO     cli.IO
	Stager *stage.Stager
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps. Sorting works on the cache alone, so no
// archive credentials are needed.
func InitDeps(ctx context.Context, cfg Config) (*Deps, error) {
	settings, err := common.LoadConfig(cfg.ConfigPath)
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
	return &Deps{Stager: &stage.Stager{FS: fs, Project: cfg.Project, Tracers: tracers}}, nil
}

// Handler contains the business logic for the sort command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*common.Summary, error) {
	deps.Stager.Logger = deps.IO.Logger()
	ses := layout.Session{Project: cfg.Project, Subject: cfg.Subject, Experiment: cfg.Session}
	rep, err := deps.Stager.SortSession(ctx, ses)
	if err != nil {
		return nil, err
	}
	return &common.Summary{Verb: "Sorted", Items: rep.Staged, Warnings: rep.Warnings}, nil
}

// Command creates a new sort command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "sort --project <ID> --session <ID> [--subject <label>] [--cachedir <dir>] [--tracers HO,OC,OO]",
		Short: "Sort already staged raw data into tracer directories",
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
	set.StringVar(&cfg.ConfigPath, "config", config.DefaultPath(), "the YAML configuration file")
	set.StringVar(&cfg.CacheDir, "cachedir", "", "the local cache root (default from the config file)")
	set.StringVar(&cfg.Project, "project", "", "the XNAT project")
	set.StringVar(&cfg.Subject, "subject", "", "the subject label, when sessions are nested by subject")
	set.StringVar(&cfg.Session, "session", "", "the experiment whose rawdata directory is sorted")
	set.StringVar(&cfg.Tracers, "tracers", "", "comma-separated tracers to sort (default HO,OC,OO)")
	return set
}
