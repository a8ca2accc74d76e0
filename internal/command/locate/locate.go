// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package locate

import (
	"context"
	"flag"
	"time"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/internal/command/common"
	"github.com/ccir/xnatpet/internal/config"
	"github.com/ccir/xnatpet/pkg/calibrate"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// Config holds all configuration for the locate command.
type Config struct {
	ConfigPath string
	CacheDir   string
	Project    string
	Tracers    string
	From       string
	To         string
	CheckSize  bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Project == "" {
		return errors.New("project is required")
	}
	if _, err := classify.ParseTracers(c.Tracers); err != nil {
		return err
	}
	from, to, err := c.window()
	if err != nil {
		return err
	}
	if !to.IsZero() && to.Before(from) {
		return errors.New("to precedes from")
	}
	return nil
}

func (c Config) window() (from, to time.Time, err error) {
	from = calibrate.DefaultFrom
	if c.From != "" {
		if from, err = time.ParseInLocation(dateLayout, c.From, time.Local); err != nil {
			return from, to, errors.Wrap(err, "parsing from")
		}
	}
	if c.To != "" {
		if to, err = time.ParseInLocation(dateLayout, c.To, time.Local); err != nil {
			return from, to, errors.Wrap(err, "parsing to")
		}
		// Inclusive of the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO     cli.IO
	Finder *calibrate.Finder
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
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
	tracers, err := classify.ParseTracers(cfg.Tracers)
	if err != nil {
		return nil, err
	}
	from, to, err := cfg.window()
	if err != nil {
		return nil, err
	}
	return &Deps{Finder: &calibrate.Finder{
		FS:        fs,
		Project:   cfg.Project,
		Tracers:   tracers,
		From:      from,
		To:        to,
		CheckSize: cfg.CheckSize,
	}}, nil
}

// Handler contains the business logic for the locate command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*common.Summary, error) {
	deps.Finder.Logger = deps.IO.Logger()
	res, err := deps.Finder.Locate(ctx)
	if err != nil {
		return nil, err
	}
	return &common.Summary{Verb: "Located", Items: res.Locations, Warnings: res.Warnings}, nil
}

// Command creates a new locate command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "locate --project <ID> [--cachedir <dir>] [--tracers FDG] [--from 2016-07-18] [--to <date>] [--check-size]",
		Short: "Locate staged tracer data suitable for calibration",
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
	set.StringVar(&cfg.Project, "project", "", "the project directory in the cache")
	set.StringVar(&cfg.Tracers, "tracers", "FDG", "comma-separated tracers to consider")
	set.StringVar(&cfg.From, "from", calibrate.DefaultFrom.Format(dateLayout), "earliest acquisition date, YYYY-MM-DD")
	set.StringVar(&cfg.To, "to", "", "latest acquisition date, YYYY-MM-DD (default today)")
	set.BoolVar(&cfg.CheckSize, "check-size", false, "also require listmode data below 1 GB")
	return set
}
