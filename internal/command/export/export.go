// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/internal/command/common"
	"github.com/ccir/xnatpet/internal/config"
	"github.com/ccir/xnatpet/pkg/layout"
	"github.com/ccir/xnatpet/pkg/mirror"
	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the export command.
type Config struct {
	ConfigPath  string
	CacheDir    string
	Project     string
	Subject     string
	Session     string
	Destination string
	Progress    bool
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Project == "" {
		return errors.New("project is required")
	}
	if c.Destination == "" {
		return errors.New("destination is required")
	}
	if c.Subject != "" && c.Session == "" {
		return errors.New("subject requires session")
	}
	return nil
}

// root is the cache directory exported: a session, or the whole project.
func (c Config) root() string {
	if c.Session == "" {
		return c.Project
	}
	return layout.Session{Project: c.Project, Subject: c.Subject, Experiment: c.Session}.Dir()
}

// Deps holds dependencies for the command.
type Deps struct {
	IO    cli.IO
	FS    billy.Filesystem
	Store mirror.Store
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
	store, err := mirror.Open(ctx, cfg.Destination)
	if err != nil {
		return nil, err
	}
	return &Deps{FS: fs, Store: store}, nil
}

// Exported reports a finished export.
type Exported struct {
	mirror.Result
	URL string
}

func (e *Exported) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Exported %d files (%d bytes) to %s\n", e.Files, e.Bytes, e.URL)
	return err
}

// Handler contains the business logic for the export command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*Exported, error) {
	defer deps.Store.Close()
	root := cfg.root()
	if _, err := deps.FS.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "finding %s in the cache", root)
	}
	var progress io.Writer
	if cfg.Progress {
		progress = deps.IO.Err
	}
	deps.IO.Logger().Printf("Exporting %s to %s", root, deps.Store.URL(root))
	res, err := mirror.Mirror(ctx, deps.FS, root, deps.Store, progress)
	if err != nil {
		return nil, err
	}
	return &Exported{Result: *res, URL: deps.Store.URL(root).String()}, nil
}

// Command creates a new export command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "export --project <ID> --destination <gs://bucket/prefix|dir> [--session <ID> [--subject <label>]] [--cachedir <dir>] [--progress]",
		Short: "Copy staged data to a directory or GCS bucket",
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
	set.StringVar(&cfg.Subject, "subject", "", "the subject label, when sessions are nested by subject")
	set.StringVar(&cfg.Session, "session", "", "export only this experiment")
	set.StringVar(&cfg.Destination, "destination", "", "the destination for the export, e.g. gs://bucket/prefix")
	set.BoolVar(&cfg.Progress, "progress", false, "show a progress bar")
	return set
}
