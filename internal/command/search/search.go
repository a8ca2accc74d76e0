// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"encoding/csv"
	"flag"
	"io"

	"github.com/ccir/xnatpet/internal/act/cli"
	"github.com/ccir/xnatpet/internal/command/common"
	"github.com/ccir/xnatpet/pkg/stage"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config holds all configuration for the search command.
type Config struct {
	Archive     common.ArchiveFlags
	Project     string
	Constraints string
	Modality    string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.Constraints == "" {
		return errors.New("constraints are required")
	}
	_, err := xnat.ParseConstraints(c.Constraints)
	return errors.Wrap(err, "parsing constraints")
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
	return &Deps{Stager: &stage.Stager{Archive: common.Client(settings), Project: cfg.Project}}, nil
}

// Hits is printed as CSV with a session_id,date header.
type Hits []stage.Hit

func (h *Hits) Print(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"session_id", "date"})
	for _, hit := range *h {
		cw.Write([]string{hit.SessionID, hit.Date})
	}
	cw.Flush()
	return cw.Error()
}

// scoped restricts c to sessions of project.
func scoped(c xnat.Constraints, modality, project string) xnat.Constraints {
	if project == "" {
		return c
	}
	if modality == "" {
		modality = "pet"
	}
	out := xnat.Constraints{
		Method:   "AND",
		Criteria: []xnat.Constraint{{Field: "xnat:" + modality + "SessionData/PROJECT", Op: "=", Value: project}},
	}
	if !c.Empty() {
		out.Groups = []xnat.Constraints{c}
	}
	return out
}

// Handler contains the business logic for the search command.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*Hits, error) {
	deps.Stager.Logger = deps.IO.Logger()
	c, err := xnat.ParseConstraints(cfg.Constraints)
	if err != nil {
		return nil, err
	}
	hits, err := deps.Stager.Search(ctx, scoped(c, cfg.Modality, cfg.Project), cfg.Modality)
	if err != nil {
		return nil, err
	}
	out := Hits(hits)
	return &out, nil
}

// Command creates a new search command instance.
func Command() *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "search --constraints <list> [--project <ID>] [--modality pet]",
		Short: "List the sessions matching search constraints as CSV",
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
	set.StringVar(&cfg.Project, "project", "", "restrict hits to this project")
	set.StringVar(&cfg.Constraints, "constraints", "", "a constraint list, e.g. \"[('xnat:petSessionData/DATE', '>', '2018-01-01')]\"")
	set.StringVar(&cfg.Modality, "modality", "pet", "the session modality searched")
	return set
}
