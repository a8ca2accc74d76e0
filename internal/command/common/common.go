// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package common holds the flags and dependency wiring shared by the
// xnatpet subcommands.
package common

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccir/xnatpet/internal/config"
	"github.com/ccir/xnatpet/internal/httpx"
	"github.com/ccir/xnatpet/internal/ratex"
	"github.com/ccir/xnatpet/pkg/classify"
	"github.com/ccir/xnatpet/pkg/xnat"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
)

// ArchiveFlags are the connection settings accepted by every archive command.
// Set values win over the config file, which wins over the environment.
type ArchiveFlags struct {
	ConfigPath string
	Host       string
	User       string
	Password   string
	Insecure   bool
}

// Register adds the flags to set.
func (f *ArchiveFlags) Register(set *flag.FlagSet) {
	set.StringVar(&f.ConfigPath, "config", config.DefaultPath(), "the YAML configuration file")
	set.StringVar(&f.Host, "host", "", "the XNAT host, e.g. "+config.DefaultHost)
	set.StringVar(&f.User, "user", "", "the XNAT user (default $CNDA_UID)")
	set.StringVar(&f.Password, "password", "", "the XNAT password (default $CNDA_PWD)")
	set.BoolVar(&f.Insecure, "insecure", false, "skip TLS certificate verification")
}

// Settings loads the config file from fs and applies the flags and environment.
// The default config path may be absent.
func (f ArchiveFlags) Settings(fs billy.Filesystem, getenv func(string) string) (config.Config, error) {
	cfg, err := config.Load(fs, f.ConfigPath, f.ConfigPath == config.DefaultPath())
	if err != nil {
		return cfg, err
	}
	return f.apply(cfg, getenv)
}

// LoadSettings is Settings against the host filesystem and environment.
func (f ArchiveFlags) LoadSettings() (config.Config, error) {
	cfg, err := LoadConfig(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return f.apply(cfg, os.Getenv)
}

func (f ArchiveFlags) apply(cfg config.Config, getenv func(string) string) (config.Config, error) {
	cfg.Override(config.Config{Host: f.Host, User: f.User, Password: f.Password, Insecure: f.Insecure})
	cfg.ApplyEnv(getenv)
	return cfg, errors.Wrap(cfg.Validate(), "invalid settings")
}

// LoadConfig reads the config file at p from the host filesystem.
// The default config path may be absent.
func LoadConfig(p string) (config.Config, error) {
	optional := p == config.DefaultPath()
	if p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return config.Config{}, err
		}
		p = abs
	}
	return config.Load(osfs.New("/"), p, optional)
}

// Client builds the archive client described by cfg.
func Client(cfg config.Config) *xnat.Client {
	var c httpx.BasicClient = httpx.NewClient(cfg.Insecure, 0)
	if cfg.RequestInterval > 0 {
		c = &httpx.WithBackoff{BasicClient: c, Limiter: ratex.NewBackoffLimiter(cfg.RequestInterval)}
	}
	if cfg.UserAgent != "" {
		c = &httpx.WithUserAgent{BasicClient: c, UserAgent: cfg.UserAgent}
	}
	return &xnat.Client{
		Host:     strings.TrimRight(cfg.Host, "/"),
		HTTP:     c,
		User:     cfg.User,
		Password: cfg.Password,
	}
}

// Tracers resolves a comma-separated tracer flag, falling back to the
// configured tracers and then the built-in defaults.
func Tracers(flagValue string, cfg config.Config) ([]classify.Tracer, error) {
	if flagValue == "" && len(cfg.Tracers) > 0 {
		flagValue = strings.Join(cfg.Tracers, ",")
	}
	return classify.ParseTracers(flagValue)
}

// CacheFS opens the cache directory, creating it if needed.
func CacheFS(dir string) (billy.Filesystem, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	fs := osfs.New(dir)
	if err := fs.MkdirAll(".", 0755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return fs, nil
}
