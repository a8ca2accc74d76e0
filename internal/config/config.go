// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package config loads xnatpet settings from a YAML file and the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHost is the archive contacted when none is configured.
	DefaultHost = "https://cnda.wustl.edu"
	// DefaultUmapDescription identifies the MR-based attenuation maps.
	DefaultUmapDescription = "Head_MRAC_Brain_HiRes_in_UMAP"
	// DefaultCTScan is the scan that holds a head CT when one was acquired.
	DefaultCTScan = "2"
	// DefaultSleep is the wait between gate checks.
	DefaultSleep = 600 * time.Second

	userEnv     = "CNDA_UID"
	passwordEnv = "CNDA_PWD"
	fileName    = ".xnatpet.yaml"
)

// DefaultTracers are staged when no tracers are configured.
var DefaultTracers = []string{"Oxygen-water", "Carbon", "Oxygen"}

// Config is the content of the configuration file.
type Config struct {
	Host            string        `yaml:"host"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	CacheDir        string        `yaml:"cachedir"`
	Tracers         []string      `yaml:"tracers"`
	UmapDescription string        `yaml:"umap_description"`
	CTScan          string        `yaml:"ct_scan"`
	Sleep           time.Duration `yaml:"sleep"`
	Insecure        bool          `yaml:"insecure"`
	UserAgent       string        `yaml:"user_agent"`
	// RequestInterval is the minimum spacing of archive requests. Zero disables pacing.
	RequestInterval time.Duration `yaml:"request_interval"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:            DefaultHost,
		Tracers:         append([]string(nil), DefaultTracers...),
		UmapDescription: DefaultUmapDescription,
		CTScan:          DefaultCTScan,
		Sleep:           DefaultSleep,
		UserAgent:       "xnatpet",
	}
}

// DefaultPath is ~/.xnatpet.yaml, or empty when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fileName)
}

// Load reads the file at path over the defaults.
// A missing file is not an error when optional is set.
func Load(fs billy.Filesystem, path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := fs.Open(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "opening config")
	}
	defer f.Close()
	var file Config
	d := yaml.NewDecoder(f)
	d.KnownFields(true)
	if err := d.Decode(&file); err != nil {
		return cfg, errors.Wrapf(err, "decoding %s", path)
	}
	cfg.merge(file)
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.User != "" {
		c.User = o.User
	}
	if o.Password != "" {
		c.Password = o.Password
	}
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	if len(o.Tracers) > 0 {
		c.Tracers = o.Tracers
	}
	if o.UmapDescription != "" {
		c.UmapDescription = o.UmapDescription
	}
	if o.CTScan != "" {
		c.CTScan = o.CTScan
	}
	if o.Sleep != 0 {
		c.Sleep = o.Sleep
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.RequestInterval != 0 {
		c.RequestInterval = o.RequestInterval
	}
	c.Insecure = c.Insecure || o.Insecure
}

// ApplyEnv fills credentials missing from the file from CNDA_UID and CNDA_PWD.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.User == "" {
		c.User = getenv(userEnv)
	}
	if c.Password == "" {
		c.Password = getenv(passwordEnv)
	}
}

// Override replaces fields with any non-empty flag values.
func (c *Config) Override(o Config) {
	c.merge(o)
}

// Validate checks that the archive can be contacted.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("host must be set")
	}
	if c.User == "" || c.Password == "" {
		return errors.Errorf("credentials missing: set %s and %s or the config file", userEnv, passwordEnv)
	}
	return nil
}
