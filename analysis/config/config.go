// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the options of a graph construction run.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp
}

// Options holds the user-settable options
type Options struct {
	// ReportsDir is the directory where all the exports and snapshots will be stored. If the config file does not
	// specify a ReportsDir but enables one of the exports, then a temporary ReportsDir will be created next to the
	// config file.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts the SSA front end to the functions whose package matches the filter. It is used as a
	// regex if it compiles, otherwise as a package path prefix.
	PkgFilter string `yaml:"pkg-filter"`

	// Offline also builds the offline constraint graph (on a copy of the input graph)
	Offline bool `yaml:"offline"`

	// ExportDyck writes the text export of the labeled Dyck graph in the ReportsDir
	ExportDyck bool `yaml:"export-dyck"`

	// ExportOffline writes the text export of the offline graph in the ReportsDir. Implies Offline.
	ExportOffline bool `yaml:"export-offline"`

	// Snapshot writes a msgpack snapshot of the labeled Dyck graph in the ReportsDir
	Snapshot bool `yaml:"snapshot"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Options: Options{
			ReportsDir:    "",
			PkgFilter:     "",
			Offline:       false,
			ExportDyck:    false,
			ExportOffline: false,
			Snapshot:      false,
			LogLevel:      int(InfoLevel),
			SilenceWarn:   false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(filename, b)
}

// Parse reads a configuration from the contents b of the file filename. The filename is used to resolve relative
// paths.
func Parse(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("log-level must be between %d and %d, got %d", ErrLevel, TraceLevel, cfg.LogLevel)
	}

	if cfg.ExportOffline {
		cfg.Offline = true
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	return cfg, nil
}

// PrepareReportsDir creates the ReportsDir. When the ReportsDir is not set, a fresh directory is created next to
// the config file, or in the working directory if the config was not loaded from a file.
// Parse does not call it: callers prepare the directory once all the options, including command line overrides,
// are set.
func (c *Config) PrepareReportsDir() error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(c.sourceFile), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
		return nil
	}
	err := os.MkdirAll(c.ReportsDir, 0750)
	if err != nil {
		return fmt.Errorf("could not create directory %s: %w", c.ReportsDir, err)
	}
	return nil
}

// ReportsEnabled returns true when some option writes files in the ReportsDir
func (c Config) ReportsEnabled() bool {
	return c.ExportDyck || c.ExportOffline || c.Snapshot
}

// ReportPath returns the path of a report file named name in the ReportsDir
func (c Config) ReportPath(name string) string {
	return path.Join(c.ReportsDir, name)
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}
