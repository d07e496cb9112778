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

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-go-dyck/analysis"
	"github.com/awslabs/ar-go-dyck/analysis/config"
	"github.com/awslabs/ar-go-dyck/analysis/graphfile"
	"github.com/awslabs/ar-go-dyck/analysis/ssafront"
	"github.com/awslabs/ar-go-dyck/internal/formatutil"
	"github.com/awslabs/ar-go-dyck/internal/funcutil"
	"github.com/spf13/cobra"
	"golang.org/x/tools/go/ssa"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [flags] <graph file>...",
		Short: "Build the graphs of graph files",
		Long: `Reads each yaml graph file, builds its labeled Dyck graph and prints a summary.
The graph files are built in parallel; the first error stops the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			names := inputNames(args)
			inputs := make([]analysis.Input, len(args))
			for i, filename := range args {
				f, err := graphfile.Load(filename)
				if err != nil {
					return err
				}
				inputs[i] = analysis.Input{Name: names[i], Graph: f.Graph, PointsTo: f.PointsTo}
			}
			outputs, err := analysis.RunAll(cmd.Context(), cfg, logger, inputs)
			if err != nil {
				return err
			}
			for _, out := range outputs {
				printOutput(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
}

func newSSACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ssa [flags] <package or file>...",
		Short: "Build the graphs of a Go program",
		Long: `Loads the program, runs the pointer analysis and translates the functions selected by the pkg-filter
option into a constraint graph, then builds its labeled Dyck graph. The program must have a main package.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), formatutil.Faint("Reading sources"))
			program, err := analysis.LoadProgram(nil, "", ssa.BuilderMode(0), args)
			if err != nil {
				return fmt.Errorf("could not load program: %w", err)
			}
			res, err := ssafront.Build(logger, program, ssafront.PackageFilter(cfg))
			if err != nil {
				return err
			}
			out, err := analysis.Run(cfg, logger, analysis.Input{Name: "program", Graph: res.Graph, PointsTo: res.PointsTo})
			if err != nil {
				return err
			}
			printOutput(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dyckgen version %s\n", analysis.Version)
		},
	}
}

// setup loads the config file, applies the flags on top of it and creates the logger of the run
func setup(cmd *cobra.Command) (*config.Config, *config.LogGroup, error) {
	flags := cmd.Flags()
	cfg := config.NewDefault()
	if filename, _ := flags.GetString("config"); filename != "" {
		c, err := config.Load(filename)
		if err != nil {
			return nil, nil, err
		}
		cfg = c
	}
	if b, _ := flags.GetBool("offline"); b {
		cfg.Offline = true
	}
	if b, _ := flags.GetBool("export-dyck"); b {
		cfg.ExportDyck = true
	}
	if b, _ := flags.GetBool("export-offline"); b {
		cfg.ExportOffline = true
		cfg.Offline = true
	}
	if b, _ := flags.GetBool("snapshot"); b {
		cfg.Snapshot = true
	}
	if dir, _ := flags.GetString("reports"); dir != "" {
		cfg.ReportsDir = dir
	}
	if cfg.ReportsEnabled() {
		if err := cfg.PrepareReportsDir(); err != nil {
			return nil, nil, err
		}
	}

	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(cmd.ErrOrStderr())
	return cfg, logger, nil
}

// inputNames returns the report names of the graph files: the base name without extension, suffixed with its
// position when two files share a base name
func inputNames(filenames []string) []string {
	names := funcutil.Map(filenames, func(f string) string {
		return strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
	})
	count := map[string]int{}
	for _, name := range names {
		count[name]++
	}
	for i, name := range names {
		if count[name] > 1 {
			names[i] = fmt.Sprintf("%s-%d", name, i)
		}
	}
	return names
}
