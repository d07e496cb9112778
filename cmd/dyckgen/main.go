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

// dyckgen builds the offline constraint graph and the labeled Dyck graph of constraint graphs, read either from
// graph files or from the SSA form of a Go program.
package main

import (
	"os"

	"github.com/awslabs/ar-go-dyck/analysis"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dyckgen",
		Short: "dyckgen - offline constraint graphs and labeled Dyck graphs",
		Long: `dyckgen builds the labeled Dyck graph of a constraint graph, and optionally its offline constraint graph.

Commands:
  build       Build the graphs of graph files
  ssa         Build the graphs of a Go program
  version     Print the version

Use "dyckgen [command] --help" for more information about a command.`,
		Version:       analysis.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(`dyckgen version {{.Version}}
`)

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file")
	flags.String("reports", "", "Directory of the exports and snapshots, overrides the reports-dir option")
	flags.Bool("offline", false, "Also build the offline constraint graph")
	flags.Bool("export-dyck", false, "Export the labeled Dyck graph")
	flags.Bool("export-offline", false, "Export the offline constraint graph (implies --offline)")
	flags.Bool("snapshot", false, "Write a msgpack snapshot of the labeled Dyck graph")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newSSACmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
