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
	"io"

	"github.com/awslabs/ar-go-dyck/analysis"
	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/internal/formatutil"
	"github.com/awslabs/ar-go-dyck/internal/funcutil"
)

func printOutput(w io.Writer, out *analysis.Output) {
	fmt.Fprintf(w, "%s %s\n", formatutil.Bold(out.Name), formatutil.Faint(out.Dyck.Graph.StatsString()))
	if out.Offline != nil {
		fmt.Fprintf(w, "  offline: %s\n", out.OfflineStats)
		switch {
		case len(out.Cycles) == 0:
			fmt.Fprintf(w, "  offline: %s\n", formatutil.Green("no cycles"))
		case funcutil.Exists(out.Cycles, func(c []constraint.NodeID) bool { return len(c) == 1 }):
			fmt.Fprintf(w, "  offline: %s (including self loops)\n", formatutil.Yellow(len(out.Cycles), " cycles"))
		default:
			fmt.Fprintf(w, "  offline: %s\n", formatutil.Yellow(len(out.Cycles), " cycles"))
		}
	}
	fmt.Fprintf(w, "  dyck:    %s\n", out.Dyck.Stats)
	if out.Exports.Edges > 0 {
		fmt.Fprintf(w, "  dyck:    %d load/store labels, %d call/return labels exported\n",
			out.Exports.LoadStoreLabels, out.Exports.CallRetLabels)
	}
	for _, report := range out.Reports {
		fmt.Fprintf(w, "  wrote %s\n", formatutil.Cyan(report))
	}
}
