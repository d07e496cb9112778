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

// Package analysis runs the graph builders: from a constraint graph and a points-to oracle, it builds the offline
// constraint graph and the labeled Dyck graph, and writes the reports the config asks for.
package analysis

import (
	"context"
	"fmt"
	"runtime"

	"github.com/awslabs/ar-go-dyck/analysis/config"
	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/analysis/dyck"
	"github.com/awslabs/ar-go-dyck/analysis/offline"
	"github.com/awslabs/ar-go-dyck/analysis/render"
	"golang.org/x/sync/errgroup"
)

// Input is one constraint graph to build from
type Input struct {
	// Name identifies the input in logs and report file names
	Name string
	// Graph is the constraint graph. It is rewritten in place into the Dyck graph.
	Graph *constraint.Graph
	// PointsTo is the points-to oracle of the graph
	PointsTo constraint.PointsToOracle
}

// Output holds the graphs built from an Input
type Output struct {
	Name string

	// Offline is the offline constraint graph, built from a copy of the input graph. Nil unless the offline option
	// is set.
	Offline *constraint.Graph
	// OfflineStats summarizes the offline construction
	OfflineStats offline.Stats
	// Cycles are the cycles of the offline graph
	Cycles [][]constraint.NodeID

	// Dyck is the labeled Dyck graph
	Dyck *dyck.Result
	// Exports holds the summary of the Dyck graph export, when export-dyck is set
	Exports render.Summary

	// Reports are the files written in the reports directory
	Reports []string
}

// Run builds the graphs of one input. Errors of the graph builders are returned; failures to write reports are
// logged as warnings and do not affect the output.
func Run(cfg *config.Config, logger *config.LogGroup, in Input) (*Output, error) {
	out := &Output{Name: in.Name}
	logger.Infof("Building graphs of %s: %s", in.Name, in.Graph.StatsString())

	if cfg.Offline {
		// the offline graph must not see the edges the Dyck builder adds, and conversely
		out.Offline = in.Graph.Clone()
		out.OfflineStats = offline.Build(logger, out.Offline, in.PointsTo, constraint.NewRegionTable())
		out.Cycles = offline.Cycles(out.Offline)
		logger.Infof("%s: %d cycles in the offline graph", in.Name, len(out.Cycles))
		if cfg.ExportOffline {
			filename := cfg.ReportPath(in.Name + ".offline.txt")
			if err := render.ExportOfflineGraph(filename, out.Offline); err != nil {
				logger.Warnf("Could not export offline graph: %v", err)
			} else {
				out.Reports = append(out.Reports, filename)
			}
		}
	}

	res, err := dyck.Build(logger, in.Graph, in.PointsTo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	out.Dyck = res

	if cfg.ExportDyck {
		filename := cfg.ReportPath(in.Name + ".dyck.txt")
		summary, err := render.ExportDyckGraph(filename, res.Graph, res.Labels)
		if err != nil {
			logger.Warnf("Could not export Dyck graph: %v", err)
		} else {
			out.Exports = summary
			out.Reports = append(out.Reports, filename)
		}
	}

	if cfg.Snapshot {
		filename := cfg.ReportPath(in.Name + ".dyck.msgpack")
		if err := dyck.SaveSnapshot(filename, res); err != nil {
			logger.Warnf("Could not write snapshot: %v", err)
		} else {
			out.Reports = append(out.Reports, filename)
		}
	}

	return out, nil
}

// RunAll runs the inputs in parallel, at most GOMAXPROCS at a time. The inputs must not share graphs.
// Outputs are in the same order as the inputs. The first error cancels the runs that have not started.
func RunAll(ctx context.Context, cfg *config.Config, logger *config.LogGroup, inputs []Input) ([]*Output, error) {
	outputs := make([]*Output, len(inputs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range inputs {
		i, in := i, in
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := Run(cfg, logger, in)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
