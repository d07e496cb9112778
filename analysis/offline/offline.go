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

// Package offline implements the offline constraint graph: loads and stores are replaced by gep edges tagged with
// the memory region they access, so that the resulting graph only has direct edges and its cycles can be collapsed
// before the points-to analysis runs.
package offline

import (
	"fmt"
	"time"

	"github.com/awslabs/ar-go-dyck/analysis/config"
	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/internal/graphutil"
)

// Stats counts what the offline builder did to the graph
type Stats struct {
	// Loads is the number of load edges rewritten and deleted
	Loads int
	// Stores is the number of store edges rewritten and deleted
	Stores int
	// Addrs is the number of address-of edges deleted
	Addrs int
	// GepsAdded is the number of new gep edges
	GepsAdded int
	// GepsMerged is the number of rewritten edges whose gep edge already existed
	GepsMerged int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d loads, %d stores, %d addrs removed; %d geps added, %d merged",
		s.Loads, s.Stores, s.Addrs, s.GepsAdded, s.GepsMerged)
}

// Build rewrites g in place into its offline constraint graph.
// Each load p = *q becomes a gep q -> p whose offset is the region of pts(q), each store *p = q becomes a gep q -> p
// whose offset is the region of pts(p). All load, store and addr edges are then deleted.
//
// The oracle and the resolver are only queried; the graph is the only thing modified.
func Build(logger *config.LogGroup, g *constraint.Graph, oracle constraint.PointsToOracle,
	regions constraint.RegionResolver) Stats {
	start := time.Now()
	var stats Stats
	var toDelete []constraint.EdgeID

	// EdgesOfKind returns snapshots, the geps added below do not disturb the iteration
	for _, load := range g.EdgesOfKind(constraint.Load) {
		region := regions.RegionOf(oracle.PointsTo(load.Src))
		addGep(logger, g, load, region, &stats)
		toDelete = append(toDelete, load.ID)
		stats.Loads++
	}

	for _, store := range g.EdgesOfKind(constraint.Store) {
		region := regions.RegionOf(oracle.PointsTo(store.Dst))
		addGep(logger, g, store, region, &stats)
		toDelete = append(toDelete, store.ID)
		stats.Stores++
	}

	for _, addr := range g.EdgesOfKind(constraint.Addr) {
		toDelete = append(toDelete, addr.ID)
		stats.Addrs++
	}

	for _, id := range toDelete {
		g.RemoveEdge(id)
	}

	logger.Infof("Offline graph built in %.3f s: %s", time.Since(start).Seconds(), stats)
	logger.Debugf("Offline graph: %s", g.StatsString())
	return stats
}

func addGep(logger *config.LogGroup, g *constraint.Graph, e *constraint.Edge, region constraint.RegionID,
	stats *Stats) {
	if g.FindEdge(constraint.NormalGep, e.Src, e.Dst, uint32(region)) != nil {
		stats.GepsMerged++
		logger.Tracef("%s: gep %d->%d region %d already present", e, e.Src, e.Dst, region)
		return
	}
	g.AddNormalGep(e.Src, e.Dst, uint32(region))
	stats.GepsAdded++
	logger.Tracef("%s: gep %d->%d region %d", e, e.Src, e.Dst, region)
}

// Cycles returns the cycles of the graph: its strongly connected components that have more than one node, or a
// single node with a self loop. Nodes are sorted in each cycle, and cycles are sorted by their smallest node.
func Cycles(g *constraint.Graph) [][]constraint.NodeID {
	var cycles [][]constraint.NodeID
	for _, scc := range graphutil.StronglyConnectedComponents(g) {
		if len(scc) > 1 || hasSelfLoop(g, scc[0]) {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func hasSelfLoop(g *constraint.Graph, id constraint.NodeID) bool {
	for _, e := range g.OutEdges(id) {
		if e.Dst == id {
			return true
		}
	}
	return false
}
