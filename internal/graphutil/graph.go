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

// Package graphutil exposes constraint graphs to existing graph libraries.
package graphutil

import (
	"sort"

	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	yb "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// View is a read-only abstraction over a constraint graph to work with existing graph libraries. It implements the
// methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Directed.
// Edge kinds are ignored: two nodes are adjacent if there is at least one edge of any kind between them.
//
// A View reads the graph on every call; it must not be used while the graph is being mutated.
type View struct {
	// Graph is the constraint graph the view was constructed from
	Graph *constraint.Graph
}

// NewView returns a view of g
func NewView(g *constraint.Graph) View {
	return View{Graph: g}
}

// Order implements the order of the graph.Iterator interface. Node IDs are in [0, Order).
func (v View) Order() int {
	return v.Graph.Order()
}

// Visit implements the graph.Iterator interface: it calls do on every successor of node, in increasing order,
// until do returns true.
func (v View) Visit(node int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if node < 0 || !v.Graph.HasNode(constraint.NodeID(node)) {
		return false
	}
	for _, w := range v.Graph.Successors(constraint.NodeID(node)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil if there is no node with that id.
func (v View) Node(id int64) graph.Node {
	if id < 0 || !v.Graph.HasNode(constraint.NodeID(id)) {
		return nil
	}
	return Node(id)
}

// Nodes returns the set of nodes in the graph
func (v View) Nodes() graph.Nodes {
	return toNodes(v.Graph.NodeIDs())
}

// From returns the set of nodes reachable from the id in one step
func (v View) From(id int64) graph.Nodes {
	if id < 0 {
		return graph.Empty
	}
	return toNodes(v.Graph.Successors(constraint.NodeID(id)))
}

// To returns the set of nodes that reach id in one step
func (v View) To(id int64) graph.Nodes {
	if id < 0 {
		return graph.Empty
	}
	seen := map[constraint.NodeID]bool{}
	var preds []constraint.NodeID
	for _, e := range v.Graph.InEdges(constraint.NodeID(id)) {
		if !seen[e.Src] {
			seen[e.Src] = true
			preds = append(preds, e.Src)
		}
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i] < preds[j] })
	return toNodes(preds)
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers, in either
// direction
func (v View) HasEdgeBetween(xid, yid int64) bool {
	return v.HasEdgeFromTo(xid, yid) || v.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns whether there is a directed edge from uid to vid
func (v View) HasEdgeFromTo(uid, vid int64) bool {
	if uid < 0 || vid < 0 {
		return false
	}
	for _, e := range v.Graph.OutEdges(constraint.NodeID(uid)) {
		if int64(e.Dst) == vid {
			return true
		}
	}
	return false
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (v View) Edge(uid, vid int64) graph.Edge {
	if v.HasEdgeFromTo(uid, vid) {
		return Edge{from: Node(uid), to: Node(vid)}
	}
	return nil
}

// *************** Nodes implementation **********************

// Node is a constraint node ID that implements the graph.Node interface
type Node int64

// ID returns the id of the node
func (n Node) ID() int64 {
	return int64(n)
}

func toNodes(ids []constraint.NodeID) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = Node(id)
	}
	return iterator.NewOrderedNodes(nodes)
}

// *************** Edge implementation **********************

// Edge implements the graph.Edge interface
type Edge struct {
	from Node
	to   Node
}

// From returns the origin of the edge
func (e Edge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e Edge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e Edge) ReversedEdge() graph.Edge {
	return Edge{from: e.to, to: e.from}
}

// StronglyConnectedComponents returns the strongly connected components of the constraint graph, computed with
// yourbasic's StrongComponents. Each component is sorted in increasing order, and components are sorted by their
// smallest node. Node IDs of the arena that are not in use are not part of any component.
func StronglyConnectedComponents(g *constraint.Graph) [][]constraint.NodeID {
	var sccs [][]constraint.NodeID
	for _, component := range yb.StrongComponents(NewView(g)) {
		scc := make([]constraint.NodeID, 0, len(component))
		for _, x := range component {
			if g.HasNode(constraint.NodeID(x)) {
				scc = append(scc, constraint.NodeID(x))
			}
		}
		if len(scc) == 0 {
			continue
		}
		sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
		sccs = append(sccs, scc)
	}
	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}
