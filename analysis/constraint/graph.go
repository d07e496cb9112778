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

package constraint

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	// ErrUnknownEdgeKind is returned when an edge kind is not one of the kinds of the constraint graph
	ErrUnknownEdgeKind = errors.New("unknown edge kind")

	// ErrNodeExists is returned when a node is added with an ID that is already in use
	ErrNodeExists = errors.New("node already exists")
)

// A Node of the constraint graph: a program value, a memory object, or a dummy node synthesized by a graph
// transformation. A node only refers to its edges by ID.
type Node struct {
	ID NodeID

	// Name is an optional, human-readable description of the node
	Name string

	// Dummy is true for nodes that were not created by the front end
	Dummy bool

	in  map[EdgeID]bool
	out map[EdgeID]bool
}

func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%d<%s>", n.ID, n.Name)
	}
	return fmt.Sprintf("%d", n.ID)
}

// In returns the IDs of the incoming edges of n, in increasing order
func (n *Node) In() []EdgeID {
	ids := maps.Keys(n.in)
	slices.Sort(ids)
	return ids
}

// Out returns the IDs of the outgoing edges of n, in increasing order
func (n *Node) Out() []EdgeID {
	ids := maps.Keys(n.out)
	slices.Sort(ids)
	return ids
}

type edgeKey struct {
	src    NodeID
	dst    NodeID
	kind   EdgeKind
	offset uint32
}

// Graph is a constraint graph stored in index-addressed arenas: nodes in a slice indexed by NodeID, edges in a
// map indexed by EdgeID. Removing an edge removes it from every index; nothing is owned by pointers between
// nodes and edges.
//
// All the methods returning several edges or nodes return fresh slices: callers can mutate the graph while they
// iterate over the result.
type Graph struct {
	// nodes[i] is the node with ID i, or nil when no such node has been created
	nodes    []*Node
	numNodes int

	edges    map[EdgeID]*Edge
	byKind   map[EdgeKind]map[EdgeID]bool
	lookup   map[edgeKey]EdgeID
	nextEdge EdgeID

	calls []InterprocEdge
	rets  []InterprocEdge
}

// NewGraph returns an empty constraint graph
func NewGraph() *Graph {
	return &Graph{
		nodes:  nil,
		edges:  make(map[EdgeID]*Edge),
		byKind: make(map[EdgeKind]map[EdgeID]bool),
		lookup: make(map[edgeKey]EdgeID),
	}
}

// AddNode adds a node with the given id. It returns ErrNodeExists if the ID is already in use.
func (g *Graph) AddNode(id NodeID, name string) (*Node, error) {
	if g.HasNode(id) {
		return nil, fmt.Errorf("%w: %d", ErrNodeExists, id)
	}
	n := g.EnsureNode(id)
	n.Name = name
	return n, nil
}

// EnsureNode returns the node with the given id, creating it if necessary.
func (g *Graph) EnsureNode(id NodeID) *Node {
	for int(id) >= len(g.nodes) {
		g.nodes = append(g.nodes, nil)
	}
	if g.nodes[id] == nil {
		g.nodes[id] = &Node{
			ID:  id,
			in:  make(map[EdgeID]bool),
			out: make(map[EdgeID]bool),
		}
		g.numNodes++
	}
	return g.nodes[id]
}

// AddDummyNode creates a new node whose ID is strictly larger than any ID ever used in the graph.
func (g *Graph) AddDummyNode() NodeID {
	id := NodeID(len(g.nodes))
	n := g.EnsureNode(id)
	n.Dummy = true
	return id
}

// Node returns the node with the given ID, or nil if there is none
func (g *Graph) Node(id NodeID) *Node {
	if int(id) < len(g.nodes) {
		return g.nodes[id]
	}
	return nil
}

// HasNode returns true when the graph contains a node with that ID
func (g *Graph) HasNode(id NodeID) bool {
	return g.Node(id) != nil
}

// NumNodes returns the number of nodes in the graph
func (g *Graph) NumNodes() int {
	return g.numNodes
}

// Order returns one more than the largest node ID in use. All node IDs are strictly smaller than Order.
func (g *Graph) Order() int {
	return len(g.nodes)
}

// NodeIDs returns the IDs of all the nodes in increasing order
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, g.numNodes)
	for i, n := range g.nodes {
		if n != nil {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// AddEdge adds an edge of the given kind between src and dst, creating the endpoints if needed.
// The offset is only meaningful for NormalGep edges and is ignored for other kinds.
// If an identical edge already exists, that edge is returned and the graph is unchanged.
func (g *Graph) AddEdge(kind EdgeKind, src, dst NodeID, offset uint32) (*Edge, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s from %d to %d", ErrUnknownEdgeKind, kind, src, dst)
	}
	return g.addEdge(kind, src, dst, offset), nil
}

func (g *Graph) addEdge(kind EdgeKind, src, dst NodeID, offset uint32) *Edge {
	if kind != NormalGep {
		offset = 0
	}
	key := edgeKey{src: src, dst: dst, kind: kind, offset: offset}
	if id, ok := g.lookup[key]; ok {
		return g.edges[id]
	}
	e := &Edge{ID: g.nextEdge, Kind: kind, Src: src, Dst: dst, Offset: offset}
	g.nextEdge++
	g.EnsureNode(src).out[e.ID] = true
	g.EnsureNode(dst).in[e.ID] = true
	g.edges[e.ID] = e
	g.lookup[key] = e.ID
	if g.byKind[kind] == nil {
		g.byKind[kind] = make(map[EdgeID]bool)
	}
	g.byKind[kind][e.ID] = true
	return e
}

// AddAddr adds an address-of edge: dst = &obj
func (g *Graph) AddAddr(obj, dst NodeID) *Edge { return g.addEdge(Addr, obj, dst, 0) }

// AddCopy adds a copy edge: dst = src
func (g *Graph) AddCopy(src, dst NodeID) *Edge { return g.addEdge(Copy, src, dst, 0) }

// AddLoad adds a load edge: dst = *ptr
func (g *Graph) AddLoad(ptr, dst NodeID) *Edge { return g.addEdge(Load, ptr, dst, 0) }

// AddStore adds a store edge: *ptr = src
func (g *Graph) AddStore(src, ptr NodeID) *Edge { return g.addEdge(Store, src, ptr, 0) }

// AddNormalGep adds a field offset edge: dst = &src.offset
func (g *Graph) AddNormalGep(src, dst NodeID, offset uint32) *Edge {
	return g.addEdge(NormalGep, src, dst, offset)
}

// AddVariantGep adds a variable offset edge: dst = &src[_]
func (g *Graph) AddVariantGep(src, dst NodeID) *Edge { return g.addEdge(VariantGep, src, dst, 0) }

// FindEdge returns the edge of the given kind (and offset, for NormalGep) between src and dst, or nil.
func (g *Graph) FindEdge(kind EdgeKind, src, dst NodeID, offset uint32) *Edge {
	if kind != NormalGep {
		offset = 0
	}
	if id, ok := g.lookup[edgeKey{src: src, dst: dst, kind: kind, offset: offset}]; ok {
		return g.edges[id]
	}
	return nil
}

// RemoveEdge removes the edge with the given ID from the graph. Returns false if there was no such edge.
// The endpoints of the edge are not removed.
func (g *Graph) RemoveEdge(id EdgeID) bool {
	e, ok := g.edges[id]
	if !ok {
		return false
	}
	delete(g.edges, id)
	delete(g.byKind[e.Kind], id)
	delete(g.lookup, edgeKey{src: e.Src, dst: e.Dst, kind: e.Kind, offset: e.Offset})
	if n := g.Node(e.Src); n != nil {
		delete(n.out, id)
	}
	if n := g.Node(e.Dst); n != nil {
		delete(n.in, id)
	}
	return true
}

// Edge returns the edge with the given ID, or nil if it is not (or no longer) in the graph
func (g *Graph) Edge(id EdgeID) *Edge {
	return g.edges[id]
}

// NumEdges returns the number of edges in the graph
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// CountKind returns the number of edges of the given kind
func (g *Graph) CountKind(kind EdgeKind) int {
	return len(g.byKind[kind])
}

// Edges returns a snapshot of all the edges, ordered by ID
func (g *Graph) Edges() []*Edge {
	return g.sortedEdges(maps.Keys(g.edges))
}

// EdgesOfKind returns a snapshot of the edges of the given kind, ordered by ID
func (g *Graph) EdgesOfKind(kind EdgeKind) []*Edge {
	return g.sortedEdges(maps.Keys(g.byKind[kind]))
}

// OutEdges returns a snapshot of the outgoing edges of the node, ordered by ID
func (g *Graph) OutEdges(id NodeID) []*Edge {
	n := g.Node(id)
	if n == nil {
		return nil
	}
	return g.sortedEdges(maps.Keys(n.out))
}

// InEdges returns a snapshot of the incoming edges of the node, ordered by ID
func (g *Graph) InEdges(id NodeID) []*Edge {
	n := g.Node(id)
	if n == nil {
		return nil
	}
	return g.sortedEdges(maps.Keys(n.in))
}

// Successors returns the distinct destinations of the outgoing edges of the node, in increasing order
func (g *Graph) Successors(id NodeID) []NodeID {
	n := g.Node(id)
	if n == nil {
		return nil
	}
	seen := make(map[NodeID]bool, len(n.out))
	for eid := range n.out {
		seen[g.edges[eid].Dst] = true
	}
	succ := maps.Keys(seen)
	slices.Sort(succ)
	return succ
}

func (g *Graph) sortedEdges(ids []EdgeID) []*Edge {
	slices.Sort(ids)
	res := make([]*Edge, len(ids))
	for i, id := range ids {
		res[i] = g.edges[id]
	}
	return res
}

// AddCall adds the copy edge src -> dst and records it as a call edge of the call site
func (g *Graph) AddCall(src, dst NodeID, site CallSiteID) *Edge {
	e := g.AddCopy(src, dst)
	g.RecordCall(src, dst, site)
	return e
}

// AddReturn adds the copy edge src -> dst and records it as a return edge of the call site
func (g *Graph) AddReturn(src, dst NodeID, site CallSiteID) *Edge {
	e := g.AddCopy(src, dst)
	g.RecordReturn(src, dst, site)
	return e
}

// RecordCall records that the copy edge src -> dst is a call edge of the call site, without adding the edge.
func (g *Graph) RecordCall(src, dst NodeID, site CallSiteID) {
	g.calls = append(g.calls, InterprocEdge{Kind: CallEdge, Src: src, Dst: dst, Site: site})
}

// RecordReturn records that the copy edge src -> dst is a return edge of the call site, without adding the edge.
func (g *Graph) RecordReturn(src, dst NodeID, site CallSiteID) {
	g.rets = append(g.rets, InterprocEdge{Kind: RetEdge, Src: src, Dst: dst, Site: site})
}

// Calls returns the call edge records, in the order they were recorded
func (g *Graph) Calls() []InterprocEdge {
	return slices.Clone(g.calls)
}

// Returns returns the return edge records, in the order they were recorded
func (g *Graph) Returns() []InterprocEdge {
	return slices.Clone(g.rets)
}

// Clone returns a deep copy of the graph. Edge and node IDs are preserved, and the edge ID counter of the copy
// continues from the same value.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, n := range g.nodes {
		if n == nil {
			c.nodes = append(c.nodes, nil)
			continue
		}
		cn := &Node{
			ID:    n.ID,
			Name:  n.Name,
			Dummy: n.Dummy,
			in:    maps.Clone(n.in),
			out:   maps.Clone(n.out),
		}
		c.nodes = append(c.nodes, cn)
	}
	c.numNodes = g.numNodes
	for id, e := range g.edges {
		ce := *e
		c.edges[id] = &ce
	}
	for k, ids := range g.byKind {
		c.byKind[k] = maps.Clone(ids)
	}
	c.lookup = maps.Clone(g.lookup)
	c.nextEdge = g.nextEdge
	c.calls = slices.Clone(g.calls)
	c.rets = slices.Clone(g.rets)
	return c
}

// Stats returns the number of edges of each kind, for logging
func (g *Graph) Stats() map[EdgeKind]int {
	res := make(map[EdgeKind]int, len(g.byKind))
	for k, ids := range g.byKind {
		if len(ids) > 0 {
			res[k] = len(ids)
		}
	}
	return res
}

// StatsString formats Stats in a stable order
func (g *Graph) StatsString() string {
	stats := g.Stats()
	kinds := maps.Keys(stats)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	s := fmt.Sprintf("%d nodes, %d edges", g.NumNodes(), g.NumEdges())
	for _, k := range kinds {
		s += fmt.Sprintf(", %s=%d", k, stats[k])
	}
	return s
}
