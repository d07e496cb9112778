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

/*
Package graphfile reads a constraint graph and the points-to sets of its nodes from a yaml file.

A graph file is as follows:

	nodes:
	  - id: 0
	    name: p
	edges:
	  - {kind: addr, src: 10, dst: 0}
	  - {kind: load, src: 0, dst: 1}
	  - {kind: gep, src: 0, dst: 2, offset: 1}
	calls:
	  - {site: 1, src: 1, dst: 5}
	returns:
	  - {site: 1, src: 6, dst: 3}
	points-to:
	  0: [10]

Nodes only need to be listed to give them a name: the endpoints of edges are created on demand.
Node IDs must be dense: an ID far above the number of IDs the file mentions is rejected with ErrSparseNodeID.

Each call and return adds a copy edge and records it with its call site. A copy edge carries a single call or
return label, so an actual that is passed to the same formal from two call sites must go through one argument
node per call site (as the SSA front end does):

	edges:
	  - {kind: copy, src: 1, dst: 20}
	  - {kind: copy, src: 1, dst: 21}
	calls:
	  - {site: 1, src: 20, dst: 5}
	  - {site: 2, src: 21, dst: 5}

Recording both sites on the edge 1 -> 5 makes the Dyck graph construction fail with dyck.ErrConflictingLabel.
*/
package graphfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// ErrSparseNodeID is returned when a node ID is far beyond the number of node references in the file
var ErrSparseNodeID = errors.New("node ID out of the dense range")

// File is the content of a graph file
type File struct {
	// Name is the name of the file the graph was read from
	Name string
	// Graph is the constraint graph
	Graph *constraint.Graph
	// PointsTo holds the points-to sets of the file. Nodes without an entry point to nothing.
	PointsTo constraint.MapOracle
}

type nodeEntry struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
}

type edgeEntry struct {
	Kind   string `yaml:"kind"`
	Src    uint32 `yaml:"src"`
	Dst    uint32 `yaml:"dst"`
	Offset uint32 `yaml:"offset"`
}

type interprocEntry struct {
	Site uint32 `yaml:"site"`
	Src  uint32 `yaml:"src"`
	Dst  uint32 `yaml:"dst"`
}

type fileContents struct {
	Nodes    []nodeEntry         `yaml:"nodes"`
	Edges    []edgeEntry         `yaml:"edges"`
	Calls    []interprocEntry    `yaml:"calls"`
	Returns  []interprocEntry    `yaml:"returns"`
	PointsTo map[uint32][]uint32 `yaml:"points-to"`
}

// Load reads the graph file filename
func Load(filename string) (*File, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read graph file: %w", err)
	}
	return Parse(filename, b)
}

// Parse reads a graph file from its contents b. The filename is only used in error messages.
func Parse(filename string, b []byte) (*File, error) {
	var contents fileContents
	if err := yaml.Unmarshal(b, &contents); err != nil {
		return nil, fmt.Errorf("could not unmarshal graph file %s: %w", filename, err)
	}

	if err := checkDenseIDs(&contents); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	g := constraint.NewGraph()
	for _, n := range contents.Nodes {
		if _, err := g.AddNode(constraint.NodeID(n.ID), n.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	for i, e := range contents.Edges {
		kind, err := constraint.ParseEdgeKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: edge %d: %w", filename, i, err)
		}
		if e.Offset != 0 && kind != constraint.NormalGep {
			return nil, fmt.Errorf("%s: edge %d: offset on a %s edge", filename, i, kind)
		}
		if _, err := g.AddEdge(kind, constraint.NodeID(e.Src), constraint.NodeID(e.Dst), e.Offset); err != nil {
			return nil, fmt.Errorf("%s: edge %d: %w", filename, i, err)
		}
	}
	for _, c := range contents.Calls {
		g.AddCall(constraint.NodeID(c.Src), constraint.NodeID(c.Dst), constraint.CallSiteID(c.Site))
	}
	for _, r := range contents.Returns {
		g.AddReturn(constraint.NodeID(r.Src), constraint.NodeID(r.Dst), constraint.CallSiteID(r.Site))
	}

	oracle := constraint.MapOracle{}
	for id, objs := range contents.PointsTo {
		oracle.Set(constraint.NodeID(id), funcutil.Map(objs, func(o uint32) constraint.NodeID {
			return constraint.NodeID(o)
		})...)
	}

	return &File{Name: filename, Graph: g, PointsTo: oracle}, nil
}

// checkDenseIDs bounds node IDs by a small multiple of the number of node references in the file. The graph
// stores nodes in a slice indexed by ID, so a single huge ID would allocate a slot for every smaller one.
func checkDenseIDs(contents *fileContents) error {
	refs := len(contents.Nodes) + 2*(len(contents.Edges)+len(contents.Calls)+len(contents.Returns))
	for _, objs := range contents.PointsTo {
		refs += 1 + len(objs)
	}
	limit := uint64(refs)*4 + 1024

	check := func(what string, id uint32) error {
		if uint64(id) >= limit {
			return fmt.Errorf("%w: %s %d, the file has %d node references", ErrSparseNodeID, what, id, refs)
		}
		return nil
	}
	for _, n := range contents.Nodes {
		if err := check("node", n.ID); err != nil {
			return err
		}
	}
	for _, e := range contents.Edges {
		if err := errors.Join(check("edge source", e.Src), check("edge destination", e.Dst)); err != nil {
			return err
		}
	}
	for _, c := range append(append([]interprocEntry{}, contents.Calls...), contents.Returns...) {
		if err := errors.Join(check("call site source", c.Src), check("call site destination", c.Dst)); err != nil {
			return err
		}
	}
	for id, objs := range contents.PointsTo {
		if err := check("points-to entry", id); err != nil {
			return err
		}
		for _, o := range objs {
			if err := check("object", o); err != nil {
				return err
			}
		}
	}
	return nil
}
