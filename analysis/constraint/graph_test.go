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
	"testing"

	"golang.org/x/exp/slices"
)

func TestAddEdgeCreatesEndpoints(t *testing.T) {
	g := NewGraph()
	e := g.AddLoad(3, 5)
	if !g.HasNode(3) || !g.HasNode(5) {
		t.Fatalf("endpoints of %s should have been created", e)
	}
	if g.HasNode(4) {
		t.Errorf("node 4 should not exist")
	}
	if g.NumNodes() != 2 || g.Order() != 6 {
		t.Errorf("expected 2 nodes and order 6, got %d nodes and order %d", g.NumNodes(), g.Order())
	}
	if !slices.Equal(g.Node(3).Out(), []EdgeID{e.ID}) || !slices.Equal(g.Node(5).In(), []EdgeID{e.ID}) {
		t.Errorf("adjacency of %s not recorded", e)
	}
}

func TestAddEdgeMergesDuplicates(t *testing.T) {
	g := NewGraph()
	e1 := g.AddNormalGep(1, 2, 7)
	e2 := g.AddNormalGep(1, 2, 7)
	e3 := g.AddNormalGep(1, 2, 8)
	if e1 != e2 {
		t.Errorf("identical gep edges should be merged")
	}
	if e1 == e3 {
		t.Errorf("gep edges with different offsets should not be merged")
	}
	// the offset of non-gep kinds is ignored
	c1 := g.AddCopy(1, 2)
	c2, err := g.AddEdge(Copy, 1, 2, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 != c2 || c2.Offset != 0 {
		t.Errorf("copy edges should ignore offsets")
	}
	if g.NumEdges() != 3 {
		t.Errorf("expected 3 edges, got %d", g.NumEdges())
	}
}

func TestAddEdgeRejectsUnknownKind(t *testing.T) {
	g := NewGraph()
	_, err := g.AddEdge(EdgeKind(42), 1, 2, 0)
	if !errors.Is(err, ErrUnknownEdgeKind) {
		t.Errorf("expected ErrUnknownEdgeKind, got %v", err)
	}
	if g.NumEdges() != 0 || g.NumNodes() != 0 {
		t.Errorf("graph should be unchanged")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := NewGraph()
	e := g.AddStore(1, 2)
	g.AddCopy(1, 2)
	if !g.RemoveEdge(e.ID) {
		t.Fatalf("edge should have been removed")
	}
	if g.RemoveEdge(e.ID) {
		t.Errorf("edge should not be removed twice")
	}
	if g.CountKind(Store) != 0 || g.FindEdge(Store, 1, 2, 0) != nil || g.Edge(e.ID) != nil {
		t.Errorf("store edge still indexed")
	}
	if len(g.OutEdges(1)) != 1 || len(g.InEdges(2)) != 1 {
		t.Errorf("adjacency not updated")
	}
	// IDs are never reused
	e2 := g.AddStore(1, 2)
	if e2.ID == e.ID {
		t.Errorf("edge ID %d reused", e.ID)
	}
}

func TestSnapshotsAllowMutation(t *testing.T) {
	g := NewGraph()
	for i := NodeID(0); i < 10; i++ {
		g.AddCopy(i, i+1)
	}
	for _, e := range g.EdgesOfKind(Copy) {
		g.RemoveEdge(e.ID)
		g.AddLoad(e.Src, e.Dst)
	}
	if g.CountKind(Copy) != 0 || g.CountKind(Load) != 10 {
		t.Errorf("expected 10 loads and no copies, got %s", g.StatsString())
	}
}

func TestDummyNodesAreFresh(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddNode(9, "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode(9, "y"); !errors.Is(err, ErrNodeExists) {
		t.Errorf("expected ErrNodeExists, got %v", err)
	}
	d1 := g.AddDummyNode()
	d2 := g.AddDummyNode()
	if d1 <= 9 || d2 <= d1 {
		t.Errorf("dummy nodes %d, %d should be fresh", d1, d2)
	}
	if !g.Node(d1).Dummy {
		t.Errorf("node %d should be marked dummy", d1)
	}
}

func TestInterprocRecords(t *testing.T) {
	g := NewGraph()
	g.AddCall(1, 2, 10)
	g.AddReturn(3, 4, 10)
	g.RecordCall(5, 6, 11)
	if len(g.Calls()) != 2 || len(g.Returns()) != 1 {
		t.Fatalf("expected 2 calls and 1 return")
	}
	if g.FindEdge(Copy, 1, 2, 0) == nil || g.FindEdge(Copy, 3, 4, 0) == nil {
		t.Errorf("copy edges of calls and returns should be in the graph")
	}
	if g.FindEdge(Copy, 5, 6, 0) != nil {
		t.Errorf("RecordCall should not add an edge")
	}
}

func TestClone(t *testing.T) {
	g := NewGraph()
	g.AddAddr(1, 2)
	g.AddCall(2, 3, 1)
	c := g.Clone()
	c.RemoveEdge(c.FindEdge(Addr, 1, 2, 0).ID)
	c.AddDummyNode()
	if g.CountKind(Addr) != 1 {
		t.Errorf("mutating the clone should not change the original")
	}
	if g.NumNodes() != 3 || c.NumNodes() != 4 {
		t.Errorf("unexpected node counts %d and %d", g.NumNodes(), c.NumNodes())
	}
	e := c.AddLoad(3, 1)
	if g.Edge(e.ID) != nil {
		t.Errorf("edge added to the clone should not be in the original")
	}
	if len(c.Calls()) != 1 {
		t.Errorf("call records should be cloned")
	}
}

func TestPointsTo(t *testing.T) {
	p1 := NewPointsTo(1)
	p2 := NewPointsTo(2, 1)
	empty := NewPointsTo()
	if !p2.Contains(p1) || p1.Contains(p2) {
		t.Errorf("{1,2} should contain {1} and not the reverse")
	}
	if !p1.Contains(empty) || !empty.Contains(PointsTo{}) || empty.Contains(p1) {
		t.Errorf("wrong containment with the empty set")
	}
	if !NewPointsTo(1, 2).Equals(p2) || p2.Key() != NewPointsTo(2, 1, 2).Key() {
		t.Errorf("equal sets should have equal keys")
	}
	if !slices.Equal(p2.IDs(), []NodeID{1, 2}) {
		t.Errorf("unexpected IDs %v", p2.IDs())
	}
	if empty.Key() != (PointsTo{}).Key() || !empty.IsEmpty() {
		t.Errorf("empty sets should be equal to the zero value")
	}
}

func TestRegionTable(t *testing.T) {
	r := NewRegionTable()
	a := r.RegionOf(NewPointsTo(1, 2))
	b := r.RegionOf(NewPointsTo(3))
	if a == b {
		t.Errorf("distinct sets should get distinct regions")
	}
	if r.RegionOf(NewPointsTo(2, 1)) != a {
		t.Errorf("equal sets should get the same region")
	}
	if r.RegionOf(NewPointsTo(3)) != b || a != 0 || b != 1 {
		t.Errorf("regions should be numbered in first-seen order, got %d and %d", a, b)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 regions, got %d", r.Len())
	}
}

func TestParseEdgeKind(t *testing.T) {
	for _, k := range []EdgeKind{Addr, Copy, Store, Load, NormalGep, VariantGep} {
		parsed, err := ParseEdgeKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("could not parse %s back: %v", k, err)
		}
	}
	if _, err := ParseEdgeKind("phi"); !errors.Is(err, ErrUnknownEdgeKind) {
		t.Errorf("expected ErrUnknownEdgeKind, got %v", err)
	}
}
