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

package ssafront_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/analysis/dyck"
	"github.com/awslabs/ar-go-dyck/analysis/ssafront"
	"github.com/awslabs/ar-go-dyck/internal/analysistest"
	"golang.org/x/tools/go/ssa"
)

func loadBasic(t *testing.T) *ssafront.Result {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(filename), "testdata", "src", "basic")
	program, cfg := analysistest.LoadTest(t, dir, []string{})
	res, err := ssafront.Build(analysistest.QuietLogger(cfg), program, ssafront.PackageFilter(cfg))
	if err != nil {
		t.Fatalf("front end failed: %v", err)
	}
	return res
}

func findFunction(t *testing.T, res *ssafront.Result, name string) *ssa.Function {
	for _, f := range res.Functions {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("function %s not found in %v", name, res.Functions)
	return nil
}

func TestBuildEdgeKinds(t *testing.T) {
	res := loadBasic(t)
	g := res.Graph
	for _, kind := range []constraint.EdgeKind{constraint.Addr, constraint.Copy, constraint.Store, constraint.Load,
		constraint.NormalGep, constraint.VariantGep} {
		if g.CountKind(kind) == 0 {
			t.Errorf("expected some %s edges in %s", kind, g.StatsString())
		}
	}
	for _, f := range res.Functions {
		if f.Pkg == nil || f.Pkg.Pkg.Path() != "command-line-arguments" {
			t.Errorf("function %s should have been filtered out", f)
		}
	}
}

func TestBuildCallSites(t *testing.T) {
	res := loadBasic(t)
	id := findFunction(t, res, "id")
	p := res.Values[id.Params[0]]

	callSites := map[constraint.CallSiteID]bool{}
	for _, call := range res.Graph.Calls() {
		if call.Dst == p {
			callSites[call.Site] = true
		}
	}
	if len(callSites) != 2 {
		t.Fatalf("expected two call sites for id, got %v", callSites)
	}
	retSites := map[constraint.CallSiteID]bool{}
	for _, ret := range res.Graph.Returns() {
		if ret.Src == p {
			retSites[ret.Site] = true
		}
	}
	if len(retSites) != 2 {
		t.Fatalf("expected two return sites for id, got %v", retSites)
	}
	for site := range callSites {
		if !retSites[site] {
			t.Errorf("call site %d of id has no return edge", site)
		}
	}

	// the receiver of the interface call flows to the receiver parameter of the method
	box := findFunction(t, res, "box")
	recv := res.Values[box.Params[0]]
	found := false
	for _, call := range res.Graph.Calls() {
		found = found || call.Dst == recv
	}
	if !found {
		t.Errorf("expected a call edge into the receiver of %s", box)
	}
}

func TestBuildPointsTo(t *testing.T) {
	res := loadBasic(t)
	id := findFunction(t, res, "id")
	pts := res.PointsTo.PointsTo(res.Values[id.Params[0]])
	if pts.Len() != 2 {
		t.Errorf("the parameter of id should point to the two allocations, got %s", pts)
	}
	for _, o := range pts.IDs() {
		if res.Graph.Node(o) == nil {
			t.Errorf("object %d is not a node of the graph", o)
		}
	}

	globals := 0
	for v, n := range res.Values {
		if _, ok := v.(*ssa.Global); ok {
			globals++
			if res.PointsTo.PointsTo(n).Len() != 1 {
				t.Errorf("global %s should point to its own object", v)
			}
		}
	}
	if globals == 0 {
		t.Errorf("expected a node for the global")
	}
}

func TestBuildFeedsDyckBuilder(t *testing.T) {
	res := loadBasic(t)
	calls := len(res.Graph.Calls())
	d, err := dyck.Build(analysistest.QuietLogger(nil), res.Graph, res.PointsTo)
	if err != nil {
		t.Fatalf("dyck graph construction failed: %v", err)
	}
	if d.Stats.Calls != calls {
		t.Errorf("expected %d call labels, got %d", calls, d.Stats.Calls)
	}
	if d.Labels.Len() != d.Graph.NumEdges() {
		t.Errorf("every edge should be labeled")
	}
}

func TestBuildEmptyScope(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(filename), "testdata", "src", "basic")
	program, cfg := analysistest.LoadTest(t, dir, []string{})
	res, err := ssafront.Build(analysistest.QuietLogger(cfg), program, func(*ssa.Function) bool { return false })
	if err != nil {
		t.Fatalf("front end failed: %v", err)
	}
	if res.Graph.NumEdges() != 0 || len(res.Sites) != 0 {
		t.Errorf("no function in scope should give an empty graph, got %s", res.Graph.StatsString())
	}
}
