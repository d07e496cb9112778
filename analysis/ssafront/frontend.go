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

// Package ssafront builds a constraint graph from the SSA form of a Go program, together with a points-to oracle
// computed by the pointer analysis of golang.org/x/tools/go/pointer.
//
// Every pointer-like value of the selected functions gets a value node, and every allocation site, global and
// function gets an object node. Instructions are translated as follows:
//
//	x = new T, make, &global, func   addr   obj -> x
//	*a = v                            store  v -> a
//	x = *p                            load   p -> x
//	x = &p.f                          gep    p -> x (offset f)
//	x = &p[i]                         vgep   p -> x
//	phi, conversions, slicing...      copy   y -> x
//
// Each call instruction is a call site. Arguments flow to the parameters of each callee through call edges, and
// results flow back to the call value through return edges, both labeled by the call site. Arguments first go
// through a node specific to the call site, so that two call sites never share a call edge.
package ssafront

import (
	"fmt"
	"go/token"
	"sort"
	"time"

	"github.com/awslabs/ar-go-dyck/analysis/config"
	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/internal/analysisutil"
	"github.com/awslabs/ar-go-dyck/internal/funcutil"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Result is the output of the front end
type Result struct {
	// Graph is the constraint graph of the program
	Graph *constraint.Graph
	// PointsTo maps every value node to the object nodes the pointer analysis says it may point to
	PointsTo constraint.MapOracle
	// Values maps the SSA values to their nodes
	Values map[ssa.Value]constraint.NodeID
	// Objects maps allocation sites, globals and functions to their object nodes
	Objects map[ssa.Value]constraint.NodeID
	// Sites maps call instructions to their call site ID
	Sites map[ssa.CallInstruction]constraint.CallSiteID
	// Functions is the list of functions that were translated, sorted by name
	Functions []*ssa.Function
}

type builder struct {
	logger   *config.LogGroup
	prog     *ssa.Program
	res      *Result
	ptr      *pointer.Result
	callees  map[ssa.CallInstruction][]*ssa.Function
	inScope  map[*ssa.Function]bool
	siteArgs map[siteArg]constraint.NodeID // argument nodes of each call site
}

type siteArg struct {
	site  ssa.CallInstruction
	index int
}

// Build translates the functions of the program accepted by filter into a constraint graph.
// A nil filter accepts every function with a body. The program must have a main package, from which the pointer
// analysis starts.
func Build(logger *config.LogGroup, prog *ssa.Program, filter func(*ssa.Function) bool) (*Result, error) {
	start := time.Now()
	var functions []*ssa.Function
	for f := range ssautil.AllFunctions(prog) {
		if len(f.Blocks) > 0 && (filter == nil || filter(f)) {
			functions = append(functions, f)
		}
	}
	sort.Slice(functions, func(i, j int) bool { return functions[i].String() < functions[j].String() })
	logger.Debugf("SSA front end: %d functions in scope", len(functions))

	ptr, err := doPointerAnalysis(prog, functions)
	if err != nil {
		return nil, fmt.Errorf("pointer analysis failed: %w", err)
	}
	logger.Infof("Pointer analysis done in %.3f s", time.Since(start).Seconds())

	b := &builder{
		logger: logger,
		prog:   prog,
		res: &Result{
			Graph:     constraint.NewGraph(),
			PointsTo:  constraint.MapOracle{},
			Values:    make(map[ssa.Value]constraint.NodeID),
			Objects:   make(map[ssa.Value]constraint.NodeID),
			Sites:     make(map[ssa.CallInstruction]constraint.CallSiteID),
			Functions: functions,
		},
		ptr:      ptr,
		callees:  make(map[ssa.CallInstruction][]*ssa.Function),
		inScope:  make(map[*ssa.Function]bool, len(functions)),
		siteArgs: make(map[siteArg]constraint.NodeID),
	}
	for _, f := range functions {
		b.inScope[f] = true
	}
	b.collectCallees()

	for _, f := range functions {
		b.translateFunction(f)
	}
	for _, f := range functions {
		b.translateCalls(f)
	}
	b.computePointsTo()

	logger.Infof("Constraint graph built in %.3f s: %s", time.Since(start).Seconds(), b.res.Graph.StatsString())
	return b.res, nil
}

// PackageFilter returns the function filter of the config: a function is in scope when its package matches the
// pkg-filter option. Synthetic functions without a package are never in scope.
func PackageFilter(cfg *config.Config) func(*ssa.Function) bool {
	return func(f *ssa.Function) bool {
		return f.Pkg != nil && cfg.MatchPkgFilter(f.Pkg.Pkg.Path())
	}
}

// collectCallees records the callees of every call site, from the call graph of the pointer analysis
func (b *builder) collectCallees() {
	if b.ptr.CallGraph == nil {
		return
	}
	_ = callgraph.GraphVisitEdges(b.ptr.CallGraph, func(e *callgraph.Edge) error {
		if e.Site != nil && e.Callee.Func != nil {
			b.callees[e.Site] = append(b.callees[e.Site], e.Callee.Func)
		}
		return nil
	})
	for site, fs := range b.callees {
		sort.Slice(fs, func(i, j int) bool { return fs[i].String() < fs[j].String() })
		b.callees[site] = funcutil.Compact(fs)
	}
}

// valueNode returns the node of a pointer-like value. The second result is false for values that cannot point.
func (b *builder) valueNode(v ssa.Value) (constraint.NodeID, bool) {
	if !isPointerLike(v) {
		return 0, false
	}
	if id, ok := b.res.Values[v]; ok {
		return id, true
	}
	id := b.newNode(analysisutil.ValueName(v))
	b.res.Values[v] = id
	switch v.(type) {
	case *ssa.Global, *ssa.Function:
		// globals are addresses, functions are values of their own object
		b.res.Graph.AddAddr(b.objectNode(v), id)
	}
	return id, true
}

// objectNode returns the node of the memory object allocated by v
func (b *builder) objectNode(v ssa.Value) constraint.NodeID {
	if id, ok := b.res.Objects[v]; ok {
		return id
	}
	id := b.newNode("obj:" + analysisutil.ValueName(v))
	b.res.Objects[v] = id
	return id
}

func (b *builder) newNode(name string) constraint.NodeID {
	id := constraint.NodeID(b.res.Graph.Order())
	if _, err := b.res.Graph.AddNode(id, name); err != nil {
		// Order is always a fresh ID
		panic(err)
	}
	return id
}

func (b *builder) copyEdge(src, dst ssa.Value) {
	s, ok1 := b.valueNode(src)
	d, ok2 := b.valueNode(dst)
	if ok1 && ok2 {
		b.res.Graph.AddCopy(s, d)
	}
}

// translateFunction adds the intra-procedural edges of f
//
//gocyclo:ignore
func (b *builder) translateFunction(f *ssa.Function) {
	g := b.res.Graph
	for _, param := range f.Params {
		b.valueNode(param)
	}
	for _, block := range f.Blocks {
		for _, instr := range block.Instrs {
			switch x := instr.(type) {
			case *ssa.Alloc, *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan:
				v := x.(ssa.Value)
				if id, ok := b.valueNode(v); ok {
					g.AddAddr(b.objectNode(v), id)
				}
			case *ssa.MakeClosure:
				if id, ok := b.valueNode(x); ok {
					g.AddAddr(b.objectNode(x), id)
				}
				if fn, ok := x.Fn.(*ssa.Function); ok && b.inScope[fn] {
					for i, binding := range x.Bindings {
						if i < len(fn.FreeVars) {
							b.copyEdge(binding, fn.FreeVars[i])
						}
					}
				}
			case *ssa.Store:
				val, ok1 := b.valueNode(x.Val)
				addr, ok2 := b.valueNode(x.Addr)
				if ok1 && ok2 {
					g.AddStore(val, addr)
				}
			case *ssa.UnOp:
				if x.Op == token.MUL {
					ptr, ok1 := b.valueNode(x.X)
					dst, ok2 := b.valueNode(x)
					if ok1 && ok2 {
						g.AddLoad(ptr, dst)
					}
				} else if x.Op == token.ARROW {
					b.copyEdge(x.X, x)
				}
			case *ssa.FieldAddr:
				src, ok1 := b.valueNode(x.X)
				dst, ok2 := b.valueNode(x)
				if ok1 && ok2 {
					g.AddNormalGep(src, dst, uint32(x.Field))
				}
			case *ssa.IndexAddr:
				src, ok1 := b.valueNode(x.X)
				dst, ok2 := b.valueNode(x)
				if ok1 && ok2 {
					g.AddVariantGep(src, dst)
				}
			case *ssa.Phi:
				for _, edge := range x.Edges {
					b.copyEdge(edge, x)
				}
			case *ssa.ChangeType:
				b.copyEdge(x.X, x)
			case *ssa.Convert:
				b.copyEdge(x.X, x)
			case *ssa.ChangeInterface:
				b.copyEdge(x.X, x)
			case *ssa.MakeInterface:
				b.copyEdge(x.X, x)
			case *ssa.TypeAssert:
				b.copyEdge(x.X, x)
			case *ssa.Slice:
				b.copyEdge(x.X, x)
			case *ssa.SliceToArrayPointer:
				b.copyEdge(x.X, x)
			case *ssa.Field:
				b.copyEdge(x.X, x)
			case *ssa.Index:
				b.copyEdge(x.X, x)
			case *ssa.Lookup:
				b.copyEdge(x.X, x)
			case *ssa.Extract:
				// extractions of call results are connected by return edges
				if _, isCall := x.Tuple.(*ssa.Call); !isCall {
					b.copyEdge(x.Tuple, x)
				}
			}
		}
	}
}

// translateCalls adds the call and return edges of the call sites in f
func (b *builder) translateCalls(f *ssa.Function) {
	for _, block := range f.Blocks {
		for _, instr := range block.Instrs {
			site, ok := instr.(ssa.CallInstruction)
			if !ok {
				continue
			}
			id := constraint.CallSiteID(len(b.res.Sites))
			b.res.Sites[site] = id
			for _, callee := range b.callees[site] {
				if !b.inScope[callee] {
					b.logger.Tracef("%s: callee %s not in scope", site, callee)
					continue
				}
				b.bindArgs(site, id, callee)
				b.bindResults(site, id, callee)
			}
		}
	}
}

// args returns the actual arguments of the call, with the receiver first for interface method calls
func args(common *ssa.CallCommon) []ssa.Value {
	if common.IsInvoke() {
		return append([]ssa.Value{common.Value}, common.Args...)
	}
	return common.Args
}

func (b *builder) bindArgs(site ssa.CallInstruction, id constraint.CallSiteID, callee *ssa.Function) {
	g := b.res.Graph
	actuals := args(site.Common())
	for i, actual := range actuals {
		if i >= len(callee.Params) {
			break
		}
		src, ok1 := b.valueNode(actual)
		formal, ok2 := b.valueNode(callee.Params[i])
		if !ok1 || !ok2 {
			continue
		}
		at := b.siteArgNode(site, i, src)
		g.AddCall(at, formal, id)
	}
}

// siteArgNode returns the node holding the i-th argument at the call site, connected to the argument's value node.
func (b *builder) siteArgNode(site ssa.CallInstruction, i int, src constraint.NodeID) constraint.NodeID {
	key := siteArg{site: site, index: i}
	if at, ok := b.siteArgs[key]; ok {
		return at
	}
	at := b.newNode(fmt.Sprintf("%s#arg%d", b.prog.Fset.Position(site.Pos()), i))
	b.siteArgs[key] = at
	b.res.Graph.AddCopy(src, at)
	return at
}

func (b *builder) bindResults(site ssa.CallInstruction, id constraint.CallSiteID, callee *ssa.Function) {
	call, ok := site.(*ssa.Call)
	if !ok {
		return
	}
	targets := resultTargets(call)
	for _, block := range callee.Blocks {
		for _, instr := range block.Instrs {
			ret, ok := instr.(*ssa.Return)
			if !ok {
				continue
			}
			for i, result := range ret.Results {
				if i >= len(targets) || targets[i] == nil {
					continue
				}
				src, ok1 := b.valueNode(result)
				dst, ok2 := b.valueNode(targets[i])
				if ok1 && ok2 {
					b.res.Graph.AddReturn(src, dst, id)
				}
			}
		}
	}
}

// resultTargets returns, for each result of the called function, the value that receives it at the call site
func resultTargets(call *ssa.Call) []ssa.Value {
	sig := call.Common().Signature()
	if sig == nil {
		return nil
	}
	n := sig.Results().Len()
	if n == 1 {
		return []ssa.Value{call}
	}
	targets := make([]ssa.Value, n)
	if refs := call.Referrers(); refs != nil {
		for _, ref := range *refs {
			if ext, ok := ref.(*ssa.Extract); ok && ext.Index < n {
				targets[ext.Index] = ext
			}
		}
	}
	return targets
}

// computePointsTo fills the oracle from the pointer analysis queries. Values are visited in node order so that
// object nodes discovered here are numbered deterministically.
func (b *builder) computePointsTo() {
	values := make([]ssa.Value, 0, len(b.res.Values))
	for v := range b.res.Values {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return b.res.Values[values[i]] < b.res.Values[values[j]] })

	for _, v := range values {
		id := b.res.Values[v]
		switch v.(type) {
		case *ssa.Global, *ssa.Function:
			b.res.PointsTo.Set(id, b.objectNode(v))
			continue
		}
		p, ok := b.ptr.Queries[v]
		if !ok {
			continue
		}
		var objs []constraint.NodeID
		for _, label := range p.PointsTo().Labels() {
			if label.Value() != nil {
				objs = append(objs, b.objectNode(label.Value()))
			}
		}
		b.res.PointsTo.Set(id, objs...)
	}
}
