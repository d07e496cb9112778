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

package dyck

import (
	"errors"
	"fmt"
	"time"

	"github.com/awslabs/ar-go-dyck/analysis/config"
	"github.com/awslabs/ar-go-dyck/analysis/constraint"
)

var (
	// ErrUnknownEdgeKind is returned when the graph contains an edge whose kind the builder does not handle
	ErrUnknownEdgeKind = constraint.ErrUnknownEdgeKind

	// ErrMissingCopyEdge is returned when a call or return record has no copy edge in the graph
	ErrMissingCopyEdge = errors.New("missing copy edge for call or return")

	// ErrConflictingLabel is returned when one copy edge is recorded for two different call sites, or both as a
	// call and a return
	ErrConflictingLabel = errors.New("conflicting call or return label")

	// ErrUnlabeledEdge is returned when an edge of the final graph does not have exactly one label
	ErrUnlabeledEdge = errors.New("edge does not have exactly one label")

	// ErrAlreadyBuilt is returned when Build is called twice on the same builder
	ErrAlreadyBuilt = errors.New("dyck graph already built")
)

// Stats counts what the builder did
type Stats struct {
	// PointsToSets is the number of distinct points-to sets at loads and stores
	PointsToSets int
	// Merged is the number of points-to sets whose representative is a proper superset
	Merged int
	// Loads and Stores are the number of original load and store edges labeled from the index
	Loads  int
	Stores int
	// Calls and Returns are the number of call and return edges labeled with their call site
	Calls   int
	Returns int
	// Decomposed is the number of direct edges replaced by a store/load pair
	Decomposed int
	// Addrs is the number of address-of edges removed
	Addrs int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d points-to sets (%d merged), %d loads, %d stores, %d calls, %d returns, "+
		"%d edges decomposed, %d addrs removed",
		s.PointsToSets, s.Merged, s.Loads, s.Stores, s.Calls, s.Returns, s.Decomposed, s.Addrs)
}

// Result is the labeled Dyck graph. None of its components are modified after Build returns.
type Result struct {
	// Graph is the graph given to the builder, rewritten so that it only contains load and store edges
	// (including the decomposed edges) and call and return copy edges
	Graph *constraint.Graph
	// Index is the points-to equivalence index the load and store labels come from
	Index *EquivalenceIndex
	// Labels maps every edge of Graph to its bracket kind and label
	Labels *Labels
	// Stats summarizes the construction
	Stats Stats
}

// A Builder turns a constraint graph into a Dyck graph: every edge ends up in exactly one of the load, store,
// call and return label maps. Loads and stores are labeled by the representative of the points-to set they access,
// calls and returns by their call site, and every other direct edge is split into a store and a load that share a
// fresh label.
//
// A Builder owns the graph, the index and the label maps for the duration of Build. It can be used only once.
type Builder struct {
	logger *config.LogGroup
	graph  *constraint.Graph
	oracle constraint.PointsToOracle

	index     *EquivalenceIndex
	labels    *Labels
	nextFresh Label
	stats     Stats
	built     bool
}

// NewBuilder returns a builder that will rewrite g in place, querying oracle for points-to sets
func NewBuilder(logger *config.LogGroup, g *constraint.Graph, oracle constraint.PointsToOracle) *Builder {
	return &Builder{
		logger: logger,
		graph:  g,
		oracle: oracle,
		index:  NewEquivalenceIndex(),
		labels: newLabels(),
	}
}

// Build runs the construction. Any error is fatal: the graph may have been partially rewritten and must be
// discarded.
func (b *Builder) Build() (*Result, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true
	start := time.Now()

	b.indexPointsTo()
	merged, err := b.index.ComputeRepresentatives()
	if err != nil {
		return nil, err
	}
	b.stats.Merged = merged
	b.stats.PointsToSets = b.index.Len()
	b.logger.Debugf("Indexed %d points-to sets, %d merged into a superset", b.stats.PointsToSets, merged)

	if err := b.labelLoadsAndStores(); err != nil {
		return nil, err
	}
	if err := b.labelCallsAndReturns(); err != nil {
		return nil, err
	}
	if err := b.decomposeDirectEdges(); err != nil {
		return nil, err
	}
	b.removeAddrs()
	if err := b.checkTotality(); err != nil {
		return nil, err
	}

	b.logger.Infof("Dyck graph built in %.3f s: %s", time.Since(start).Seconds(), b.stats)
	b.logger.Debugf("Dyck graph: %s", b.graph.StatsString())
	return &Result{Graph: b.graph, Index: b.index, Labels: b.labels, Stats: b.stats}, nil
}

// indexPointsTo adds the points-to sets of the pointers of every load and store to the index.
func (b *Builder) indexPointsTo() {
	for _, load := range b.graph.EdgesOfKind(constraint.Load) {
		b.index.Add(b.oracle.PointsTo(load.Src))
	}
	for _, store := range b.graph.EdgesOfKind(constraint.Store) {
		b.index.Add(b.oracle.PointsTo(store.Dst))
	}
}

func (b *Builder) labelLoadsAndStores() error {
	for _, load := range b.graph.EdgesOfKind(constraint.Load) {
		lbl, err := b.index.Label(b.oracle.PointsTo(load.Src))
		if err != nil {
			return fmt.Errorf("load %s: %w", load, err)
		}
		b.labels.load[load.ID] = lbl
		b.stats.Loads++
		b.logger.Tracef("%s: load label %d", load, lbl)
	}
	for _, store := range b.graph.EdgesOfKind(constraint.Store) {
		lbl, err := b.index.Label(b.oracle.PointsTo(store.Dst))
		if err != nil {
			return fmt.Errorf("store %s: %w", store, err)
		}
		b.labels.store[store.ID] = lbl
		b.stats.Stores++
		b.logger.Tracef("%s: store label %d", store, lbl)
	}
	return nil
}

func (b *Builder) labelCallsAndReturns() error {
	for _, call := range b.graph.Calls() {
		if err := b.labelInterproc(call, b.labels.call, b.labels.ret); err != nil {
			return err
		}
	}
	for _, ret := range b.graph.Returns() {
		if err := b.labelInterproc(ret, b.labels.ret, b.labels.call); err != nil {
			return err
		}
	}
	b.stats.Calls = len(b.labels.call)
	b.stats.Returns = len(b.labels.ret)
	return nil
}

func (b *Builder) labelInterproc(rec constraint.InterprocEdge, labels, other map[constraint.EdgeID]Label) error {
	e := b.graph.FindEdge(constraint.Copy, rec.Src, rec.Dst, 0)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrMissingCopyEdge, rec)
	}
	lbl := Label(rec.Site)
	if prev, ok := labels[e.ID]; ok && prev != lbl {
		return fmt.Errorf("%w: %s also labeled with site %d", ErrConflictingLabel, rec, prev)
	}
	if _, ok := other[e.ID]; ok {
		return fmt.Errorf("%w: %s is both a call and a return", ErrConflictingLabel, rec)
	}
	labels[e.ID] = lbl
	b.logger.Tracef("%s: %s label %d", e, rec.Kind, lbl)
	return nil
}

// decomposeDirectEdges replaces every direct edge that is not a call or a return with a store into a fresh node
// followed by a load from it. Each pair gets its own label, strictly above every label of the index.
func (b *Builder) decomposeDirectEdges() error {
	var toSplit []*constraint.Edge
	for _, e := range b.graph.Edges() {
		switch e.Kind {
		case constraint.Load, constraint.Store, constraint.Addr:
			continue
		case constraint.Copy, constraint.NormalGep, constraint.VariantGep:
			if b.labels.IsCallEdge(e.ID) || b.labels.IsRetEdge(e.ID) {
				continue
			}
			toSplit = append(toSplit, e)
		default:
			return fmt.Errorf("%w: edge %d has kind %s", ErrUnknownEdgeKind, e.ID, e.Kind)
		}
	}

	b.nextFresh = Label(b.index.Len() + 1)
	for _, e := range toSplit {
		lbl := b.nextFresh
		b.nextFresh++
		b.graph.RemoveEdge(e.ID)
		n := b.graph.AddDummyNode()
		store := b.graph.AddStore(e.Src, n)
		load := b.graph.AddLoad(n, e.Dst)
		b.labels.store[store.ID] = lbl
		b.labels.load[load.ID] = lbl
		b.stats.Decomposed++
		b.logger.Tracef("%s: split through dummy node %d with label %d", e, n, lbl)
	}
	return nil
}

func (b *Builder) removeAddrs() {
	for _, addr := range b.graph.EdgesOfKind(constraint.Addr) {
		b.graph.RemoveEdge(addr.ID)
		b.stats.Addrs++
	}
}

func (b *Builder) checkTotality() error {
	for _, e := range b.graph.Edges() {
		if n := b.labels.count(e.ID); n != 1 {
			return fmt.Errorf("%w: %s has %d labels", ErrUnlabeledEdge, e, n)
		}
	}
	return nil
}

// Build is a shortcut for NewBuilder(logger, g, oracle).Build()
func Build(logger *config.LogGroup, g *constraint.Graph, oracle constraint.PointsToOracle) (*Result, error) {
	return NewBuilder(logger, g, oracle).Build()
}
