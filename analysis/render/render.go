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

// Package render writes the labeled Dyck graph and the offline constraint graph in a line-oriented text format,
// for inspection and for comparing the output of two runs.
package render

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/analysis/dyck"
)

// ErrSinkUnavailable is returned when the file an export should be written to cannot be created.
// The graph and its labels are not affected.
var ErrSinkUnavailable = errors.New("export sink unavailable")

// bracketNames are the names of the bracket kinds in the export: store opens and load closes a parenthesis,
// call opens and return closes a bracket.
var bracketNames = map[dyck.BracketKind]string{
	dyck.StoreBracket: "op",
	dyck.LoadBracket:  "cp",
	dyck.CallBracket:  "ob",
	dyck.RetBracket:   "cb",
}

// Summary is the number of distinct labels of each bracket family in an export
type Summary struct {
	Edges           int
	LoadStoreLabels int
	CallRetLabels   int
}

// localLabels renumbers the labels of one bracket family from 1, in the order they are first seen
type localLabels map[dyck.Label]int

func (l localLabels) get(lbl dyck.Label) int {
	if n, ok := l[lbl]; ok {
		return n
	}
	n := len(l) + 1
	l[lbl] = n
	return n
}

// sortedEdges returns the edges of g ordered by source, destination and ID
func sortedEdges(g *constraint.Graph) []*constraint.Edge {
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Src != b.Src {
			return a.Src < b.Src
		}
		if a.Dst != b.Dst {
			return a.Dst < b.Dst
		}
		return a.ID < b.ID
	})
	return edges
}

// WriteDyckGraph writes one line per edge of g, in the format <src>-><dst>[label=<kind>--<label>], followed by the
// number of distinct load/store labels and of distinct call/return labels.
// Labels are renumbered from 1 in the order they appear, separately for load/store and for call/return, so that a
// store and a load that match in the graph also match in the output.
// Every edge of g must have a label.
func WriteDyckGraph(w io.Writer, g *constraint.Graph, labels *dyck.Labels) (Summary, error) {
	var summary Summary
	parens := localLabels{}
	brackets := localLabels{}
	for _, e := range sortedEdges(g) {
		kind, lbl, ok := labels.Bracket(e.ID)
		if !ok {
			return summary, fmt.Errorf("%w: %s", dyck.ErrUnlabeledEdge, e)
		}
		var local int
		if kind == dyck.CallBracket || kind == dyck.RetBracket {
			local = brackets.get(lbl)
		} else {
			local = parens.get(lbl)
		}
		if _, err := fmt.Fprintf(w, "%d->%d[label=%s--%d]\n", e.Src, e.Dst, bracketNames[kind], local); err != nil {
			return summary, fmt.Errorf("error while writing graph: %w", err)
		}
		summary.Edges++
	}
	summary.LoadStoreLabels = len(parens)
	summary.CallRetLabels = len(brackets)
	if _, err := fmt.Fprintf(w, "load/store labels: %d\ncall/return labels: %d\n",
		summary.LoadStoreLabels, summary.CallRetLabels); err != nil {
		return summary, fmt.Errorf("error while writing graph: %w", err)
	}
	return summary, nil
}

// ExportDyckGraph writes the Dyck graph to filename, see WriteDyckGraph.
// If the file cannot be created, the error wraps ErrSinkUnavailable.
func ExportDyckGraph(filename string, g *constraint.Graph, labels *dyck.Labels) (Summary, error) {
	var summary Summary
	err := toFile(filename, func(w io.Writer) error {
		var err error
		summary, err = WriteDyckGraph(w, g, labels)
		return err
	})
	return summary, err
}

// WriteOfflineGraph writes one line per edge of the offline graph g, in the format
// <src>-><dst>[kind=<kind>,offset=<offset>], ordered by source, destination and ID.
func WriteOfflineGraph(w io.Writer, g *constraint.Graph) error {
	for _, e := range sortedEdges(g) {
		if _, err := fmt.Fprintf(w, "%d->%d[kind=%s,offset=%d]\n", e.Src, e.Dst, e.Kind, e.Offset); err != nil {
			return fmt.Errorf("error while writing graph: %w", err)
		}
	}
	return nil
}

// ExportOfflineGraph writes the offline graph to filename, see WriteOfflineGraph.
// If the file cannot be created, the error wraps ErrSinkUnavailable.
func ExportOfflineGraph(filename string, g *constraint.Graph) error {
	return toFile(filename, func(w io.Writer) error {
		return WriteOfflineGraph(w, g)
	})
}

func toFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error while writing in file: %w", err)
	}
	return nil
}
