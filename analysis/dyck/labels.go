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
	"fmt"

	"github.com/awslabs/ar-go-dyck/analysis/constraint"
)

// BracketKind is the bracket category of a labeled edge
type BracketKind uint8

const (
	// LoadBracket closes a parenthesis opened by a store with the same label
	LoadBracket BracketKind = iota + 1
	// StoreBracket opens a parenthesis
	StoreBracket
	// CallBracket opens a bracket, its label is the call site
	CallBracket
	// RetBracket closes a bracket opened by the call edges of the same call site
	RetBracket
)

func (k BracketKind) String() string {
	switch k {
	case LoadBracket:
		return "load"
	case StoreBracket:
		return "store"
	case CallBracket:
		return "call"
	case RetBracket:
		return "ret"
	default:
		return fmt.Sprintf("bracket(%d)", uint8(k))
	}
}

// Labels holds the four label maps of a Dyck graph. Once returned by a Builder, the maps are not modified anymore
// and Labels is safe for concurrent reads.
type Labels struct {
	load  map[constraint.EdgeID]Label
	store map[constraint.EdgeID]Label
	call  map[constraint.EdgeID]Label
	ret   map[constraint.EdgeID]Label
}

func newLabels() *Labels {
	return &Labels{
		load:  make(map[constraint.EdgeID]Label),
		store: make(map[constraint.EdgeID]Label),
		call:  make(map[constraint.EdgeID]Label),
		ret:   make(map[constraint.EdgeID]Label),
	}
}

func (l *Labels) byKind(kind BracketKind) map[constraint.EdgeID]Label {
	switch kind {
	case LoadBracket:
		return l.load
	case StoreBracket:
		return l.store
	case CallBracket:
		return l.call
	case RetBracket:
		return l.ret
	}
	return nil
}

// Bracket returns the bracket kind and label of the edge, and false if the edge has no label
func (l *Labels) Bracket(id constraint.EdgeID) (BracketKind, Label, bool) {
	for _, kind := range []BracketKind{LoadBracket, StoreBracket, CallBracket, RetBracket} {
		if lbl, ok := l.byKind(kind)[id]; ok {
			return kind, lbl, true
		}
	}
	return 0, 0, false
}

func (l *Labels) get(kind BracketKind, id constraint.EdgeID) (Label, error) {
	lbl, ok := l.byKind(kind)[id]
	if !ok {
		return 0, fmt.Errorf("%s label of edge %d: %w", kind, id, ErrNotFound)
	}
	return lbl, nil
}

// LoadLabel returns the label of a load edge
func (l *Labels) LoadLabel(id constraint.EdgeID) (Label, error) { return l.get(LoadBracket, id) }

// StoreLabel returns the label of a store edge
func (l *Labels) StoreLabel(id constraint.EdgeID) (Label, error) { return l.get(StoreBracket, id) }

// CallLabel returns the label of a call edge
func (l *Labels) CallLabel(id constraint.EdgeID) (Label, error) { return l.get(CallBracket, id) }

// RetLabel returns the label of a return edge
func (l *Labels) RetLabel(id constraint.EdgeID) (Label, error) { return l.get(RetBracket, id) }

// IsLoadEdge returns true if the edge is labeled as a load
func (l *Labels) IsLoadEdge(id constraint.EdgeID) bool {
	_, ok := l.load[id]
	return ok
}

// IsStoreEdge returns true if the edge is labeled as a store
func (l *Labels) IsStoreEdge(id constraint.EdgeID) bool {
	_, ok := l.store[id]
	return ok
}

// IsCallEdge returns true if the edge is labeled as a call
func (l *Labels) IsCallEdge(id constraint.EdgeID) bool {
	_, ok := l.call[id]
	return ok
}

// IsRetEdge returns true if the edge is labeled as a return
func (l *Labels) IsRetEdge(id constraint.EdgeID) bool {
	_, ok := l.ret[id]
	return ok
}

// Len returns the total number of labeled edges
func (l *Labels) Len() int {
	return len(l.load) + len(l.store) + len(l.call) + len(l.ret)
}

// count returns in how many maps the edge appears
func (l *Labels) count(id constraint.EdgeID) int {
	n := 0
	for _, m := range []map[constraint.EdgeID]Label{l.load, l.store, l.call, l.ret} {
		if _, ok := m[id]; ok {
			n++
		}
	}
	return n
}
