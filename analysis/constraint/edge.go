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
	"fmt"
	"strings"
)

// NodeID identifies a node of the constraint graph. Node IDs are dense and never reused.
type NodeID uint32

// EdgeID identifies an edge of the constraint graph. An edge ID is never reused, even once the edge has been
// removed, so it is safe to key label maps by EdgeID.
type EdgeID uint32

// CallSiteID identifies a call site. Call and return edges of the same call site carry the same CallSiteID.
type CallSiteID uint32

// EdgeKind is the kind of constraint carried by an edge. The set of kinds is closed: any value outside the
// constants below is malformed.
type EdgeKind uint8

const (
	// Addr is dst = &src: src is a memory object and dst a pointer to it
	Addr EdgeKind = iota + 1

	// Copy is dst = src
	Copy

	// Store is *dst = src
	Store

	// Load is dst = *src
	Load

	// NormalGep is dst = &src.f, where the field offset f is a constant carried by the edge
	NormalGep

	// VariantGep is dst = &src[i], where the offset i is not known statically
	VariantGep
)

var edgeKindNames = [...]string{
	Addr:       "addr",
	Copy:       "copy",
	Store:      "store",
	Load:       "load",
	NormalGep:  "gep",
	VariantGep: "vgep",
}

// Valid returns true when k is one of the edge kinds the graph understands.
func (k EdgeKind) Valid() bool {
	return k >= Addr && k <= VariantGep
}

// IsDirect returns true for the kinds that propagate points-to sets directly between two pointers
// (copy and field offsets).
func (k EdgeKind) IsDirect() bool {
	return k == Copy || k == NormalGep || k == VariantGep
}

func (k EdgeKind) String() string {
	if k.Valid() {
		return edgeKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseEdgeKind returns the edge kind named s. Both the short names ("gep", "vgep") and the long names
// ("normal-gep", "variant-gep") of the offset kinds are accepted.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "addr", "address":
		return Addr, nil
	case "copy":
		return Copy, nil
	case "store":
		return Store, nil
	case "load":
		return Load, nil
	case "gep", "normal-gep", "normalgep":
		return NormalGep, nil
	case "vgep", "variant-gep", "variantgep":
		return VariantGep, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEdgeKind, s)
}

// An Edge is a directed constraint between two nodes. Endpoints are references by ID: the graph owns both the
// nodes and the edges.
type Edge struct {
	ID   EdgeID
	Kind EdgeKind
	Src  NodeID
	Dst  NodeID

	// Offset is the field offset of a NormalGep edge. It is zero for every other kind.
	Offset uint32
}

func (e *Edge) String() string {
	if e.Kind == NormalGep {
		return fmt.Sprintf("%d -[%s+%d]-> %d", e.Src, e.Kind, e.Offset, e.Dst)
	}
	return fmt.Sprintf("%d -[%s]-> %d", e.Src, e.Kind, e.Dst)
}

// InterprocKind distinguishes call edges (actual to formal) from return edges (callee result to call value).
type InterprocKind uint8

const (
	// CallEdge flows from an argument at a call site to the formal parameter of the callee
	CallEdge InterprocKind = iota + 1
	// RetEdge flows from a returned value of the callee to the value of the call at the call site
	RetEdge
)

func (k InterprocKind) String() string {
	switch k {
	case CallEdge:
		return "call"
	case RetEdge:
		return "ret"
	default:
		return fmt.Sprintf("interproc(%d)", uint8(k))
	}
}

// An InterprocEdge records that the copy edge Src -> Dst models parameter passing (CallEdge) or value return
// (RetEdge) at call site Site. The record refers to its copy edge by endpoints only: the copy edge itself lives
// in the graph.
type InterprocEdge struct {
	Kind InterprocKind
	Src  NodeID
	Dst  NodeID
	Site CallSiteID
}

func (e InterprocEdge) String() string {
	return fmt.Sprintf("%d -[%s@%d]-> %d", e.Src, e.Kind, e.Site, e.Dst)
}
