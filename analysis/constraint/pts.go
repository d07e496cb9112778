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
	"golang.org/x/tools/container/intsets"
)

// PointsTo is an immutable set of node IDs: the memory objects a pointer may refer to.
// The zero value is the empty set. Two PointsTo are equal iff they contain the same IDs, and then they have the
// same Key.
type PointsTo struct {
	set *intsets.Sparse
	key string
}

// NewPointsTo returns the points-to set containing exactly the ids
func NewPointsTo(ids ...NodeID) PointsTo {
	s := &intsets.Sparse{}
	for _, id := range ids {
		s.Insert(int(id))
	}
	return fromSparse(s)
}

func fromSparse(s *intsets.Sparse) PointsTo {
	if s.IsEmpty() {
		return PointsTo{}
	}
	return PointsTo{set: s, key: s.String()}
}

// Len returns the number of objects in the set
func (p PointsTo) Len() int {
	if p.set == nil {
		return 0
	}
	return p.set.Len()
}

// IsEmpty returns true if the set has no elements
func (p PointsTo) IsEmpty() bool {
	return p.Len() == 0
}

// Contains returns true if q is a subset of p (p ⊇ q). Every set contains the empty set.
func (p PointsTo) Contains(q PointsTo) bool {
	if q.set == nil {
		return true
	}
	if p.set == nil {
		return false
	}
	return q.set.SubsetOf(p.set)
}

// Equals returns true if p and q have the same elements
func (p PointsTo) Equals(q PointsTo) bool {
	return p.key == q.key
}

// IDs returns the elements of the set in increasing order
func (p PointsTo) IDs() []NodeID {
	if p.set == nil {
		return nil
	}
	var ints []int
	ints = p.set.AppendTo(ints)
	ids := make([]NodeID, len(ints))
	for i, x := range ints {
		ids[i] = NodeID(x)
	}
	return ids
}

// Key returns a canonical string for the set, usable as a map key
func (p PointsTo) Key() string {
	if p.set == nil {
		return "{}"
	}
	return p.key
}

func (p PointsTo) String() string {
	return p.Key()
}
