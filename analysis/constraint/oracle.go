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

// PointsToOracle supplies the points-to set of any node. The answer must be stable for the duration of a graph
// construction: asking twice about the same node yields equal sets.
type PointsToOracle interface {
	PointsTo(id NodeID) PointsTo
}

// RegionID identifies a memory region
type RegionID uint32

// RegionResolver groups points-to sets into memory regions
type RegionResolver interface {
	RegionOf(pts PointsTo) RegionID
}

// MapOracle is a PointsToOracle backed by a map. Nodes absent from the map point to nothing.
type MapOracle map[NodeID]PointsTo

// PointsTo returns the set stored for id, or the empty set
func (m MapOracle) PointsTo(id NodeID) PointsTo {
	return m[id]
}

// Set sets the points-to set of id to objs
func (m MapOracle) Set(id NodeID, objs ...NodeID) {
	m[id] = NewPointsTo(objs...)
}

// RegionTable is a RegionResolver that assigns one region per distinct points-to set, numbering regions densely
// in the order the sets are first seen.
type RegionTable struct {
	ids  map[string]RegionID
	sets []PointsTo
}

// NewRegionTable returns an empty region table
func NewRegionTable() *RegionTable {
	return &RegionTable{ids: make(map[string]RegionID)}
}

// RegionOf returns the region of pts, creating it if pts has not been seen before
func (r *RegionTable) RegionOf(pts PointsTo) RegionID {
	if id, ok := r.ids[pts.Key()]; ok {
		return id
	}
	id := RegionID(len(r.sets))
	r.ids[pts.Key()] = id
	r.sets = append(r.sets, pts)
	return id
}

// Len returns the number of regions
func (r *RegionTable) Len() int {
	return len(r.sets)
}
