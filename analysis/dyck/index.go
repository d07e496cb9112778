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

	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"golang.org/x/exp/slices"
)

var (
	// ErrNotFound is returned when a points-to set or an edge label is looked up before it was recorded
	ErrNotFound = errors.New("not found")

	// ErrRepresentativeCycle is returned when setting a representative would make the representative relation cyclic
	ErrRepresentativeCycle = errors.New("representative cycle")
)

// Label is an edge label. Load and store labels are drawn from the equivalence index and the fresh label counter,
// call and return labels are call site IDs.
type Label uint32

// EquivalenceIndex numbers the points-to sets seen at load and store sites and maps each set to a representative
// superset. Labels are dense, start at 0 and follow the order in which sets are first added; a label is never
// reused. The representative relation is a forest over labels: every set is its own representative until
// SetRepresentative or ComputeRepresentatives points it to another set.
//
// The zero value is not usable, use NewEquivalenceIndex.
type EquivalenceIndex struct {
	ids    map[string]Label
	sets   []constraint.PointsTo
	parent []Label
}

// NewEquivalenceIndex returns an empty index
func NewEquivalenceIndex() *EquivalenceIndex {
	return &EquivalenceIndex{ids: make(map[string]Label)}
}

// Add records pts and returns its label. Adding a set that is already present returns its existing label.
func (x *EquivalenceIndex) Add(pts constraint.PointsTo) Label {
	if l, ok := x.ids[pts.Key()]; ok {
		return l
	}
	l := Label(len(x.sets))
	x.ids[pts.Key()] = l
	x.sets = append(x.sets, pts)
	x.parent = append(x.parent, l)
	return l
}

// Len returns the number of distinct points-to sets in the index
func (x *EquivalenceIndex) Len() int {
	return len(x.sets)
}

// Sets returns the points-to sets in the order they were first added. The i-th set has label i.
func (x *EquivalenceIndex) Sets() []constraint.PointsTo {
	return slices.Clone(x.sets)
}

// ID returns the label assigned to pts itself, regardless of its representative
func (x *EquivalenceIndex) ID(pts constraint.PointsTo) (Label, error) {
	if l, ok := x.ids[pts.Key()]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("points-to set %s: %w", pts, ErrNotFound)
}

// find returns the root of l, compressing the path on the way
func (x *EquivalenceIndex) find(l Label) Label {
	root := l
	for x.parent[root] != root {
		root = x.parent[root]
	}
	for x.parent[l] != root {
		next := x.parent[l]
		x.parent[l] = root
		l = next
	}
	return root
}

// SetRepresentative records that b is the representative of a. Both sets must have been added.
// Setting a as its own representative resets it. If a is already on the representative chain of b, the call fails
// with ErrRepresentativeCycle and the index is unchanged.
func (x *EquivalenceIndex) SetRepresentative(a, b constraint.PointsTo) error {
	la, err := x.ID(a)
	if err != nil {
		return err
	}
	lb, err := x.ID(b)
	if err != nil {
		return err
	}
	return x.setParent(la, lb)
}

func (x *EquivalenceIndex) setParent(la, lb Label) error {
	if la != lb {
		for cur := lb; ; cur = x.parent[cur] {
			if cur == la {
				return fmt.Errorf("%w: %s -> %s", ErrRepresentativeCycle, x.sets[la], x.sets[lb])
			}
			if x.parent[cur] == cur {
				break
			}
		}
	}
	x.parent[la] = lb
	return nil
}

// Representative returns the representative of pts, following the chain to its fixed point:
// Representative(Representative(p)) == Representative(p).
func (x *EquivalenceIndex) Representative(pts constraint.PointsTo) (constraint.PointsTo, error) {
	l, err := x.ID(pts)
	if err != nil {
		return constraint.PointsTo{}, err
	}
	return x.sets[x.find(l)], nil
}

// Label returns the label of the representative of pts. Sets that share a representative share a label.
func (x *EquivalenceIndex) Label(pts constraint.PointsTo) (Label, error) {
	l, err := x.ID(pts)
	if err != nil {
		return 0, err
	}
	return x.find(l), nil
}

// ComputeRepresentatives sets the representative of every set that has a proper superset in the index to its
// largest proper superset. When several supersets have the largest size, the one added first wins.
// The representative of a set without a proper superset is left unchanged.
//
// The cost is quadratic in the number of sets. It returns the number of sets whose representative was set.
func (x *EquivalenceIndex) ComputeRepresentatives() (int, error) {
	n := 0
	for a, pa := range x.sets {
		best := -1
		for b, pb := range x.sets {
			if a == b || pb.Len() <= pa.Len() || !pb.Contains(pa) {
				continue
			}
			// iteration is in label order, a strictly larger size is required to replace the candidate
			if best < 0 || pb.Len() > x.sets[best].Len() {
				best = b
			}
		}
		if best < 0 {
			continue
		}
		if err := x.setParent(Label(a), Label(best)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
