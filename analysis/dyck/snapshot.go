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
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is the version of the snapshot format written by WriteSnapshot
const SnapshotVersion = 1

// Snapshot is a self-contained copy of a labeled Dyck graph, for solvers that do not link this module
type Snapshot struct {
	Version   int            `msgpack:"v"`
	NumNodes  int            `msgpack:"nodes"`
	IndexSize int            `msgpack:"index"`
	Edges     []SnapshotEdge `msgpack:"edges"`
}

// SnapshotEdge is one labeled edge of a Snapshot
type SnapshotEdge struct {
	ID      uint32      `msgpack:"id"`
	Src     uint32      `msgpack:"src"`
	Dst     uint32      `msgpack:"dst"`
	Bracket BracketKind `msgpack:"kind"`
	Label   Label       `msgpack:"label"`
}

// Snapshot returns the snapshot of the result. Edges are ordered by ID.
func (r *Result) Snapshot() Snapshot {
	s := Snapshot{
		Version:   SnapshotVersion,
		NumNodes:  r.Graph.NumNodes(),
		IndexSize: r.Index.Len(),
	}
	for _, e := range r.Graph.Edges() {
		kind, lbl, ok := r.Labels.Bracket(e.ID)
		if !ok {
			continue
		}
		s.Edges = append(s.Edges, SnapshotEdge{
			ID:      uint32(e.ID),
			Src:     uint32(e.Src),
			Dst:     uint32(e.Dst),
			Bracket: kind,
			Label:   lbl,
		})
	}
	return s
}

// WriteSnapshot encodes the snapshot of r to w in msgpack format
func WriteSnapshot(w io.Writer, r *Result) error {
	s := r.Snapshot()
	if err := msgpack.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}

// SaveSnapshot writes the snapshot of r to the file at path
func SaveSnapshot(path string, r *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()
	return WriteSnapshot(file, r)
}
