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

package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-dyck/analysis/config"
	"github.com/awslabs/ar-go-dyck/analysis/constraint"
	"github.com/awslabs/ar-go-dyck/analysis/dyck"
)

func quietLogger() *config.LogGroup {
	l := config.NewLogGroup(config.NewDefault())
	l.SetAllOutput(io.Discard)
	return l
}

// sampleInput is p = &o; *p = q; r = *p; s = r; f(s) at site 3
func sampleInput(name string) Input {
	g := constraint.NewGraph()
	g.AddAddr(10, 0)
	g.AddStore(1, 0)
	g.AddLoad(0, 2)
	g.AddCopy(2, 3)
	g.AddCall(3, 4, 3)
	pts := constraint.MapOracle{}
	pts.Set(0, 10)
	return Input{Name: name, Graph: g, PointsTo: pts}
}

func TestRunWritesReports(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Offline = true
	cfg.ExportOffline = true
	cfg.ExportDyck = true
	cfg.Snapshot = true
	cfg.ReportsDir = t.TempDir()

	out, err := Run(cfg, quietLogger(), sampleInput("sample"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(out.Reports) != 3 {
		t.Fatalf("expected three reports, got %v", out.Reports)
	}
	for _, name := range []string{"sample.offline.txt", "sample.dyck.txt", "sample.dyck.msgpack"} {
		if _, err := os.Stat(filepath.Join(cfg.ReportsDir, name)); err != nil {
			t.Errorf("missing report %s: %v", name, err)
		}
	}
	if out.Exports.LoadStoreLabels != 2 || out.Exports.CallRetLabels != 1 {
		t.Errorf("unexpected export summary %+v", out.Exports)
	}

	f, err := os.Open(filepath.Join(cfg.ReportsDir, "sample.dyck.msgpack"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := dyck.ReadSnapshot(f)
	if err != nil {
		t.Fatalf("could not read snapshot: %v", err)
	}
	if len(s.Edges) != out.Dyck.Graph.NumEdges() {
		t.Errorf("snapshot has %d edges, graph has %d", len(s.Edges), out.Dyck.Graph.NumEdges())
	}
}

func TestRunOfflineGraphIsIndependent(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Offline = true
	out, err := Run(cfg, quietLogger(), sampleInput("sample"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, kind := range []constraint.EdgeKind{constraint.Load, constraint.Store, constraint.Addr} {
		if out.Offline.CountKind(kind) != 0 {
			t.Errorf("offline graph still has %s edges", kind)
		}
	}
	for _, id := range out.Offline.NodeIDs() {
		if out.Offline.Node(id).Dummy {
			t.Errorf("the offline graph should not contain the nodes of the Dyck graph")
		}
	}
	if out.Dyck.Graph.CountKind(constraint.NormalGep) != 0 {
		t.Errorf("the Dyck graph should not contain the edges of the offline graph")
	}
	if out.OfflineStats.Loads != 1 || out.OfflineStats.Stores != 1 {
		t.Errorf("unexpected offline stats %+v", out.OfflineStats)
	}
	if len(out.Reports) != 0 {
		t.Errorf("no reports expected, got %v", out.Reports)
	}
}

func TestRunReportFailureIsNotFatal(t *testing.T) {
	cfg := config.NewDefault()
	cfg.ExportDyck = true
	cfg.ReportsDir = filepath.Join(t.TempDir(), "missing")
	logger := config.NewLogGroup(cfg)
	var buf bytes.Buffer
	logger.SetAllOutput(&buf)

	out, err := Run(cfg, logger, sampleInput("sample"))
	if err != nil {
		t.Fatalf("a report failure should not fail the run: %v", err)
	}
	if out.Dyck == nil || out.Dyck.Labels.Len() != out.Dyck.Graph.NumEdges() {
		t.Errorf("the Dyck graph should be complete")
	}
	if !strings.Contains(buf.String(), "Could not export Dyck graph") {
		t.Errorf("expected a warning, got:\n%s", buf.String())
	}
}

func TestRunAll(t *testing.T) {
	var inputs []Input
	for i := 0; i < 8; i++ {
		inputs = append(inputs, sampleInput(fmt.Sprintf("input%d", i)))
	}
	outputs, err := RunAll(context.Background(), config.NewDefault(), quietLogger(), inputs)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, out := range outputs {
		if out.Name != inputs[i].Name {
			t.Errorf("output %d is %s, expected %s", i, out.Name, inputs[i].Name)
		}
	}

	bad := constraint.NewGraph()
	bad.RecordCall(0, 1, 1)
	inputs = append(inputs, Input{Name: "bad", Graph: bad, PointsTo: constraint.MapOracle{}})
	for i := range inputs[:8] {
		inputs[i] = sampleInput(inputs[i].Name)
	}
	_, err = RunAll(context.Background(), config.NewDefault(), quietLogger(), inputs)
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("expected the error of the bad input, got %v", err)
	}
}
