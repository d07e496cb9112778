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
	"path"
	"runtime"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func TestLoadProgram(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	file := path.Join(path.Dir(filename), "ssafront", "testdata", "src", "basic", "main.go")

	program, err := LoadProgram(nil, "", ssa.BuilderMode(0), []string{file})
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	if len(ssautil.MainPackages(program.AllPackages())) != 1 {
		t.Errorf("expected one main package")
	}
	for _, pkg := range program.AllPackages() {
		t.Logf("%s loaded\n", pkg.String())
	}
}

func TestLoadProgramMissingFile(t *testing.T) {
	_, err := LoadProgram(nil, "", ssa.BuilderMode(0), []string{"does/not/exist.go"})
	if err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
