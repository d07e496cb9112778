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

package ssafront

import (
	"errors"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// This file contains functions for running the pointer analysis on a program. The pointer analysis is implemented in
// the x/tools/go/pointer package; its results are the points-to oracle and the call graph of the front end.

// ErrNoMain is returned when the program has no main package to start the pointer analysis from
var ErrNoMain = errors.New("no main package")

// doPointerAnalysis runs the pointer analysis on the program p with the call graph, querying every pointer-like
// value that is defined in one of the functions.
func doPointerAnalysis(p *ssa.Program, functions []*ssa.Function) (*pointer.Result, error) {
	mains := ssautil.MainPackages(p.AllPackages())
	if len(mains) == 0 {
		return nil, ErrNoMain
	}
	pCfg := &pointer.Config{
		Mains:           mains,
		Reflection:      false,
		BuildCallGraph:  true,
		Queries:         make(map[ssa.Value]struct{}),
		IndirectQueries: make(map[ssa.Value]struct{}),
	}

	for _, function := range functions {
		for _, param := range function.Params {
			addQuery(pCfg, param)
		}
		for _, fv := range function.FreeVars {
			addQuery(pCfg, fv)
		}
		for _, block := range function.Blocks {
			for _, instruction := range block.Instrs {
				if v, ok := instruction.(ssa.Value); ok {
					addQuery(pCfg, v)
				}
			}
		}
	}

	return pointer.Analyze(pCfg)
}

// addQuery adds a query for the value if it is of a type that can point
func addQuery(cfg *pointer.Config, v ssa.Value) {
	if isPointerLike(v) {
		cfg.AddQuery(v)
	}
}

// isPointerLike returns true when v can point to memory objects. Constants are never pointer-like: the only
// constant pointer is nil.
func isPointerLike(v ssa.Value) bool {
	if v == nil || v.Type() == nil {
		return false
	}
	if _, isConst := v.(*ssa.Const); isConst {
		return false
	}
	return pointer.CanPoint(v.Type())
}
