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

// Package analysisutil names SSA values for the nodes of the constraint graph.
package analysisutil

import (
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// ValueName returns a name for v that is unique in the program for values defined in a function.
// Field accesses also carry the name of the field, e.g. "main.f.t2(&t1.next)".
func ValueName(v ssa.Value) string {
	f := v.Parent()
	if f == nil {
		return v.String()
	}
	name := f.String() + "." + v.Name()
	switch x := v.(type) {
	case *ssa.FieldAddr:
		name += "(&" + x.X.Name() + "." + FieldAddrFieldName(x) + ")"
	case *ssa.Field:
		name += "(" + x.X.Name() + "." + FieldFieldName(x) + ")"
	}
	return name
}

// FieldAddrFieldName finds the name of a field access in ssa.FieldAddr
// if it cannot find a proper field name, returns "?"
func FieldAddrFieldName(fieldAddr *ssa.FieldAddr) string {
	return fieldName(fieldAddr.X.Type().Underlying(), fieldAddr.Field)
}

// FieldFieldName finds the name of a field access in ssa.Field
// if it cannot find a proper field name, returns "?"
func FieldFieldName(field *ssa.Field) string {
	return fieldName(field.X.Type().Underlying(), field.Field)
}

func fieldName(t types.Type, i int) string {
	switch typ := t.(type) {
	case *types.Pointer:
		return fieldName(typ.Elem().Underlying(), i)
	case *types.Struct:
		if 0 <= i && i < typ.NumFields() {
			return typ.Field(i).Name()
		}
		return "?"
	default:
		return "?"
	}
}
