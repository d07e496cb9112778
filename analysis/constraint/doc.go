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

// Package constraint defines the Andersen constraint graph that the offline and Dyck graph builders transform,
// together with points-to sets and the interfaces of the points-to and memory region oracles.
//
// The graph has six edge kinds:
//
//	addr   o -> p   p = &o
//	copy   q -> p   p = q
//	load   q -> p   p = *q
//	store  q -> p   *p = q
//	gep    q -> p   p = &q.f   (constant offset f)
//	vgep   q -> p   p = &q[i]  (unknown offset)
//
// Call and return edges are copy edges that are additionally recorded, with their call site, as
// InterprocEdge values.
package constraint
