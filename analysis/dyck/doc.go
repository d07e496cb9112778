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

/*
Package dyck builds the labeled graph consumed by a Dyck (CFL) reachability solver.

In the output graph every edge is either a load, a store, a call or a return, and carries an integer label.
A store and a load with the same label are a matching pair of parentheses: they access the same memory, because the
points-to sets of their pointers have the same representative in the [EquivalenceIndex]. A call and a return with
the same label are a matching pair of brackets: they belong to the same call site. A path of the graph is realizable
only if its parentheses and its brackets are balanced.

The construction proceeds in order:

 1. the points-to sets of the pointers of loads and stores are added to the index;
 2. every set is mapped to its largest superset in the index;
 3. loads and stores get the label of the representative of their pointer's points-to set;
 4. calls and returns get their call site as label;
 5. every remaining copy or gep edge x -> y is replaced by x -store-> n -load-> y with n a new node, and the
    pair gets a label that no other edge has;
 6. address-of edges are removed.

[Builder] owns all the state of a construction. The [Result] it returns is read only.
*/
package dyck
