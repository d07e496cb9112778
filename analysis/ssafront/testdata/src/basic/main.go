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

package main

type pair struct {
	left  *int
	right *int
}

var global = new(int)

func id(p *int) *int {
	return p
}

type boxer interface {
	box() *int
}

type intBox struct {
	v *int
}

func (b *intBox) box() *int {
	return b.v
}

func main() {
	x := new(int)
	y := new(int)
	a := id(x)
	b := id(y)
	t := &pair{}
	t.left = a
	t.right = global
	c := t.left
	s := []*int{b}
	d := s[0]
	var bx boxer = &intBox{v: d}
	e := bx.box()
	println(*c, *d, *e)
}
