// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphdoc

import (
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
)

type encoder struct {
	doc       *Document
	terminals *ir.Map[int]
	variables map[int]int
}

type frame struct {
	e   ir.Expr
	ids []int
}

// FromForm returns the document of a form.
// Terminals structurally equal are written once.
func FromForm(f *form.Form) *Document {
	enc := &encoder{
		doc:       &Document{Version: Version},
		terminals: ir.NewMap[int](),
		variables: make(map[int]int),
	}
	for _, itg := range f.Integrals() {
		enc.doc.Integrals = append(enc.doc.Integrals, Integral{
			Domain:    itg.DomainType().String(),
			ID:        itg.DomainID(),
			Integrand: enc.expr(itg.Integrand()),
		})
	}
	return enc.doc
}

// known returns the position of a node if it has already been written
// and can be shared.
func (enc *encoder) known(e ir.Expr) (int, bool) {
	if v, ok := e.(*ir.Variable); ok {
		id, ok := enc.variables[v.Count()]
		return id, ok
	}
	if e.Kind().IsTerminal() {
		return enc.terminals.Load(e)
	}
	return 0, false
}

func (enc *encoder) expr(root ir.Expr) int {
	if id, ok := enc.known(root); ok {
		return id
	}
	stack := []*frame{{e: root}}
	for {
		top := stack[len(stack)-1]
		ops := top.e.Operands()
		if len(top.ids) < len(ops) {
			op := ops[len(top.ids)]
			if id, ok := enc.known(op); ok {
				top.ids = append(top.ids, id)
			} else {
				stack = append(stack, &frame{e: op})
			}
			continue
		}
		id := enc.add(top.e, top.ids)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return id
		}
		parent := stack[len(stack)-1]
		parent.ids = append(parent.ids, id)
	}
}

func (enc *encoder) add(e ir.Expr, ids []int) int {
	node := Node{Kind: e.Kind().String(), Operands: ids}
	switch n := e.(type) {
	case *ir.ScalarValue:
		node.Value = n.Value()
	case *ir.FormArgument:
		node.Name = n.Name()
		node.Count = n.Count()
		node.Shape = n.Shape()
	case *ir.Geometric:
		node.Dim = n.Dim()
	case *ir.MultiIndex:
		for _, idx := range n.Indices() {
			node.Indices = append(node.Indices, idx.String())
		}
	case *ir.Variable:
		node.Count = n.Count()
	case *ir.Operator:
		node.Dim = n.Dim()
	}
	id := len(enc.doc.Nodes)
	enc.doc.Nodes = append(enc.doc.Nodes, node)
	if v, ok := e.(*ir.Variable); ok {
		enc.variables[v.Count()] = id
	} else if e.Kind().IsTerminal() {
		enc.terminals.Store(e, id)
	}
	return id
}
