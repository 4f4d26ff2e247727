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

// Package analysis extracts information from expression graphs.
package analysis

import (
	"github.com/gx-org/formx/base/ordered"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
)

// Walk visits the nodes of e in pre-order, left to right.
// The operand of a variable is only visited the first time a variable
// with a given count is encountered. The operands of a node are skipped
// if fn returns false.
func Walk(e ir.Expr, fn func(ir.Expr) bool) {
	newWalker().walk(e, fn)
}

type walker struct {
	seen map[int]bool
}

func newWalker() *walker {
	return &walker{seen: make(map[int]bool)}
}

func (w *walker) walk(e ir.Expr, fn func(ir.Expr) bool) {
	seen := w.seen
	stack := []ir.Expr{e}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v, ok := node.(*ir.Variable); ok {
			if seen[v.Count()] {
				continue
			}
			seen[v.Count()] = true
		}
		if !fn(node) {
			continue
		}
		ops := node.Operands()
		for i := len(ops) - 1; i >= 0; i-- {
			stack = append(stack, ops[i])
		}
	}
}

// Duplications returns the non-terminal subexpressions occurring more
// than once in e under structural equality. Variables are already
// shared and are never reported.
func Duplications(e ir.Expr) *ir.Set {
	return duplications([]ir.Expr{e})
}

// FormDuplications returns the non-terminal subexpressions occurring more
// than once in the integrands of a form.
func FormDuplications(f *form.Form) *ir.Set {
	return duplications(f.Integrands())
}

func duplications(exprs []ir.Expr) *ir.Set {
	handled := ir.NewSet()
	dups := ir.NewSet()
	w := newWalker()
	for _, e := range exprs {
		w.walk(e, func(node ir.Expr) bool {
			kind := node.Kind()
			if kind.IsTerminal() || kind == irkind.Variable {
				return true
			}
			if !handled.Add(node) {
				dups.Add(node)
			}
			return true
		})
	}
	return dups
}

// FreeIndices returns the symbolic indices found in the multi-indices
// of e in order of first occurrence. Fixed indices are ignored.
func FreeIndices(e ir.Expr) *ordered.Set[ir.Index] {
	indices := ordered.NewSet[ir.Index]()
	Walk(e, func(node ir.Expr) bool {
		mi, ok := node.(*ir.MultiIndex)
		if !ok {
			return true
		}
		for _, idx := range mi.Indices() {
			if !idx.IsFixed() {
				indices.Add(idx)
			}
		}
		return true
	})
	return indices
}

// Terminals returns the distinct terminals of e other than multi-indices,
// in order of first occurrence.
func Terminals(e ir.Expr) []ir.Expr {
	terms := ir.NewSet()
	Walk(e, func(node ir.Expr) bool {
		if node.Kind().IsTerminal() && node.Kind() != irkind.MultiIndex {
			terms.Add(node)
		}
		return true
	})
	return terms.Elements()
}

// CountNodes returns the number of nodes of e.
// Shared variables are counted once.
func CountNodes(e ir.Expr) int {
	n := 0
	Walk(e, func(ir.Expr) bool {
		n++
		return true
	})
	return n
}
