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

// Package irstring renders expression graphs as ASCII trees.
package irstring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gx-org/formx/base/uname"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	asciitree "github.com/thediveo/go-asciitree"
)

type node struct {
	Label    string   `asciitree:"label"`
	Props    []string `asciitree:"properties"`
	Children []node   `asciitree:"children"`
}

type printer struct {
	names *uname.Unique[int]
	seen  map[int]bool
}

// Tree returns an ASCII tree of an expression.
// Free indices are given short readable names in order of appearance.
// The operand of a variable is only printed the first time the variable
// is encountered.
func Tree(e ir.Expr) string {
	p := &printer{
		names: uname.New[int]("i", "j", "k", "l", "m", "n"),
		seen:  make(map[int]bool),
	}
	return asciitree.RenderFancy(*p.convert(e))
}

func (p *printer) index(i ir.Index) string {
	if i.IsFixed() {
		return strconv.Itoa(i.Value())
	}
	return p.names.Name(i.Count())
}

func (p *printer) indices(ii []ir.Index) string {
	ss := make([]string, len(ii))
	for i, idx := range ii {
		ss[i] = p.index(idx)
	}
	return "(" + strings.Join(ss, ", ") + ")"
}

func (p *printer) label(e ir.Expr) string {
	switch n := e.(type) {
	case *ir.ScalarValue, *ir.FormArgument, *ir.Geometric:
		return fmt.Sprintf("%s %s", e.Kind(), e.String())
	case *ir.MultiIndex:
		return fmt.Sprintf("%s %s", e.Kind(), p.indices(n.Indices()))
	case *ir.Variable:
		return fmt.Sprintf("%s #%d", e.Kind(), n.Count())
	case *ir.Operator:
		if n.Kind() == irkind.SpatialDerivative || n.Kind() == irkind.Grad {
			return fmt.Sprintf("%s dim=%d", e.Kind(), n.Dim())
		}
	}
	return e.Kind().String()
}

func (p *printer) props(e ir.Expr) []string {
	var props []string
	if len(e.Shape()) > 0 {
		props = append(props, "shape: "+e.Shape().String())
	}
	if free := e.FreeIndices(); len(free) > 0 && e.Kind() != irkind.MultiIndex {
		props = append(props, "free: "+p.indices(free))
	}
	return props
}

func (p *printer) convert(e ir.Expr) *node {
	root := &node{Label: p.label(e), Props: p.props(e)}
	type item struct {
		e ir.Expr
		n *node
	}
	stack := []item{{e, root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v, ok := it.e.(*ir.Variable); ok {
			if p.seen[v.Count()] {
				it.n.Label += " (shared)"
				continue
			}
			p.seen[v.Count()] = true
		}
		ops := it.e.Operands()
		it.n.Children = make([]node, len(ops))
		for i, op := range ops {
			it.n.Children[i] = node{Label: p.label(op), Props: p.props(op)}
		}
		for i := len(ops) - 1; i >= 0; i-- {
			stack = append(stack, item{ops[i], &it.n.Children[i]})
		}
	}
	return root
}
