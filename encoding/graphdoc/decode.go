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
	"strconv"
	"strings"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/pkg/errors"
)

type decoder struct {
	doc   *Document
	exprs []ir.Expr
	// refs counts the references to every node.
	refs []int
	errs fmterr.Errors
}

// Form rebuilds the form of a document.
// All the nodes are checked and all the errors are reported at once.
func (doc *Document) Form() (*form.Form, error) {
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	dec := &decoder{
		doc:   doc,
		exprs: make([]ir.Expr, len(doc.Nodes)),
		refs:  make([]int, len(doc.Nodes)),
	}
	for i := range doc.Nodes {
		dec.node(i)
	}
	var itgs []*form.Integral
	for i, itgDoc := range doc.Integrals {
		itg, err := dec.integral(itgDoc)
		if err != nil {
			dec.errs.Append(errors.WithMessagef(err, "integral %d", i))
			continue
		}
		if itg != nil {
			itgs = append(itgs, itg)
		}
	}
	dec.checkSharing()
	if !dec.errs.Empty() {
		return nil, dec.errs.ToError()
	}
	return form.New(itgs...), nil
}

func (dec *decoder) ref(from string, id int) (ir.Expr, bool, error) {
	if id < 0 || id >= len(dec.exprs) {
		return nil, false, fmterr.Preconditionf("%s: reference %d out of range", from, id)
	}
	dec.refs[id]++
	e := dec.exprs[id]
	// A nil expression has already been reported.
	return e, e != nil, nil
}

// integral returns nil without error if the integrand could not be
// decoded, the error having already been reported.
func (dec *decoder) integral(itgDoc Integral) (*form.Integral, error) {
	domain, err := form.ParseDomainType(itgDoc.Domain)
	if err != nil {
		return nil, err
	}
	e, ok, err := dec.ref("integrand", itgDoc.Integrand)
	if err != nil || !ok {
		return nil, err
	}
	return form.NewIntegral(e, domain, itgDoc.ID)
}

func (dec *decoder) node(id int) {
	node := &dec.doc.Nodes[id]
	ops := make([]ir.Expr, len(node.Operands))
	for i, opID := range node.Operands {
		if opID >= id {
			dec.errs.Append(fmterr.Preconditionf("node %d: operand %d is not defined before the node", id, opID))
			return
		}
		op, ok, err := dec.ref("node "+strconv.Itoa(id), opID)
		if err != nil {
			dec.errs.Append(err)
			return
		}
		if !ok {
			return
		}
		ops[i] = op
	}
	e, err := build(node, ops)
	if err != nil {
		dec.errs.Append(errors.WithMessagef(err, "node %d", id))
		return
	}
	dec.exprs[id] = e
}

// checkSharing reports operators, other than variables, referenced more
// than once.
func (dec *decoder) checkSharing() {
	for id, e := range dec.exprs {
		if e == nil || dec.refs[id] <= 1 {
			continue
		}
		kind := e.Kind()
		if kind.IsTerminal() || kind == irkind.Variable {
			continue
		}
		dec.errs.Appendf("node %d: %s referenced %d times: only terminals and variables can be shared", id, kind, dec.refs[id])
	}
}

func noOperand(node *Node, ops []ir.Expr) error {
	if len(ops) > 0 {
		return fmterr.Preconditionf("%s cannot have operands", node.Kind)
	}
	return nil
}

func build(node *Node, ops []ir.Expr) (ir.Expr, error) {
	kind, ok := kinds[node.Kind]
	if !ok {
		return nil, fmterr.Preconditionf("unknown kind %q: available kinds are %v", node.Kind, kindNames())
	}
	switch {
	case kind == irkind.ScalarValue:
		if err := noOperand(node, ops); err != nil {
			return nil, err
		}
		return ir.Scalar(node.Value), nil
	case kind.IsA(irkind.FormArgument):
		if err := noOperand(node, ops); err != nil {
			return nil, err
		}
		return ir.NewFormArgument(kind, node.Name, node.Count, node.Shape)
	case kind.IsA(irkind.GeometricQuantity):
		if err := noOperand(node, ops); err != nil {
			return nil, err
		}
		return ir.NewGeometric(kind, node.Dim)
	case kind == irkind.MultiIndex:
		if err := noOperand(node, ops); err != nil {
			return nil, err
		}
		indices, err := parseIndices(node.Indices)
		if err != nil {
			return nil, err
		}
		return ir.NewMultiIndex(indices...), nil
	case kind == irkind.Variable:
		if len(ops) != 1 {
			return nil, fmterr.Preconditionf("variable requires 1 operand, got %d", len(ops))
		}
		if node.Count < 1 {
			return nil, fmterr.Preconditionf("invalid variable count %d", node.Count)
		}
		return ir.NewVariableWithCount(ops[0], node.Count), nil
	}
	return ir.NewOperator(kind, node.Dim, ops...)
}

func parseIndices(ss []string) ([]ir.Index, error) {
	indices := make([]ir.Index, len(ss))
	for i, s := range ss {
		text, symbolic := strings.CutPrefix(s, "i_")
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return nil, fmterr.Preconditionf("invalid index %q", s)
		}
		if symbolic {
			indices[i] = ir.IndexWithCount(n)
		} else {
			indices[i] = ir.Fixed(n)
		}
	}
	return indices, nil
}
