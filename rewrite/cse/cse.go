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

// Package cse wraps repeated subexpressions into variables.
//
// Subexpressions are compared structurally. Indices are part of the
// structure: renumbering indices first (see package renumber) can reveal
// more duplications.
package cse

import (
	"github.com/gx-org/formx/analysis"
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/gx-org/formx/rewrite"
)

type marker struct {
	dups *ir.Set
	vars *ir.Map[*ir.Variable]
}

// RuleSet returns a rule set wrapping every expression of dups into a
// variable. All the occurrences of an expression are replaced by the same
// variable. The rule set keeps state: use a new rule set for every rewrite.
func RuleSet(dups *ir.Set) (*rewrite.RuleSet, error) {
	if dups == nil {
		return nil, fmterr.Preconditionf("nil duplication set")
	}
	m := &marker{dups: dups, vars: ir.NewMap[*ir.Variable]()}
	return rewrite.NewRuleSet("mark-duplicates", rewrite.Rules{
		irkind.Expr:     rewrite.PostFunc(m.expr),
		irkind.Variable: rewrite.SelfFunc(m.variable),
	})
}

func (m *marker) expr(_ *rewrite.Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error) {
	if v, ok := m.vars.Load(e); ok {
		return v, nil
	}
	o := e
	if !ir.SameOperands(e, ops) {
		var err error
		if o, err = ir.Rebuild(e, ops); err != nil {
			return nil, err
		}
	}
	if !m.dups.Has(e) && !m.dups.Has(o) {
		return o, nil
	}
	v := ir.NewVariable(o)
	m.vars.Store(o, v)
	m.vars.Store(e, v)
	return v, nil
}

func (m *marker) variable(r *rewrite.Rewriter, e ir.Expr) (ir.Expr, error) {
	v, ok := e.(*ir.Variable)
	if !ok {
		return nil, fmterr.Internalf("variable rule called on %s", e.Kind())
	}
	inner := v.Expression()
	if cached, ok := m.vars.Load(inner); ok {
		return cached, nil
	}
	visited, err := r.Visit(inner)
	if err != nil {
		return nil, err
	}
	// Keep nested variables only if they were already in the source.
	if vv, ok := visited.(*ir.Variable); ok && inner.Kind() != irkind.Variable {
		visited = vv.Expression()
	}
	if cached, ok := m.vars.Load(visited); ok {
		return cached, nil
	}
	res := v
	if visited != inner {
		res = ir.NewVariableWithCount(visited, v.Count())
	}
	m.vars.Store(inner, res)
	m.vars.Store(visited, res)
	return res, nil
}

// MarkDuplications wraps the repeated subexpressions of e into variables.
func MarkDuplications(e ir.Expr) (ir.Expr, error) {
	rs, err := RuleSet(analysis.Duplications(e))
	if err != nil {
		return nil, err
	}
	return rewrite.Apply(e, rs)
}

// MarkForm wraps the subexpressions repeated in the integrands of a form
// into variables. Variables are shared between integrands.
func MarkForm(f *form.Form) (*form.Form, error) {
	rs, err := RuleSet(analysis.FormDuplications(f))
	if err != nil {
		return nil, err
	}
	return rewrite.ApplyForm(f, rs)
}
