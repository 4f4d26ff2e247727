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

package rewrite

import (
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/sirupsen/logrus"
)

var (
	identity = mustRuleSet("identity", nil)

	copier = mustRuleSet("copy", Rules{
		irkind.Expr:     Reconstruct,
		irkind.Variable: SelfFunc(copyVariable),
	})

	stripper = mustRuleSet("strip-variables", Rules{
		irkind.Variable: SelfFunc(stripVariable),
	})
)

// Identity returns the rule set built from the default rules only.
// Rewriting with it checks the structure of an expression and returns
// the same expression.
func Identity() *RuleSet { return identity }

// Copy returns a rule set building a copy of every non-terminal node.
// Terminals are shared with the source expression.
func Copy() *RuleSet { return copier }

// StripVariables returns a rule set replacing every variable with its
// rewritten operand.
func StripVariables() *RuleSet { return stripper }

func copyVariable(r *Rewriter, e ir.Expr) (ir.Expr, error) {
	v, err := asVariable(e)
	if err != nil {
		return nil, err
	}
	if cached, ok := r.cache.Load(v.Count()); ok {
		return cached, nil
	}
	inner, err := r.Visit(v.Expression())
	if err != nil {
		return nil, err
	}
	res, _ := r.cache.LoadOrStore(v.Count(), ir.NewVariableWithCount(inner, v.Count()))
	return res, nil
}

func stripVariable(r *Rewriter, e ir.Expr) (ir.Expr, error) {
	v, err := asVariable(e)
	if err != nil {
		return nil, err
	}
	if cached, ok := r.cache.Load(v.Count()); ok {
		return cached, nil
	}
	inner, err := r.Visit(v.Expression())
	if err != nil {
		return nil, err
	}
	res, _ := r.cache.LoadOrStore(v.Count(), inner)
	return res, nil
}

// Substitute returns a rule set replacing terminals by expressions.
// Keys of the mapping must be terminals and values must have the shape
// of their key. Terminals absent from the mapping are unchanged.
func Substitute(mapping *ir.Map[ir.Expr]) (*RuleSet, error) {
	if mapping == nil {
		mapping = ir.NewMap[ir.Expr]()
	}
	for _, key := range mapping.Keys() {
		if !key.Kind().IsTerminal() {
			return nil, fmterr.At(key, fmterr.Preconditionf("can only substitute terminals, got %s", key.Kind()))
		}
		val, _ := mapping.Load(key)
		if val == nil {
			return nil, fmterr.At(key, fmterr.Preconditionf("nil substitution"))
		}
		if !val.Shape().Equal(key.Shape()) {
			return nil, fmterr.At(key, fmterr.Preconditionf("cannot substitute an expression of shape %s with an expression of shape %s", key.Shape(), val.Shape()))
		}
	}
	return NewRuleSet("substitute", Rules{
		irkind.Terminal: SelfFunc(func(_ *Rewriter, e ir.Expr) (ir.Expr, error) {
			if val, ok := mapping.Load(e); ok {
				return val, nil
			}
			return e, nil
		}),
	})
}

// Flatten returns a rule set merging nested sums into a single sum and
// nested products into a single product, preserving the order of the
// operands.
//
// Flattening is not correct for products of indexed products sharing an
// index, such as (u[i]*v[i])*(q[i]*r[i]). Splicing such a product is
// rejected with a precondition error: the flattened product would repeat an
// index more than twice, which NewProduct refuses. No renaming of the spliced
// indices is attempted. A warning is logged every time the rule set is built.
func Flatten() *RuleSet {
	logrus.Warn("flatten does not work correctly for some indexed products, like (u[i]*v[i])*(q[i]*r[i])")
	flat := PostFunc(flattenOperands)
	return mustRuleSet("flatten", Rules{
		irkind.Sum:     flat,
		irkind.Product: flat,
	})
}

func flattenOperands(_ *Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error) {
	var flat []ir.Expr
	spliced := false
	for _, op := range ops {
		if op.Kind() == e.Kind() {
			flat = append(flat, op.Operands()...)
			spliced = true
			continue
		}
		flat = append(flat, op)
	}
	if !spliced && ir.SameOperands(e, ops) {
		return e, nil
	}
	// Rebuild fails when the spliced operands repeat an index.
	return ir.Rebuild(e, flat)
}

// Validate rewrites an expression with the identity rule set.
func Validate(e ir.Expr) (ir.Expr, error) {
	return Apply(e, Identity())
}

// CopyExpr returns a copy of an expression.
func CopyExpr(e ir.Expr) (ir.Expr, error) {
	return Apply(e, Copy())
}

// Replace substitutes terminals of an expression.
func Replace(e ir.Expr, mapping *ir.Map[ir.Expr]) (ir.Expr, error) {
	rs, err := Substitute(mapping)
	if err != nil {
		return nil, err
	}
	return Apply(e, rs)
}

// FlattenExpr merges nested sums and products of an expression.
func FlattenExpr(e ir.Expr) (ir.Expr, error) {
	return Apply(e, Flatten())
}

// Strip removes all the variables of an expression.
func Strip(e ir.Expr) (ir.Expr, error) {
	return Apply(e, StripVariables())
}
