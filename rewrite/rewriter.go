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
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
)

type (
	// Rewriter rewrites expressions with a rule set.
	Rewriter struct {
		rs    *RuleSet
		cache VariableCache
	}

	// Option configures a rewriter.
	Option func(*Rewriter)

	frame struct {
		e    ir.Expr
		rule PostFunc
		ops  []ir.Expr
		next int
	}
)

// WithCache sets the variable cache of the rewriter. Passing the same
// cache to several rewriters shares the rewriting of variables between them.
func WithCache(c VariableCache) Option {
	return func(r *Rewriter) {
		r.cache = c
	}
}

// New returns a rewriter applying a rule set.
// Unless WithCache is passed, the rewriter has its own variable cache.
func New(rs *RuleSet, opts ...Option) *Rewriter {
	r := &Rewriter{rs: rs}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	return r
}

// RuleSet returns the rule set of the rewriter.
func (r *Rewriter) RuleSet() *RuleSet { return r.rs }

// Cache returns the variable cache of the rewriter.
func (r *Rewriter) Cache() VariableCache { return r.cache }

func (r *Rewriter) rule(e ir.Expr) (Rule, error) {
	if e == nil {
		return nil, fmterr.Preconditionf("cannot rewrite a nil expression")
	}
	if r.rs == nil {
		return nil, fmterr.Internalf("rewriter has no rule set")
	}
	rule := r.rs.Rule(e.Kind())
	if rule == nil {
		return nil, fmterr.Internalf("rule set %s: no rule to rewrite nodes of kind %s", r.rs.name, e.Kind())
	}
	return rule, nil
}

// Visit rewrites e bottom-up: the rule of a node is called after the
// operands of the node have been rewritten, unless the rule is a SelfFunc.
// The traversal uses an explicit stack so that its depth is not bounded by
// the depth of the expression.
func (r *Rewriter) Visit(e ir.Expr) (ir.Expr, error) {
	var stack []*frame
	// enter rewrites e if its rule is a SelfFunc and returns the result.
	// Otherwise, it pushes a frame on the stack and returns nil.
	enter := func(e ir.Expr) (ir.Expr, error) {
		rule, err := r.rule(e)
		if err != nil {
			return nil, err
		}
		switch ruleT := rule.(type) {
		case SelfFunc:
			res, err := ruleT(r, e)
			if err != nil {
				return nil, fmterr.At(e, err)
			}
			if res == nil {
				return nil, fmterr.Internalf("rule set %s: rule for %s returned no expression", r.rs.name, e.Kind())
			}
			return res, nil
		case PostFunc:
			stack = append(stack, &frame{
				e:    e,
				rule: ruleT,
				ops:  make([]ir.Expr, len(e.Operands())),
			})
			return nil, nil
		}
		return nil, fmterr.Internalf("rule set %s: unknown rule type %T", r.rs.name, rule)
	}
	res, err := enter(e)
	if err != nil || res != nil {
		return res, err
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.ops) {
			res, err := enter(top.e.Operands()[top.next])
			if err != nil {
				return nil, err
			}
			if res != nil {
				top.ops[top.next] = res
				top.next++
			}
			continue
		}
		stack = stack[:len(stack)-1]
		res, err := top.rule(r, top.e, top.ops)
		if err != nil {
			return nil, fmterr.At(top.e, err)
		}
		if res == nil {
			return nil, fmterr.Internalf("rule set %s: rule for %s returned no expression", r.rs.name, top.e.Kind())
		}
		if len(stack) == 0 {
			return res, nil
		}
		parent := stack[len(stack)-1]
		parent.ops[parent.next] = res
		parent.next++
	}
	return nil, fmterr.Internalf("rule set %s: empty traversal stack", r.rs.name)
}

// VisitForm rewrites the integrand of every integral of a form.
// Integrals are returned unchanged if their integrand is unchanged,
// and the form itself is returned if no integrand changed.
func (r *Rewriter) VisitForm(f *form.Form) (*form.Form, error) {
	changed := false
	integrals := make([]*form.Integral, len(f.Integrals()))
	for i, itg := range f.Integrals() {
		integrand, err := r.Visit(itg.Integrand())
		if err != nil {
			return nil, err
		}
		if integrals[i], err = itg.Reconstruct(integrand); err != nil {
			return nil, err
		}
		changed = changed || integrals[i] != itg
	}
	if !changed {
		return f, nil
	}
	return form.New(integrals...), nil
}

// Apply rewrites an expression with a rule set.
func Apply(e ir.Expr, rs *RuleSet, opts ...Option) (ir.Expr, error) {
	return New(rs, opts...).Visit(e)
}

// ApplyForm rewrites every integrand of a form with a rule set.
// All the integrands share the same variable cache.
func ApplyForm(f *form.Form, rs *RuleSet, opts ...Option) (*form.Form, error) {
	return New(rs, opts...).VisitForm(f)
}
