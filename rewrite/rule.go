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

// Package rewrite rewrites expression graphs bottom-up with rule sets.
//
// A rule set maps every concrete node kind to a rule. Rules are
// registered on any kind, concrete or abstract: when a rule set is built,
// every concrete kind is given the rule of the most specific kind of its
// ancestry (see irkind.Kind.Parent). Building fails if a kind has no rule.
package rewrite

import (
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
)

type (
	// Rule rewrites nodes of a given kind.
	// A rule is either a PostFunc or a SelfFunc.
	Rule interface {
		rule()
	}

	// PostFunc rewrites a node given its rewritten operands.
	// It is called after all the operands of the node have been rewritten.
	PostFunc func(r *Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error)

	// SelfFunc rewrites a node and manages the recursion into its operands,
	// if any, by calling r.Visit.
	SelfFunc func(r *Rewriter, e ir.Expr) (ir.Expr, error)

	// Rules maps kinds to the rule rewriting nodes of that kind.
	Rules map[irkind.Kind]Rule

	// RuleSet is a table giving a rule for every concrete kind.
	RuleSet struct {
		name  string
		table [irkind.Max]Rule
	}

	// RuleSetOption configures how a rule set is built.
	RuleSetOption func(*ruleSetConfig)

	ruleSetConfig struct {
		noDefaults bool
	}
)

func (PostFunc) rule() {}
func (SelfFunc) rule() {}

// Default rules.
var (
	// Reuse returns the node unchanged without visiting its operands.
	Reuse Rule = SelfFunc(reuse)

	// ReuseIfPossible returns the node itself if every rewritten operand
	// is the same instance as the original operand. Otherwise, it builds
	// a new node of the same kind with the rewritten operands.
	ReuseIfPossible Rule = PostFunc(reuseIfPossible)

	// Reconstruct always builds a new node with the rewritten operands.
	Reconstruct Rule = PostFunc(reconstruct)

	// VisitVariable rewrites the operand of a variable once per count
	// and per variable cache.
	VisitVariable Rule = SelfFunc(visitVariable)
)

func reuse(_ *Rewriter, e ir.Expr) (ir.Expr, error) {
	return e, nil
}

func reuseIfPossible(_ *Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error) {
	if ir.SameOperands(e, ops) {
		return e, nil
	}
	return ir.Rebuild(e, ops)
}

func reconstruct(_ *Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error) {
	return ir.Rebuild(e, ops)
}

func visitVariable(r *Rewriter, e ir.Expr) (ir.Expr, error) {
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
	var res ir.Expr = v
	if inner != v.Expression() {
		res = ir.NewVariableWithCount(inner, v.Count())
	}
	res, _ = r.cache.LoadOrStore(v.Count(), res)
	return res, nil
}

func asVariable(e ir.Expr) (*ir.Variable, error) {
	v, ok := e.(*ir.Variable)
	if !ok {
		return nil, fmterr.Internalf("variable rule called on %T of kind %s", e, e.Kind())
	}
	return v, nil
}

// WithoutDefaults builds a rule set from the given rules only.
func WithoutDefaults() RuleSetOption {
	return func(cfg *ruleSetConfig) {
		cfg.noDefaults = true
	}
}

// NewRuleSet builds a rule set. Unless WithoutDefaults is passed, rules
// override the defaults: Reuse for terminals, ReuseIfPossible for all
// other kinds and VisitVariable for variables.
func NewRuleSet(name string, rules Rules, opts ...RuleSetOption) (*RuleSet, error) {
	var cfg ruleSetConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	all := Rules{}
	if !cfg.noDefaults {
		all[irkind.Terminal] = Reuse
		all[irkind.Expr] = ReuseIfPossible
		all[irkind.Variable] = VisitVariable
	}
	for kind, rule := range rules {
		if kind == irkind.Invalid || kind >= irkind.Max {
			return nil, fmterr.Internalf("rule set %s: invalid kind %d", name, kind)
		}
		if rule == nil {
			return nil, fmterr.Internalf("rule set %s: nil rule for kind %s", name, kind)
		}
		all[kind] = rule
	}
	rs := &RuleSet{name: name}
	for _, kind := range irkind.Concrete() {
		for _, anc := range kind.Ancestry() {
			if rule, ok := all[anc]; ok {
				rs.table[kind] = rule
				break
			}
		}
		if rs.table[kind] == nil {
			return nil, fmterr.Internalf("rule set %s: no rule to rewrite nodes of kind %s", name, kind)
		}
	}
	return rs, nil
}

func mustRuleSet(name string, rules Rules) *RuleSet {
	rs, err := NewRuleSet(name, rules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Name of the rule set.
func (rs *RuleSet) Name() string { return rs.name }

// Rule returns the rule used to rewrite nodes of a given kind.
func (rs *RuleSet) Rule(kind irkind.Kind) Rule {
	if kind >= irkind.Max {
		return nil
	}
	return rs.table[kind]
}

// String returns the name of the rule set.
func (rs *RuleSet) String() string { return rs.name }
