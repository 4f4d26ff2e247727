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

// Package lower expands compound tensor operators and compound derivatives
// into sums, products, indexing and spatial derivatives.
//
// Free indices introduced by the expansion are new indices: an index
// repeated in a product, in an indexing or in a derivative is summed over.
package lower

import (
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/gx-org/formx/rewrite"
)

type (
	// Option configures the expansion.
	Option func(*expander)

	expander struct {
		dim                 int
		classicalCofactor   bool
		traceFreeDeviatoric bool
	}

	expandFunc func(x *expander, b *builder, e ir.Expr, ops []ir.Expr) ir.Expr
)

// WithClassicalCofactor expands cofactor operators to the classical
// cofactor matrix, that is the transpose of the adjugate.
// By default, cofactor operators expand to the adjugate.
// The expansion of inverse operators is not affected.
func WithClassicalCofactor() Option {
	return func(x *expander) {
		x.classicalCofactor = true
	}
}

// WithTraceFreeDeviatoric expands deviatoric operators to A - tr(A)/n I.
// By default, the diagonal of the expansion of dev(A) is minus the sum of
// the other diagonal components of A, that is A - tr(A) I.
func WithTraceFreeDeviatoric() Option {
	return func(x *expander) {
		x.traceFreeDeviatoric = true
	}
}

var expanders = map[irkind.Kind]expandFunc{
	irkind.Trace:       (*expander).trace,
	irkind.Transposed:  (*expander).transposed,
	irkind.Deviatoric:  (*expander).deviatoric,
	irkind.Skew:        (*expander).skew,
	irkind.Cross:       (*expander).cross,
	irkind.Dot:         (*expander).dot,
	irkind.Inner:       (*expander).inner,
	irkind.Outer:       (*expander).outer,
	irkind.Determinant: (*expander).determinant,
	irkind.Cofactor:    (*expander).cofactor,
	irkind.Inverse:     (*expander).inverse,
	irkind.Div:         (*expander).div,
	irkind.Grad:        (*expander).grad,
	irkind.Curl:        (*expander).curl,
	irkind.Rot:         (*expander).rot,
}

// RuleSet returns a rule set expanding compound operators in a space of
// geometric dimension dim. Other kinds are rewritten with the default rules.
func RuleSet(dim int, opts ...Option) (*rewrite.RuleSet, error) {
	if dim < 1 {
		return nil, fmterr.Preconditionf("invalid geometric dimension %d", dim)
	}
	x := &expander{dim: dim}
	for _, opt := range opts {
		opt(x)
	}
	rules := rewrite.Rules{}
	for kind, fn := range expanders {
		rules[kind] = x.rule(fn)
	}
	return rewrite.NewRuleSet("lower-compounds", rules)
}

func (x *expander) rule(fn expandFunc) rewrite.PostFunc {
	return func(_ *rewrite.Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error) {
		b := &builder{}
		return b.result(fn(x, b, e, ops))
	}
}

// ExpandCompounds expands the compound operators of an expression.
func ExpandCompounds(e ir.Expr, dim int, opts ...Option) (ir.Expr, error) {
	rs, err := RuleSet(dim, opts...)
	if err != nil {
		return nil, err
	}
	return rewrite.Apply(e, rs)
}

// ExpandForm expands the compound operators of every integrand of a form.
func ExpandForm(f *form.Form, dim int, opts ...Option) (*form.Form, error) {
	rs, err := RuleSet(dim, opts...)
	if err != nil {
		return nil, err
	}
	return rewrite.ApplyForm(f, rs)
}

func squareSize(b *builder, a ir.Expr) int {
	shape := a.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		b.err = fmterr.Preconditionf("expected a square matrix, got shape %s", shape)
		return 0
	}
	return shape[0]
}

func (x *expander) trace(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	i := ir.NewIndex()
	return b.idx(ops[0], i, i)
}

func (x *expander) transposed(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	i, j := ir.NewIndex(), ir.NewIndex()
	return b.tensor(b.idx(ops[0], i, j), j, i)
}

// deviatoric returns A - tr(A) I, or A - tr(A)/n I if the trace free
// option is set, where n is the size of A.
func (x *expander) deviatoric(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	A := ops[0]
	n := squareSize(b, A)
	if b.err != nil {
		return nil
	}
	if n != 2 && n != 3 {
		b.err = fmterr.Unsupportedf("deviatoric of a %dx%d matrix", n, n)
		return nil
	}
	rows := make([][]ir.Expr, n)
	for r := range rows {
		rows[r] = make([]ir.Expr, n)
		for c := range rows[r] {
			if r != c {
				rows[r][c] = b.at(A, r, c)
				continue
			}
			if x.traceFreeDeviatoric {
				diag := make([]ir.Expr, n)
				for k := range diag {
					diag[k] = b.at(A, k, k)
				}
				rows[r][c] = b.sub(b.at(A, r, r), b.div(b.sum(diag...), ir.Scalar(float64(n))))
				continue
			}
			var d ir.Expr
			for k := range n {
				if k == r {
					continue
				}
				if d == nil {
					d = b.mul(ir.Scalar(-1), b.at(A, k, k))
				} else {
					d = b.sub(d, b.at(A, k, k))
				}
			}
			rows[r][c] = d
		}
	}
	return b.matrix(rows)
}

func (x *expander) skew(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	A := ops[0]
	i, j := ir.NewIndex(), ir.NewIndex()
	diff := b.sub(b.idx(A, i, j), b.idx(A, j, i))
	return b.tensor(b.div(diff, ir.Scalar(2)), i, j)
}

func (x *expander) cross(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	u, v := ops[0], ops[1]
	c := func(i, j int) ir.Expr {
		return b.sub(
			b.mul(b.idx(u, ir.Fixed(i)), b.idx(v, ir.Fixed(j))),
			b.mul(b.idx(u, ir.Fixed(j)), b.idx(v, ir.Fixed(i))),
		)
	}
	return b.vector(c(1, 2), c(2, 0), c(0, 1))
}

func (x *expander) dot(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	u, v := ops[0], ops[1]
	k := ir.NewIndex()
	ii := ir.NewIndices(ir.Rank(u) - 1)
	jj := ir.NewIndices(ir.Rank(v) - 1)
	uk := b.idx(u, concatIndices(ii, []ir.Index{k})...)
	vk := b.idx(v, concatIndices([]ir.Index{k}, jj)...)
	return b.tensor(b.mul(uk, vk), concatIndices(ii, jj)...)
}

func (x *expander) inner(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	u, v := ops[0], ops[1]
	if ir.Rank(u) != ir.Rank(v) {
		b.err = fmterr.Preconditionf("inner product of expressions of rank %d and %d", ir.Rank(u), ir.Rank(v))
		return nil
	}
	ii := ir.NewIndices(ir.Rank(u))
	return b.mul(b.idx(u, ii...), b.idx(v, ii...))
}

func (x *expander) outer(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	u, v := ops[0], ops[1]
	ii := ir.NewIndices(ir.Rank(u))
	jj := ir.NewIndices(ir.Rank(v))
	return b.tensor(b.mul(b.idx(u, ii...), b.idx(v, jj...)), concatIndices(ii, jj)...)
}

// det2 returns the determinant of the 2x2 minor of A with rows (i, j)
// and columns (k, l).
func det2(b *builder, A ir.Expr, i, j, k, l int) ir.Expr {
	return b.sub(b.mul(b.at(A, i, k), b.at(A, j, l)), b.mul(b.at(A, i, l), b.at(A, j, k)))
}

func (x *expander) determinant(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	return determinantOf(b, ops[0])
}

func determinantOf(b *builder, A ir.Expr) ir.Expr {
	if ir.IsScalar(A) {
		return A
	}
	n := squareSize(b, A)
	switch {
	case b.err != nil:
		return nil
	case n == 2:
		return det2(b, A, 0, 1, 0, 1)
	case n == 3:
		return b.add(
			b.add(
				b.mul(b.at(A, 0, 0), det2(b, A, 1, 2, 1, 2)),
				b.mul(b.at(A, 0, 1), det2(b, A, 1, 2, 2, 0)),
			),
			b.mul(b.at(A, 0, 2), det2(b, A, 1, 2, 0, 1)),
		)
	}
	b.err = fmterr.Unsupportedf("determinant of a %dx%d matrix", n, n)
	return nil
}

func (x *expander) cofactor(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	rows := adjugate(b, ops[0])
	if b.err != nil {
		return nil
	}
	if x.classicalCofactor {
		rows = transpose(rows)
	}
	return b.matrix(rows)
}

// inverse divides the adjugate of A by its determinant.
func (x *expander) inverse(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	A := ops[0]
	if ir.IsScalar(A) {
		return b.div(ir.Scalar(1), A)
	}
	adj := b.matrix(adjugate(b, A))
	return b.div(adj, determinantOf(b, A))
}

func (x *expander) div(b *builder, _ ir.Expr, ops []ir.Expr) ir.Expr {
	a := ops[0]
	i := ir.NewIndex()
	jj := ir.NewIndices(ir.Rank(a) - 1)
	g := b.tensor(b.idx(a, concatIndices(jj, []ir.Index{i})...), jj...)
	return b.dx(g, x.dim, i)
}

func (x *expander) grad(b *builder, e ir.Expr, ops []ir.Expr) ir.Expr {
	if op, ok := e.(*ir.Operator); ok && op.Dim() != x.dim {
		b.err = fmterr.Preconditionf("gradient in dimension %d expanded in dimension %d", op.Dim(), x.dim)
		return nil
	}
	a := ops[0]
	i := ir.NewIndex()
	jj := ir.NewIndices(ir.Rank(a))
	return b.tensor(b.dx(b.idx(a, jj...), x.dim, i), concatIndices([]ir.Index{i}, jj)...)
}

func (x *expander) curl(b *builder, _ ir.Expr, _ []ir.Expr) ir.Expr {
	b.err = fmterr.NotImplementedf("expansion of curl")
	return nil
}

func (x *expander) rot(b *builder, _ ir.Expr, _ []ir.Expr) ir.Expr {
	b.err = fmterr.NotImplementedf("expansion of rot")
	return nil
}
