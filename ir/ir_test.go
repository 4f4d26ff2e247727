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

package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/pkg/errors"
)

func must(t *testing.T) func(ir.Expr, error) ir.Expr {
	return func(e ir.Expr, err error) ir.Expr {
		t.Helper()
		if err != nil {
			t.Fatalf("\n%+v", err)
		}
		return e
	}
}

func TestString(t *testing.T) {
	i, j := ir.IndexWithCount(1), ir.IndexWithCount(2)
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	A := ir.Coefficient("A", 2, 2)
	v := ir.Coefficient("v", 3)
	tests := []struct {
		build func() (ir.Expr, error)
		want  string
		shape ir.Shape
	}{
		{
			build: func() (ir.Expr, error) { return ir.Add(a, b) },
			want:  "(a + b)",
		},
		{
			build: func() (ir.Expr, error) { return ir.Sub(a, b) },
			want:  "(a + (-1 * b))",
		},
		{
			build: func() (ir.Expr, error) { return ir.Idx(A, i, ir.Fixed(0)) },
			want:  "A[i_1, 0]",
		},
		{
			build: func() (ir.Expr, error) {
				aij, err := ir.Idx(A, i, j)
				if err != nil {
					return nil, err
				}
				return ir.AsTensor(aij, j, i)
			},
			want:  "as_tensor(A[i_1, i_2], (i_2, i_1))",
			shape: ir.Shape{2, 2},
		},
		{
			build: func() (ir.Expr, error) { return ir.AsVector(a, b) },
			want:  "[a, b]",
			shape: ir.Shape{2},
		},
		{
			build: func() (ir.Expr, error) { return ir.Det(A) },
			want:  "det(A)",
		},
		{
			build: func() (ir.Expr, error) { return ir.Dx(a, 3, i) },
			want:  "a.dx(i_1)",
		},
		{
			build: func() (ir.Expr, error) { return ir.GradOf(v, 3) },
			want:  "grad(v)",
			shape: ir.Shape{3, 3},
		},
		{
			build: func() (ir.Expr, error) { return ir.Restrict(a, ir.Negative) },
			want:  "a('-')",
		},
		{
			build: func() (ir.Expr, error) { return ir.Div(a, ir.Scalar(2)) },
			want:  "(a / 2)",
		},
	}
	for ti, test := range tests {
		got, err := test.build()
		if err != nil {
			t.Errorf("test %d: %v", ti, err)
			continue
		}
		if got.String() != test.want {
			t.Errorf("test %d: got %s but want %s", ti, got.String(), test.want)
		}
		if !got.Shape().Equal(test.shape) {
			t.Errorf("test %d: got shape %s but want %s", ti, got.Shape(), test.shape)
		}
	}
}

func TestPreconditions(t *testing.T) {
	i, j := ir.NewIndex(), ir.NewIndex()
	a := ir.Coefficient("a")
	u := ir.Coefficient("u", 2)
	w := ir.Coefficient("w", 3)
	A := ir.Coefficient("A", 2, 3)
	tests := []func() (ir.Expr, error){
		func() (ir.Expr, error) { return ir.Add(u, w) },
		func() (ir.Expr, error) { return ir.Add(a, u) },
		func() (ir.Expr, error) { return ir.Idx(u, i, j) },
		func() (ir.Expr, error) { return ir.Idx(u, ir.Fixed(2)) },
		func() (ir.Expr, error) { return ir.Mul(u, w) },
		func() (ir.Expr, error) { return ir.AsTensor(a, i) },
		func() (ir.Expr, error) { return ir.AsVector(a, u) },
		func() (ir.Expr, error) {
			ui := must(t)(ir.Idx(u, i))
			return ir.AsVector(ui, a)
		},
		func() (ir.Expr, error) {
			ui := must(t)(ir.Idx(u, i))
			return ir.Add(ui, a)
		},
		func() (ir.Expr, error) {
			ui := must(t)(ir.Idx(u, i))
			return ir.Div(a, ui)
		},
		func() (ir.Expr, error) {
			ui := must(t)(ir.Idx(u, i))
			return ir.NewProduct(ui, ui, ui)
		},
		func() (ir.Expr, error) {
			ui := must(t)(ir.Idx(u, i))
			wi := must(t)(ir.Idx(w, i))
			return ir.Mul(ui, wi)
		},
		func() (ir.Expr, error) { return ir.Tr(A) },
		func() (ir.Expr, error) { return ir.Det(A) },
		func() (ir.Expr, error) { return ir.InnerOf(u, w) },
		func() (ir.Expr, error) { return ir.CrossOf(u, u) },
		func() (ir.Expr, error) { return ir.DotOf(A, A) },
		func() (ir.Expr, error) { return ir.CurlOf(u) },
		func() (ir.Expr, error) { return ir.Dx(a, 2, ir.Fixed(3)) },
		func() (ir.Expr, error) { return ir.NewOperator(irkind.Sum, 0, a) },
		func() (ir.Expr, error) { return ir.NewOperator(irkind.Variable, 0, a) },
		func() (ir.Expr, error) { return ir.NewOperator(irkind.Indexed, 0, u, a) },
		func() (ir.Expr, error) { return ir.Rebuild(a, []ir.Expr{a}) },
	}
	for ti, test := range tests {
		_, err := test()
		if !errors.Is(err, fmterr.ErrPrecondition) {
			t.Errorf("test %d: got error %v but want a precondition violation", ti, err)
		}
	}
}

func TestFreeIndices(t *testing.T) {
	i, j, k := ir.NewIndex(), ir.NewIndex(), ir.NewIndex()
	A := ir.Coefficient("A", 2, 3)
	B := ir.Coefficient("B", 3, 4)
	aij := must(t)(ir.Idx(A, i, j))
	bjk := must(t)(ir.Idx(B, j, k))
	prod := must(t)(ir.Mul(aij, bjk))
	if diff := cmp.Diff([]ir.Index{i, k}, prod.FreeIndices(), cmp.AllowUnexported(ir.Index{})); diff != "" {
		t.Errorf("unexpected free indices (-want +got):\n%s", diff)
	}
	dims := prod.IndexDims()
	if dims[i] != 2 || dims[k] != 4 {
		t.Errorf("got index dimensions %v but want %d:2 and %d:4", dims, i.Count(), k.Count())
	}
	ct := must(t)(ir.AsTensor(prod, k, i))
	if got, want := ct.Shape(), (ir.Shape{4, 2}); !got.Equal(want) {
		t.Errorf("got shape %s but want %s", got, want)
	}
	if len(ct.FreeIndices()) != 0 {
		t.Errorf("got free indices %v but want none", ct.FreeIndices())
	}
	C := ir.Coefficient("C", 3, 3)
	trace := must(t)(ir.Idx(C, i, i))
	if len(trace.FreeIndices()) != 0 {
		t.Errorf("repeated index in %s is not summed: %v", trace, trace.FreeIndices())
	}
}

func TestEqual(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	ab1 := must(t)(ir.Add(a, b))
	ab2 := must(t)(ir.Add(a, b))
	ba := must(t)(ir.Add(b, a))
	if ab1 == ab2 {
		t.Fatalf("expected different instances")
	}
	if !ir.Equal(ab1, ab2) {
		t.Errorf("%s and %s are not equal", ab1, ab2)
	}
	if ab1.Hash() != ab2.Hash() {
		t.Errorf("equal expressions have different hashes")
	}
	if ir.Equal(ab1, ba) {
		t.Errorf("%s and %s are equal", ab1, ba)
	}
	if !ir.Equal(ir.Scalar(2), ir.Scalar(2)) || ir.Equal(ir.Scalar(2), ir.Scalar(3)) {
		t.Errorf("incorrect scalar equality")
	}
	v1 := ir.NewVariable(ab1)
	v2 := ir.NewVariableWithCount(ba, v1.Count())
	if !ir.Equal(v1, v2) {
		t.Errorf("variables with the same count are not equal")
	}
	if ir.Equal(v1, ir.NewVariable(ab1)) {
		t.Errorf("variables with different counts are equal")
	}
}

func TestSet(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	s := ir.NewSet(must(t)(ir.Add(a, b)), a)
	if s.Add(must(t)(ir.Add(a, b))) {
		t.Errorf("structurally equal expression added twice")
	}
	if !s.Has(must(t)(ir.Add(a, b))) {
		t.Errorf("set does not contain a+b")
	}
	if s.Has(b) {
		t.Errorf("set contains b")
	}
	if s.Len() != 2 {
		t.Errorf("got %d elements but want 2", s.Len())
	}
	m := ir.NewMap[int]()
	m.Store(must(t)(ir.Mul(a, b)), 1)
	m.Store(must(t)(ir.Mul(a, b)), 2)
	if got, ok := m.Load(must(t)(ir.Mul(a, b))); !ok || got != 2 {
		t.Errorf("got %d, %v but want 2, true", got, ok)
	}
}

func TestRebuild(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	c := ir.Coefficient("c")
	sum := must(t)(ir.Add(a, b))
	got := must(t)(ir.Rebuild(sum, []ir.Expr{a, c}))
	if want := must(t)(ir.Add(a, c)); !ir.Equal(got, want) {
		t.Errorf("got %s but want %s", got, want)
	}
	grad := must(t)(ir.GradOf(a, 2))
	got = must(t)(ir.Rebuild(grad, []ir.Expr{b}))
	if want := (ir.Shape{2}); !got.Shape().Equal(want) {
		t.Errorf("got shape %s but want %s", got.Shape(), want)
	}
	v := ir.NewVariable(sum)
	got = must(t)(ir.Rebuild(v, []ir.Expr{c}))
	if gv, ok := got.(*ir.Variable); !ok || gv.Count() != v.Count() {
		t.Errorf("rebuilding %s did not keep the variable count: %s", v, got)
	}
	if ir.NewVariable(a).Count() <= v.Count() {
		t.Errorf("new variable count is not larger than existing counts")
	}
	if !ir.SameOperands(sum, []ir.Expr{a, b}) || ir.SameOperands(sum, []ir.Expr{a, c}) {
		t.Errorf("incorrect operand identity check")
	}
}
