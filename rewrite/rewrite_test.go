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

package rewrite_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/gx-org/formx/rewrite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
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

func testExprs(t *testing.T) []ir.Expr {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	u := ir.Coefficient("u", 3)
	A := ir.Coefficient("A", 3, 3)
	i, j := ir.NewIndex(), ir.NewIndex()
	ab := must(t)(ir.Add(a, b))
	v := ir.NewVariable(ab)
	aij := must(t)(ir.Idx(A, i, j))
	return []ir.Expr{
		a,
		ab,
		must(t)(ir.Mul(v, must(t)(ir.Add(v, a)))),
		must(t)(ir.AsTensor(must(t)(ir.Mul(aij, must(t)(ir.Idx(u, j)))), i)),
		must(t)(ir.Det(must(t)(ir.Transpose(A)))),
		must(t)(ir.DivOf(must(t)(ir.GradOf(u, 3)))),
		must(t)(ir.Restrict(must(t)(ir.Pow(a, ir.Scalar(2))), ir.Positive)),
	}
}

func TestIdentity(t *testing.T) {
	for i, e := range testExprs(t) {
		got, err := rewrite.Validate(e)
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if got != e {
			t.Errorf("test %d: identity returned a new instance %s for %s", i, got, e)
		}
	}
}

func TestCopy(t *testing.T) {
	for i, e := range testExprs(t) {
		got, err := rewrite.CopyExpr(e)
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if !ir.Equal(got, e) {
			t.Errorf("test %d: copy %s is not equal to %s", i, got, e)
		}
		if !e.Kind().IsTerminal() && got == e {
			t.Errorf("test %d: copy of %s returned the same instance", i, e)
		}
		if e.Kind().IsTerminal() && got != e {
			t.Errorf("test %d: copy of terminal %s returned a new instance", i, e)
		}
	}
}

func TestCopySharesVariables(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	v := ir.NewVariable(must(t)(ir.Add(a, b)))
	e := must(t)(ir.Mul(v, v))
	got := must(t)(rewrite.CopyExpr(e))
	ops := got.Operands()
	if ops[0] != ops[1] {
		t.Errorf("copy of %s does not share its variable: %s", e, got)
	}
	if ops[0] == ir.Expr(v) {
		t.Errorf("copy of %s reuses the source variable", e)
	}
	if ops[0].(*ir.Variable).Count() != v.Count() {
		t.Errorf("copy changed the variable count")
	}
}

func TestReuse(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	c := ir.Coefficient("c")
	w := ir.Coefficient("w")
	left := must(t)(ir.Mul(a, b))
	right := must(t)(ir.Add(b, c))
	e := must(t)(ir.Add(left, must(t)(ir.Mul(right, ir.Scalar(2)))))
	mapping := ir.NewMap[ir.Expr]()
	mapping.Store(c, w)
	got := must(t)(rewrite.Replace(e, mapping))
	if got == e {
		t.Fatalf("substitution of c returned the same expression")
	}
	if got.Operands()[0] != left {
		t.Errorf("unchanged operand %s has been rebuilt", left)
	}
	want := must(t)(ir.Add(left, must(t)(ir.Mul(must(t)(ir.Add(b, w)), ir.Scalar(2)))))
	if !ir.Equal(got, want) {
		t.Errorf("got %s but want %s", got, want)
	}
}

func TestSubstitute(t *testing.T) {
	u := ir.Coefficient("u")
	v := ir.Coefficient("v")
	w := ir.Coefficient("w")
	e := must(t)(ir.Add(u, v))
	mapping := ir.NewMap[ir.Expr]()
	mapping.Store(u, w)
	got := must(t)(rewrite.Replace(e, mapping))
	if want := must(t)(ir.Add(w, v)); !ir.Equal(got, want) {
		t.Errorf("got %s but want %s", got, want)
	}
	if got.Operands()[1] != ir.Expr(v) {
		t.Errorf("v has been replaced by %s", got.Operands()[1])
	}
	if got := must(t)(rewrite.Replace(e, ir.NewMap[ir.Expr]())); got != e {
		t.Errorf("empty substitution returned a new expression %s", got)
	}
	bad := ir.NewMap[ir.Expr]()
	bad.Store(e, w)
	if _, err := rewrite.Substitute(bad); !errors.Is(err, fmterr.ErrPrecondition) {
		t.Errorf("got error %v but want a precondition violation", err)
	}
	bad = ir.NewMap[ir.Expr]()
	bad.Store(u, ir.Coefficient("x", 2))
	if _, err := rewrite.Substitute(bad); !errors.Is(err, fmterr.ErrPrecondition) {
		t.Errorf("got error %v but want a precondition violation", err)
	}
}

func TestFlatten(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	c := ir.Coefficient("c")
	d := ir.Coefficient("d")
	tests := []struct {
		expr ir.Expr
		want ir.Expr
	}{
		{
			expr: must(t)(ir.Add(must(t)(ir.Add(a, b)), must(t)(ir.Add(c, d)))),
			want: must(t)(ir.NewSum(a, b, c, d)),
		},
		{
			expr: must(t)(ir.Mul(a, must(t)(ir.Mul(must(t)(ir.Mul(b, c)), d)))),
			want: must(t)(ir.NewProduct(a, b, c, d)),
		},
		{
			expr: must(t)(ir.Add(must(t)(ir.Mul(a, must(t)(ir.Mul(b, c)))), d)),
			want: must(t)(ir.Add(must(t)(ir.NewProduct(a, b, c)), d)),
		},
	}
	for i, test := range tests {
		got, err := rewrite.FlattenExpr(test.expr)
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if !ir.Equal(got, test.want) {
			t.Errorf("test %d: got %s but want %s", i, got, test.want)
		}
	}
}

func TestFlattenSharedIndices(t *testing.T) {
	u := ir.Coefficient("u", 2)
	v := ir.Coefficient("v", 2)
	i := ir.NewIndex()
	uv := must(t)(ir.Mul(must(t)(ir.Idx(u, i)), must(t)(ir.Idx(v, i))))
	e := must(t)(ir.Mul(uv, uv))
	if _, err := rewrite.FlattenExpr(e); !errors.Is(err, fmterr.ErrPrecondition) {
		t.Errorf("got error %v but want a precondition violation", err)
	}
}

func TestFlattenWarning(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	rewrite.Flatten()
	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("building the flatten rule set did not log anything")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("got level %v but want %v", entry.Level, logrus.WarnLevel)
	}
	if !strings.Contains(entry.Message, "flatten") {
		t.Errorf("warning %q does not mention flatten", entry.Message)
	}
}

func TestStrip(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	ab := must(t)(ir.Add(a, b))
	v := ir.NewVariable(ab)
	w := ir.NewVariable(must(t)(ir.Mul(v, a)))
	e := must(t)(ir.Add(w, v))
	got := must(t)(rewrite.Strip(e))
	want := must(t)(ir.Add(must(t)(ir.Mul(ab, a)), ab))
	if !ir.Equal(got, want) {
		t.Errorf("got %s but want %s", got, want)
	}
}

func TestIncompleteRuleSet(t *testing.T) {
	_, err := rewrite.NewRuleSet("strict", rewrite.Rules{
		irkind.Terminal:        rewrite.Reuse,
		irkind.AlgebraOperator: rewrite.ReuseIfPossible,
	}, rewrite.WithoutDefaults())
	if !errors.Is(err, fmterr.ErrInternal) {
		t.Errorf("got error %v but want an internal error", err)
	}
	rs, err := rewrite.NewRuleSet("complete", rewrite.Rules{
		irkind.Terminal: rewrite.Reuse,
		irkind.Operator: rewrite.ReuseIfPossible,
	}, rewrite.WithoutDefaults())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rs.Rule(irkind.Variable).(rewrite.PostFunc); !ok {
		t.Errorf("variable rule not inherited from operator")
	}
	a := ir.Coefficient("a")
	e := must(t)(ir.Mul(ir.NewVariable(a), a))
	if got := must(t)(rewrite.Apply(e, rs)); got != e {
		t.Errorf("got %s but want the same instance as %s", got, e)
	}
}

func TestRuleResolution(t *testing.T) {
	var calls []irkind.Kind
	record := rewrite.PostFunc(func(r *rewrite.Rewriter, e ir.Expr, ops []ir.Expr) (ir.Expr, error) {
		calls = append(calls, e.Kind())
		return rewrite.ReuseIfPossible.(rewrite.PostFunc)(r, e, ops)
	})
	rs, err := rewrite.NewRuleSet("record", rewrite.Rules{
		irkind.AlgebraOperator: record,
	})
	if err != nil {
		t.Fatal(err)
	}
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	e := must(t)(ir.Div(must(t)(ir.Mul(a, b)), must(t)(ir.Add(a, b))))
	if _, err := rewrite.Apply(e, rs); err != nil {
		t.Fatal(err)
	}
	want := []irkind.Kind{irkind.Product, irkind.Sum, irkind.Division}
	if len(calls) != len(want) {
		t.Fatalf("got calls %v but want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: got %s but want %s", i, calls[i], want[i])
		}
	}
}

func TestDeepExpression(t *testing.T) {
	a := ir.Coefficient("a")
	var e ir.Expr = a
	for i := 0; i < 100000; i++ {
		e = must(t)(ir.Add(e, a))
	}
	got, err := rewrite.Validate(e)
	if err != nil {
		t.Fatal(err)
	}
	if got != e {
		t.Errorf("identity of a deep expression returned a new instance")
	}
}

func TestFormSharesVariables(t *testing.T) {
	u := ir.Coefficient("u")
	w := ir.Coefficient("w")
	v := ir.NewVariable(must(t)(ir.Mul(u, u)))
	itg1 := mustIntegral(t, must(t)(ir.Add(v, u)), form.Cell, 0)
	itg2 := mustIntegral(t, must(t)(ir.Mul(v, ir.Scalar(3))), form.ExteriorFacet, 1)
	f := form.New(itg1, itg2)
	mapping := ir.NewMap[ir.Expr]()
	mapping.Store(u, w)
	rs, err := rewrite.Substitute(mapping)
	if err != nil {
		t.Fatal(err)
	}
	got, err := rewrite.ApplyForm(f, rs)
	if err != nil {
		t.Fatal(err)
	}
	itgs := got.Integrals()
	v1 := itgs[0].Integrand().Operands()[0]
	v2 := itgs[1].Integrand().Operands()[0]
	if v1 != v2 {
		t.Errorf("variable rewritten twice: %s and %s", v1, v2)
	}
	if itgs[1].DomainType() != form.ExteriorFacet || itgs[1].DomainID() != 1 {
		t.Errorf("integral domain not preserved: %s", itgs[1])
	}
	if same, err := rewrite.ApplyForm(f, rewrite.Identity()); err != nil || same != f {
		t.Errorf("identity returned a new form (error: %v)", err)
	}
}

func TestSharedCache(t *testing.T) {
	u := ir.Coefficient("u")
	w := ir.Coefficient("w")
	v := ir.NewVariable(must(t)(ir.Mul(u, u)))
	mapping := ir.NewMap[ir.Expr]()
	mapping.Store(u, w)
	rs, err := rewrite.Substitute(mapping)
	if err != nil {
		t.Fatal(err)
	}
	cache := rewrite.NewSharedCache()
	const n = 16
	results := make([]ir.Expr, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := ir.Add(v, ir.Scalar(float64(i)))
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = rewrite.Apply(e, rs, rewrite.WithCache(cache))
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if results[i].Operands()[0] != results[0].Operands()[0] {
			t.Errorf("goroutine %d: variable not shared", i)
		}
	}
}

func mustIntegral(t *testing.T, e ir.Expr, dt form.DomainType, id int) *form.Integral {
	t.Helper()
	itg, err := form.NewIntegral(e, dt, id)
	if err != nil {
		t.Fatal(err)
	}
	return itg
}
