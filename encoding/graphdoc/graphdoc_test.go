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

package graphdoc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gx-org/formx/encoding/graphdoc"
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
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

func integral(t *testing.T, e ir.Expr, domain form.DomainType, id int) *form.Integral {
	t.Helper()
	itg, err := form.NewIntegral(e, domain, id)
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	return itg
}

func TestFromForm(t *testing.T) {
	a := ir.Coefficient("a")
	e := must(t)(ir.Add(must(t)(ir.Mul(a, a)), ir.Scalar(2)))
	got := graphdoc.FromForm(form.New(integral(t, e, form.Cell, 0)))
	want := &graphdoc.Document{
		Version: graphdoc.Version,
		Nodes: []graphdoc.Node{
			{Kind: "function", Name: "a", Count: a.Count()},
			{Kind: "product", Operands: []int{0, 0}},
			{Kind: "scalar_value", Value: 2},
			{Kind: "sum", Operands: []int{1, 2}},
		},
		Integrals: []graphdoc.Integral{
			{Domain: "cell", ID: 0, Integrand: 3},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("unexpected document (-want +got):\n%s", diff)
	}
}

func testForm(t *testing.T) *form.Form {
	u := ir.Coefficient("u", 3)
	v := ir.BasisFunction("v", 0, 3)
	A := ir.Constant("A", 3, 3)
	n := must(t)(ir.FacetNormal(3))
	i, j := ir.NewIndex(), ir.NewIndex()
	shared := ir.NewVariable(must(t)(ir.DotOf(u, n)))
	gradU := must(t)(ir.GradOf(u, 3))
	e1 := must(t)(ir.Mul(
		shared,
		must(t)(ir.Mul(must(t)(ir.Idx(gradU, i, j)), must(t)(ir.Idx(A, i, j)))),
	))
	e2 := must(t)(ir.Add(
		must(t)(ir.Mul(shared, must(t)(ir.Idx(v, i)))),
		must(t)(ir.Dx(must(t)(ir.Idx(u, ir.Fixed(0))), 3, i)),
	))
	e2 = must(t)(ir.Idx(must(t)(ir.AsTensor(e2, i)), ir.Fixed(2)))
	return form.New(
		integral(t, e1, form.Cell, 0),
		integral(t, must(t)(ir.Restrict(e2, ir.Negative)), form.InteriorFacet, 3),
	)
}

func TestRoundTrip(t *testing.T) {
	f := testForm(t)
	data, err := graphdoc.Encode(f)
	if err != nil {
		t.Fatalf("\n%+v", err)
	}
	got, err := graphdoc.Decode(data)
	if err != nil {
		t.Fatalf("\n%+v\ndocument:\n%s", err, data)
	}
	if len(got.Integrals()) != len(f.Integrals()) {
		t.Fatalf("got %d integrals but want %d", len(got.Integrals()), len(f.Integrals()))
	}
	for i, itg := range got.Integrals() {
		want := f.Integrals()[i]
		if itg.DomainType() != want.DomainType() || itg.DomainID() != want.DomainID() {
			t.Errorf("integral %d: got domain %s(%d) but want %s(%d)", i, itg.DomainType(), itg.DomainID(), want.DomainType(), want.DomainID())
		}
		if !ir.Equal(itg.Integrand(), want.Integrand()) {
			t.Errorf("integral %d: got\n%s\nbut want\n%s", i, itg.Integrand(), want.Integrand())
		}
	}
	// The variable is decoded once and shared between the integrals.
	v1 := got.Integrands()[0].Operands()[0]
	v2 := got.Integrands()[1].Operands()[0].Operands()[0].Operands()[0].Operands()[0].Operands()[0]
	if _, ok := v1.(*ir.Variable); !ok {
		t.Fatalf("got %s but want a variable", v1.Kind())
	}
	if v1 != v2 {
		t.Errorf("variable is not shared between integrals: %s and %s", v1, v2)
	}
	again, err := graphdoc.Encode(got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(data), string(again)); diff != "" {
		t.Errorf("encoding is not stable (-first +second):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	data, err := graphdoc.Encode(testForm(t))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "form.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := graphdoc.Load(path); err != nil {
		t.Errorf("\n%+v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		doc     string
		numErrs int
	}{
		{
			doc:     `{version: 2.0.0}`,
			numErrs: 1,
		},
		{
			doc: `
version: 1.0.0
nodes:
- {kind: unknown}
- {kind: function, name: a, count: 1}
- {kind: sum, operands: [1, 3]}
- {kind: function, name: b, count: 2}
integrals:
- {domain: cell, id: 0, integrand: 1}
`,
			numErrs: 2,
		},
		{
			// A product shared by two sums.
			doc: `
version: 1.0.0
nodes:
- {kind: function, name: a, count: 1}
- {kind: product, operands: [0, 0]}
- {kind: sum, operands: [1, 1]}
integrals:
- {domain: cell, id: 0, integrand: 2}
`,
			numErrs: 1,
		},
		{
			doc: `
version: 1.0.0
nodes:
- {kind: function, name: u, count: 1, shape: [2]}
- {kind: multi_index, indices: [i_a]}
- {kind: indexed, operands: [0, 1]}
- {kind: function, name: a, count: 2, operands: [0]}
integrals:
- {domain: volume, id: 0, integrand: 0}
- {domain: cell, id: 0, integrand: 12}
`,
			numErrs: 4,
		},
		{
			// Integrand with a free index.
			doc: `
version: 1.0.0
nodes:
- {kind: function, name: u, count: 1, shape: [2]}
- {kind: multi_index, indices: [i_1]}
- {kind: indexed, operands: [0, 1]}
integrals:
- {domain: cell, id: 0, integrand: 2}
`,
			numErrs: 1,
		},
	}
	for i, test := range tests {
		_, err := graphdoc.Decode([]byte(test.doc))
		if err == nil {
			t.Errorf("test %d: expected an error", i)
			continue
		}
		errs := multierr.Errors(err)
		if len(errs) != test.numErrs {
			t.Errorf("test %d: got %d errors but want %d: %v", i, len(errs), test.numErrs, err)
		}
		for _, err := range errs {
			if !errors.Is(err, fmterr.ErrPrecondition) {
				t.Errorf("test %d: %v is not a precondition error", i, err)
			}
		}
	}
}
