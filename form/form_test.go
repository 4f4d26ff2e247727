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

package form_test

import (
	"testing"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/pkg/errors"
)

func TestDomainType(t *testing.T) {
	tests := []struct {
		name string
		want form.DomainType
	}{
		{name: "cell", want: form.Cell},
		{name: "exterior_facet", want: form.ExteriorFacet},
		{name: "interior_facet", want: form.InteriorFacet},
	}
	for i, test := range tests {
		got, err := form.ParseDomainType(test.name)
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if got != test.want {
			t.Errorf("test %d: got %v but want %v", i, got, test.want)
		}
		if got.String() != test.name {
			t.Errorf("test %d: got %s but want %s", i, got.String(), test.name)
		}
	}
	if _, err := form.ParseDomainType("vertex"); !errors.Is(err, fmterr.ErrPrecondition) {
		t.Errorf("got error %v but want a precondition violation", err)
	}
}

func TestReconstruct(t *testing.T) {
	a := ir.Coefficient("a")
	b := ir.Coefficient("b")
	itg, err := form.NewIntegral(a, form.ExteriorFacet, 3)
	if err != nil {
		t.Fatal(err)
	}
	same, err := itg.Reconstruct(a)
	if err != nil {
		t.Fatal(err)
	}
	if same != itg {
		t.Errorf("reconstructing with the same integrand returned a new integral")
	}
	other, err := itg.Reconstruct(b)
	if err != nil {
		t.Fatal(err)
	}
	if other.Integrand() != b || other.DomainType() != form.ExteriorFacet || other.DomainID() != 3 {
		t.Errorf("got %s but want b over exterior_facet 3", other)
	}
	if _, err := itg.Reconstruct(ir.Coefficient("u", 2)); !errors.Is(err, fmterr.ErrPrecondition) {
		t.Errorf("got error %v but want a precondition violation", err)
	}
}
