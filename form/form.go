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

// Package form defines integrals of expressions over parts of a domain.
package form

import (
	"fmt"
	"strings"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir"
)

// DomainType is the type of the part of the domain an integral is computed on.
type DomainType int

const (
	// Cell integrals are computed over every cell.
	Cell DomainType = iota
	// ExteriorFacet integrals are computed over the boundary facets.
	ExteriorFacet
	// InteriorFacet integrals are computed over facets shared by two cells.
	InteriorFacet
)

var domainNames = []string{
	Cell:          "cell",
	ExteriorFacet: "exterior_facet",
	InteriorFacet: "interior_facet",
}

// String returns the name of the domain type.
func (d DomainType) String() string {
	if d < 0 || int(d) >= len(domainNames) {
		return fmt.Sprintf("DomainType(%d)", int(d))
	}
	return domainNames[d]
}

// ParseDomainType returns the domain type given its name.
func ParseDomainType(s string) (DomainType, error) {
	for i, name := range domainNames {
		if name == s {
			return DomainType(i), nil
		}
	}
	return 0, fmterr.Preconditionf("unknown domain type %q", s)
}

// Integral of an expression over a subdomain.
type Integral struct {
	domain    DomainType
	domainID  int
	integrand ir.Expr
}

// NewIntegral returns the integral of a scalar expression.
func NewIntegral(integrand ir.Expr, domain DomainType, domainID int) (*Integral, error) {
	if !ir.IsScalar(integrand) || len(integrand.FreeIndices()) > 0 {
		return nil, fmterr.At(integrand, fmterr.Preconditionf("integrand must be a scalar without free indices"))
	}
	return &Integral{domain: domain, domainID: domainID, integrand: integrand}, nil
}

// DomainType returns the type of the integration domain.
func (itg *Integral) DomainType() DomainType { return itg.domain }

// DomainID returns the identifier of the subdomain.
func (itg *Integral) DomainID() int { return itg.domainID }

// Integrand returns the integrated expression.
func (itg *Integral) Integrand() ir.Expr { return itg.integrand }

// Reconstruct returns an integral over the same domain with a new integrand.
// The receiver is returned if the integrand is unchanged.
func (itg *Integral) Reconstruct(integrand ir.Expr) (*Integral, error) {
	if integrand == itg.integrand {
		return itg, nil
	}
	return NewIntegral(integrand, itg.domain, itg.domainID)
}

// String representation of the integral.
func (itg *Integral) String() string {
	return fmt.Sprintf("{ %s } * d%s(%d)", itg.integrand, itg.domain, itg.domainID)
}

// Form is a sum of integrals.
type Form struct {
	integrals []*Integral
}

// New returns a form given its integrals.
func New(integrals ...*Integral) *Form {
	return &Form{integrals: integrals}
}

// Integrals of the form.
func (f *Form) Integrals() []*Integral { return f.integrals }

// Integrands returns the integrand of every integral.
func (f *Form) Integrands() []ir.Expr {
	exprs := make([]ir.Expr, len(f.integrals))
	for i, itg := range f.integrals {
		exprs[i] = itg.integrand
	}
	return exprs
}

// String representation of the form.
func (f *Form) String() string {
	ss := make([]string, len(f.integrals))
	for i, itg := range f.integrals {
		ss[i] = itg.String()
	}
	return strings.Join(ss, "\n  + ")
}
