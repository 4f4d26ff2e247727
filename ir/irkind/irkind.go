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

// Package irkind defines the kinds of the nodes of an expression graph.
//
// Kinds form a closed enumeration. Every concrete kind has a chain of more
// general, abstract kinds given by Parent. Rewriting rules can be
// registered on any kind of the chain: the most specific rule wins.
package irkind

import "slices"

// Kind of an expression node.
type Kind uint

// Abstract kinds. No node has an abstract kind.
const (
	Invalid Kind = iota

	// Expr is the root of all kinds.
	Expr
	// Terminal is the parent of all leaf kinds.
	Terminal
	// FormArgument is the parent of basis functions, coefficients and constants.
	FormArgument
	// GeometricQuantity is the parent of quantities derived from the cell.
	GeometricQuantity
	// Operator is the parent of all non-terminal kinds.
	Operator
	// AlgebraOperator is the parent of scalar arithmetic.
	AlgebraOperator
	// WrapperType is the parent of indexing and tensor building kinds.
	WrapperType
	// Restricted is the parent of facet restrictions.
	Restricted
	// CompoundTensorOperator is the parent of high-level tensor algebra.
	CompoundTensorOperator
	// Derivative is the parent of differential operators.
	Derivative
	// CompoundDerivative is the parent of high-level differential operators.
	CompoundDerivative

	firstConcrete
)

// Concrete kinds.
const (
	ScalarValue Kind = iota + firstConcrete
	BasisFunction
	Function
	Constant
	FacetNormal
	SpatialCoordinate
	MultiIndex

	Sum
	Product
	Division
	Power
	Abs

	Indexed
	ComponentTensor
	ListTensor

	Variable

	PositiveRestricted
	NegativeRestricted

	SpatialDerivative

	Trace
	Transposed
	Deviatoric
	Skew
	Cross
	Dot
	Inner
	Outer
	Determinant
	Cofactor
	Inverse

	Div
	Grad
	Curl
	Rot

	// Max value for a Kind constant.
	Max
)

var parents = [Max]Kind{
	Expr:                   Invalid,
	Terminal:               Expr,
	FormArgument:           Terminal,
	GeometricQuantity:      Terminal,
	Operator:               Expr,
	AlgebraOperator:        Operator,
	WrapperType:            Operator,
	Restricted:             Operator,
	CompoundTensorOperator: Operator,
	Derivative:             Operator,
	CompoundDerivative:     Derivative,

	ScalarValue:       Terminal,
	BasisFunction:     FormArgument,
	Function:          FormArgument,
	Constant:          FormArgument,
	FacetNormal:       GeometricQuantity,
	SpatialCoordinate: GeometricQuantity,
	MultiIndex:        Terminal,

	Sum:      AlgebraOperator,
	Product:  AlgebraOperator,
	Division: AlgebraOperator,
	Power:    AlgebraOperator,
	Abs:      AlgebraOperator,

	Indexed:         WrapperType,
	ComponentTensor: WrapperType,
	ListTensor:      WrapperType,

	Variable: Operator,

	PositiveRestricted: Restricted,
	NegativeRestricted: Restricted,

	SpatialDerivative: Derivative,

	Trace:       CompoundTensorOperator,
	Transposed:  CompoundTensorOperator,
	Deviatoric:  CompoundTensorOperator,
	Skew:        CompoundTensorOperator,
	Cross:       CompoundTensorOperator,
	Dot:         CompoundTensorOperator,
	Inner:       CompoundTensorOperator,
	Outer:       CompoundTensorOperator,
	Determinant: CompoundTensorOperator,
	Cofactor:    CompoundTensorOperator,
	Inverse:     CompoundTensorOperator,

	Div:  CompoundDerivative,
	Grad: CompoundDerivative,
	Curl: CompoundDerivative,
	Rot:  CompoundDerivative,
}

var names = [Max]string{
	Invalid:                "invalid",
	Expr:                   "expr",
	Terminal:               "terminal",
	FormArgument:           "form_argument",
	GeometricQuantity:      "geometric_quantity",
	Operator:               "operator",
	AlgebraOperator:        "algebra_operator",
	WrapperType:            "wrapper_type",
	Restricted:             "restricted",
	CompoundTensorOperator: "compound_tensor_operator",
	Derivative:             "derivative",
	CompoundDerivative:     "compound_derivative",

	ScalarValue:       "scalar_value",
	BasisFunction:     "basis_function",
	Function:          "function",
	Constant:          "constant",
	FacetNormal:       "facet_normal",
	SpatialCoordinate: "spatial_coordinate",
	MultiIndex:        "multi_index",

	Sum:      "sum",
	Product:  "product",
	Division: "division",
	Power:    "power",
	Abs:      "abs",

	Indexed:         "indexed",
	ComponentTensor: "component_tensor",
	ListTensor:      "list_tensor",

	Variable: "variable",

	PositiveRestricted: "positive_restricted",
	NegativeRestricted: "negative_restricted",

	SpatialDerivative: "spatial_derivative",

	Trace:       "trace",
	Transposed:  "transposed",
	Deviatoric:  "deviatoric",
	Skew:        "skew",
	Cross:       "cross",
	Dot:         "dot",
	Inner:       "inner",
	Outer:       "outer",
	Determinant: "determinant",
	Cofactor:    "cofactor",
	Inverse:     "inverse",

	Div:  "div",
	Grad: "grad",
	Curl: "curl",
	Rot:  "rot",
}

// String returns the name of a kind.
func (k Kind) String() string {
	if k >= Max {
		return names[Invalid]
	}
	return names[k]
}

// Parent returns the next more general kind, or Invalid for Expr.
func (k Kind) Parent() Kind {
	if k >= Max {
		return Invalid
	}
	return parents[k]
}

// Ancestry returns the chain of kinds from k (included) to Expr.
func (k Kind) Ancestry() []Kind {
	var chain []Kind
	for ; k != Invalid; k = k.Parent() {
		chain = append(chain, k)
	}
	return chain
}

// IsA returns true if other is k or one of its ancestors.
func (k Kind) IsA(other Kind) bool {
	return slices.Contains(k.Ancestry(), other)
}

// IsConcrete returns true if nodes can have the kind k.
func (k Kind) IsConcrete() bool {
	return k >= firstConcrete && k < Max
}

// IsTerminal returns true if k is a leaf kind.
func (k Kind) IsTerminal() bool {
	return k.IsA(Terminal)
}

// Concrete returns all the concrete kinds.
func Concrete() []Kind {
	kinds := make([]Kind, 0, Max-firstConcrete)
	for k := firstConcrete; k < Max; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// FromString returns a kind given its name, or Invalid.
func FromString(name string) Kind {
	for k := Invalid; k < Max; k++ {
		if names[k] == name {
			return k
		}
	}
	return Invalid
}
