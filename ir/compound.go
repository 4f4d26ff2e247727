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

package ir

import "github.com/gx-org/formx/ir/irkind"

// Side of a facet restriction.
type Side int

const (
	// Positive side of an interior facet.
	Positive Side = iota
	// Negative side of an interior facet.
	Negative
)

// Restrict returns f restricted to one side of an interior facet.
func Restrict(f Expr, side Side) (Expr, error) {
	switch side {
	case Positive:
		return newRestricted(irkind.PositiveRestricted, f), nil
	case Negative:
		return newRestricted(irkind.NegativeRestricted, f), nil
	}
	return nil, errorf("invalid restriction side %d", side)
}

func compound(kind irkind.Kind, ops ...Expr) (Expr, error) {
	return asExpr(NewCompound(kind, 0, ops...))
}

// Tr returns the trace of a square matrix.
func Tr(a Expr) (Expr, error) { return compound(irkind.Trace, a) }

// Transpose returns the transposed of a matrix.
func Transpose(a Expr) (Expr, error) { return compound(irkind.Transposed, a) }

// Dev returns the deviatoric part of a square matrix.
func Dev(a Expr) (Expr, error) { return compound(irkind.Deviatoric, a) }

// SkewOf returns the skew-symmetric part of a square matrix.
func SkewOf(a Expr) (Expr, error) { return compound(irkind.Skew, a) }

// CrossOf returns the cross product of two 3-vectors.
func CrossOf(a, b Expr) (Expr, error) { return compound(irkind.Cross, a, b) }

// DotOf contracts the last axis of a with the first axis of b.
// The dot product of two scalars is their product.
func DotOf(a, b Expr) (Expr, error) {
	if IsScalar(a) && IsScalar(b) {
		return Mul(a, b)
	}
	return compound(irkind.Dot, a, b)
}

// InnerOf contracts all the axes of a and b.
// The inner product of two scalars is their product.
func InnerOf(a, b Expr) (Expr, error) {
	if IsScalar(a) && IsScalar(b) {
		return Mul(a, b)
	}
	return compound(irkind.Inner, a, b)
}

// OuterOf returns the outer product of a and b.
// If one of the operands is a scalar, the result is a product.
func OuterOf(a, b Expr) (Expr, error) {
	if IsScalar(a) || IsScalar(b) {
		return Mul(a, b)
	}
	return compound(irkind.Outer, a, b)
}

// Det returns the determinant of a square matrix or of a scalar.
func Det(a Expr) (Expr, error) { return compound(irkind.Determinant, a) }

// Cofac returns the cofactor matrix of a square matrix.
func Cofac(a Expr) (Expr, error) { return compound(irkind.Cofactor, a) }

// Inv returns the inverse of a square matrix or of a scalar.
func Inv(a Expr) (Expr, error) { return compound(irkind.Inverse, a) }

// DivOf returns the divergence of a.
func DivOf(a Expr) (Expr, error) { return compound(irkind.Div, a) }

// GradOf returns the gradient of a in a space of dimension dim.
func GradOf(a Expr, dim int) (Expr, error) {
	return asExpr(NewCompound(irkind.Grad, dim, a))
}

// CurlOf returns the curl of a 3-vector.
func CurlOf(a Expr) (Expr, error) { return compound(irkind.Curl, a) }

// RotOf returns the rot of a 2-vector.
func RotOf(a Expr) (Expr, error) { return compound(irkind.Rot, a) }
