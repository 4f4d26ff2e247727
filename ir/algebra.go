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

// Add returns a+b.
func Add(a, b Expr) (Expr, error) {
	return asExpr(NewSum(a, b))
}

// Sub returns a-b.
func Sub(a, b Expr) (Expr, error) {
	nb, err := Neg(b)
	if err != nil {
		return nil, err
	}
	return Add(a, nb)
}

// Neg returns -a.
func Neg(a Expr) (Expr, error) {
	return Mul(Scalar(-1), a)
}

// Mul returns the product of a and b. At least one operand must be
// a scalar: the other one is multiplied component-wise.
func Mul(a, b Expr) (Expr, error) {
	switch {
	case IsScalar(a) && IsScalar(b):
		return asExpr(NewProduct(a, b))
	case IsScalar(a):
		return componentWise(b, func(bi Expr) (Expr, error) {
			return asExpr(NewProduct(a, bi))
		})
	case IsScalar(b):
		return componentWise(a, func(ai Expr) (Expr, error) {
			return asExpr(NewProduct(ai, b))
		})
	}
	return nil, errorf("cannot multiply expressions of shapes %s and %s: use a dot, inner or outer product", a.Shape(), b.Shape())
}

// Div returns a/b where b is a scalar. a is divided component-wise.
func Div(a, b Expr) (Expr, error) {
	return componentWise(a, func(ai Expr) (Expr, error) {
		return asExpr(NewDivision(ai, b))
	})
}

// Pow returns a raised to b.
func Pow(a, b Expr) (Expr, error) {
	return asExpr(NewPower(a, b))
}

// Idx returns the component of a selected by indices.
func Idx(a Expr, indices ...Index) (Expr, error) {
	if len(indices) == 0 && IsScalar(a) {
		return a, nil
	}
	return asExpr(NewIndexed(a, NewMultiIndex(indices...)))
}

// AsTensor returns the tensor obtained by binding indices in the scalar f.
func AsTensor(f Expr, indices ...Index) (Expr, error) {
	if len(indices) == 0 {
		return f, nil
	}
	return asExpr(NewComponentTensor(f, NewMultiIndex(indices...)))
}

// AsVector stacks expressions into a vector.
func AsVector(ops ...Expr) (Expr, error) {
	return asExpr(NewListTensor(ops...))
}

// AsMatrix stacks rows of expressions into a matrix.
func AsMatrix(rows [][]Expr) (Expr, error) {
	vecs := make([]Expr, len(rows))
	for i, row := range rows {
		var err error
		if vecs[i], err = AsVector(row...); err != nil {
			return nil, err
		}
	}
	return AsVector(vecs...)
}

// Dx returns the derivative of f with respect to the spatial coordinates
// selected by indices in a space of dimension dim.
func Dx(f Expr, dim int, indices ...Index) (Expr, error) {
	return asExpr(NewSpatialDerivative(f, NewMultiIndex(indices...), dim))
}

// componentWise applies fn to every component of a and builds
// the tensor of the results.
func componentWise(a Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	if IsScalar(a) {
		return fn(a)
	}
	ii := NewIndices(Rank(a))
	ai, err := Idx(a, ii...)
	if err != nil {
		return nil, err
	}
	fi, err := fn(ai)
	if err != nil {
		return nil, err
	}
	return AsTensor(fi, ii...)
}

func asExpr(op *Operator, err error) (Expr, error) {
	if err != nil {
		return nil, err
	}
	return op, nil
}
