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

import (
	"slices"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir/irkind"
)

// Operator is a non-terminal node other than a Variable.
type Operator struct {
	exprBase
	dim int
}

var _ Expr = (*Operator)(nil)

func newOperator(kind irkind.Kind, dim int, ops []Expr, shape Shape, free []Index, dims map[Index]int) *Operator {
	return &Operator{
		exprBase: exprBase{
			kind:  kind,
			ops:   ops,
			shape: shape,
			free:  free,
			dims:  dims,
			hash:  newHasher(kind).int(dim).operands(ops).sum(),
		},
		dim: dim,
	}
}

// Dim returns the geometric dimension of a spatial derivative or of a
// gradient. It is 0 for all other operators.
func (op *Operator) Dim() int { return op.dim }

// MultiIndex returns the multi-index operand of an Indexed, a
// ComponentTensor or a SpatialDerivative node, or nil.
func (op *Operator) MultiIndex() *MultiIndex {
	switch op.kind {
	case irkind.Indexed, irkind.ComponentTensor, irkind.SpatialDerivative:
		mi, _ := op.ops[1].(*MultiIndex)
		return mi
	}
	return nil
}

// NewOperator builds an operator of a given kind. dim is only used by
// spatial derivatives and gradients.
func NewOperator(kind irkind.Kind, dim int, ops ...Expr) (*Operator, error) {
	switch kind {
	case irkind.Sum:
		return NewSum(ops...)
	case irkind.Product:
		return NewProduct(ops...)
	case irkind.ListTensor:
		return NewListTensor(ops...)
	}
	if kind.IsA(irkind.CompoundTensorOperator) || kind.IsA(irkind.CompoundDerivative) {
		return NewCompound(kind, dim, ops...)
	}
	want := 1
	switch kind {
	case irkind.Division, irkind.Power, irkind.Indexed, irkind.ComponentTensor, irkind.SpatialDerivative:
		want = 2
	case irkind.Abs, irkind.PositiveRestricted, irkind.NegativeRestricted:
	default:
		return nil, errorf("cannot build an operator of kind %s", kind)
	}
	if err := checkArity(kind, ops, want); err != nil {
		return nil, err
	}
	switch kind {
	case irkind.Division:
		return NewDivision(ops[0], ops[1])
	case irkind.Power:
		return NewPower(ops[0], ops[1])
	case irkind.Abs:
		return NewAbs(ops[0])
	case irkind.PositiveRestricted, irkind.NegativeRestricted:
		return newRestricted(kind, ops[0]), nil
	}
	mi, ok := ops[1].(*MultiIndex)
	if !ok {
		return nil, errorf("%s requires a multi-index as second operand, got %s", kind, ops[1].Kind())
	}
	switch kind {
	case irkind.Indexed:
		return NewIndexed(ops[0], mi)
	case irkind.ComponentTensor:
		return NewComponentTensor(ops[0], mi)
	case irkind.SpatialDerivative:
		return NewSpatialDerivative(ops[0], mi, dim)
	}
	return nil, fmterr.Internalf("operator kind %s not handled", kind)
}

func checkArity(kind irkind.Kind, ops []Expr, want int) error {
	if len(ops) != want {
		return errorf("%s requires %d operand(s), got %d", kind, want, len(ops))
	}
	for _, op := range ops {
		if op == nil {
			return errorf("%s: nil operand", kind)
		}
	}
	return nil
}

// NewSum returns the sum of at least two operands with the same shape
// and the same free indices.
func NewSum(ops ...Expr) (*Operator, error) {
	if len(ops) < 2 {
		return nil, errorf("sum requires at least 2 operands, got %d", len(ops))
	}
	first := ops[0]
	for _, op := range ops[1:] {
		if !first.Shape().Equal(op.Shape()) {
			return nil, errorf("cannot add expressions of shapes %s and %s", first.Shape(), op.Shape())
		}
		if !sameFreeIndices(first, op) {
			return nil, errorf("cannot add expressions with free indices (%s) and (%s)", joinIndices(first.FreeIndices()), joinIndices(op.FreeIndices()))
		}
	}
	return newOperator(irkind.Sum, 0, ops, first.Shape(), first.FreeIndices(), first.IndexDims()), nil
}

// NewProduct returns the product of at least two scalar operands.
// A free index occurring in two operands is summed over.
func NewProduct(ops ...Expr) (*Operator, error) {
	if len(ops) < 2 {
		return nil, errorf("product requires at least 2 operands, got %d", len(ops))
	}
	counter := newIndexCounter()
	for _, op := range ops {
		if !IsScalar(op) {
			return nil, errorf("product operands must be scalar, got shape %s", op.Shape())
		}
		if err := counter.addFree(op); err != nil {
			return nil, err
		}
	}
	free, dims, err := counter.free(2)
	if err != nil {
		return nil, err
	}
	return newOperator(irkind.Product, 0, ops, nil, free, dims), nil
}

// NewDivision returns num/den. The denominator must be a scalar
// without free indices.
func NewDivision(num, den Expr) (*Operator, error) {
	if !IsScalar(num) {
		return nil, errorf("division numerator must be scalar, got shape %s", num.Shape())
	}
	if !IsScalar(den) || len(den.FreeIndices()) > 0 {
		return nil, errorf("division denominator must be a scalar without free indices")
	}
	return newOperator(irkind.Division, 0, []Expr{num, den}, nil, num.FreeIndices(), num.IndexDims()), nil
}

// NewPower returns base raised to exp. Both operands must be scalars
// without free indices.
func NewPower(base, exp Expr) (*Operator, error) {
	for _, op := range []Expr{base, exp} {
		if !IsScalar(op) || len(op.FreeIndices()) > 0 {
			return nil, errorf("power operands must be scalars without free indices")
		}
	}
	return newOperator(irkind.Power, 0, []Expr{base, exp}, nil, nil, nil), nil
}

// NewAbs returns the absolute value of a.
func NewAbs(a Expr) (*Operator, error) {
	return newOperator(irkind.Abs, 0, []Expr{a}, a.Shape(), a.FreeIndices(), a.IndexDims()), nil
}

// NewIndexed returns the scalar component of a selected by mi.
// A free index repeated in mi, or shared between mi and a, is summed over.
func NewIndexed(a Expr, mi *MultiIndex) (*Operator, error) {
	shape := a.Shape()
	if mi.Len() != len(shape) {
		return nil, errorf("cannot index an expression of rank %d with %d indices", len(shape), mi.Len())
	}
	counter := newIndexCounter()
	if err := counter.addFree(a); err != nil {
		return nil, err
	}
	for axis, idx := range mi.Indices() {
		if idx.IsFixed() {
			if idx.Value() < 0 || idx.Value() >= shape[axis] {
				return nil, errorf("index %d out of bounds for axis %d of shape %s", idx.Value(), axis, shape)
			}
			continue
		}
		if err := counter.add(idx, shape[axis]); err != nil {
			return nil, err
		}
	}
	free, dims, err := counter.free(2)
	if err != nil {
		return nil, err
	}
	return newOperator(irkind.Indexed, 0, []Expr{a, mi}, nil, free, dims), nil
}

// NewComponentTensor builds a tensor from the scalar f by binding the
// free indices of mi. Every index of mi must be free in f.
func NewComponentTensor(f Expr, mi *MultiIndex) (*Operator, error) {
	if !IsScalar(f) {
		return nil, errorf("component tensor requires a scalar expression, got shape %s", f.Shape())
	}
	if mi.Len() == 0 {
		return nil, errorf("component tensor requires at least one index")
	}
	fdims := f.IndexDims()
	shape := make(Shape, mi.Len())
	for axis, idx := range mi.Indices() {
		if idx.IsFixed() {
			return nil, errorf("component tensor cannot bind the fixed index %s", idx)
		}
		if slices.Contains(mi.Indices()[:axis], idx) {
			return nil, errorf("index %s bound twice by a component tensor", idx)
		}
		if !slices.Contains(f.FreeIndices(), idx) {
			return nil, errorf("index %s is not free in %s", idx, f)
		}
		shape[axis] = fdims[idx]
	}
	var free []Index
	dims := make(map[Index]int)
	for _, idx := range f.FreeIndices() {
		if slices.Contains(mi.Indices(), idx) {
			continue
		}
		free = append(free, idx)
		dims[idx] = fdims[idx]
	}
	return newOperator(irkind.ComponentTensor, 0, []Expr{f, mi}, shape, free, dims), nil
}

// NewListTensor stacks expressions of the same shape and the same free
// indices along a new leading axis.
func NewListTensor(ops ...Expr) (*Operator, error) {
	if len(ops) == 0 {
		return nil, errorf("list tensor requires at least one operand")
	}
	first := ops[0]
	for _, op := range ops[1:] {
		if !first.Shape().Equal(op.Shape()) {
			return nil, errorf("list tensor entries have different shapes %s and %s", first.Shape(), op.Shape())
		}
		if !sameFreeIndices(first, op) {
			return nil, errorf("list tensor entries have different free indices (%s) and (%s)", joinIndices(first.FreeIndices()), joinIndices(op.FreeIndices()))
		}
	}
	shape := concatShapes(Shape{len(ops)}, first.Shape())
	return newOperator(irkind.ListTensor, 0, ops, shape, first.FreeIndices(), first.IndexDims()), nil
}

func newRestricted(kind irkind.Kind, a Expr) *Operator {
	return newOperator(kind, 0, []Expr{a}, a.Shape(), a.FreeIndices(), a.IndexDims())
}

// NewSpatialDerivative returns the derivative of f with respect to the
// spatial coordinates selected by mi, in a space of dimension dim.
// A free index of mi also free in f is summed over.
func NewSpatialDerivative(f Expr, mi *MultiIndex, dim int) (*Operator, error) {
	if dim < 1 {
		return nil, errorf("invalid spatial dimension %d", dim)
	}
	if mi.Len() == 0 {
		return nil, errorf("spatial derivative requires at least one index")
	}
	counter := newIndexCounter()
	if err := counter.addFree(f); err != nil {
		return nil, err
	}
	for _, idx := range mi.Indices() {
		if idx.IsFixed() {
			if idx.Value() < 0 || idx.Value() >= dim {
				return nil, errorf("derivative direction %d out of bounds for dimension %d", idx.Value(), dim)
			}
			continue
		}
		if err := counter.add(idx, dim); err != nil {
			return nil, err
		}
	}
	free, dims, err := counter.free(2)
	if err != nil {
		return nil, err
	}
	return newOperator(irkind.SpatialDerivative, dim, []Expr{f, mi}, f.Shape(), free, dims), nil
}

// NewCompound returns a compound tensor operator or a compound derivative.
// dim is only used by gradients.
func NewCompound(kind irkind.Kind, dim int, ops ...Expr) (*Operator, error) {
	if !kind.IsConcrete() || !(kind.IsA(irkind.CompoundTensorOperator) || kind.IsA(irkind.CompoundDerivative)) {
		return nil, errorf("%s is not a compound operator", kind)
	}
	want := 1
	switch kind {
	case irkind.Cross, irkind.Dot, irkind.Inner, irkind.Outer:
		want = 2
	}
	if err := checkArity(kind, ops, want); err != nil {
		return nil, err
	}
	counter := newIndexCounter()
	for _, op := range ops {
		if err := counter.addFree(op); err != nil {
			return nil, err
		}
	}
	free, dims, err := counter.free(1)
	if err != nil {
		return nil, errorf("%s operands cannot share free indices", kind)
	}
	shape, err := compoundShape(kind, dim, ops)
	if err != nil {
		return nil, err
	}
	if kind != irkind.Grad {
		dim = 0
	}
	return newOperator(kind, dim, ops, shape, free, dims), nil
}

func isSquare(s Shape) bool {
	return len(s) == 2 && s[0] == s[1]
}

func compoundShape(kind irkind.Kind, dim int, ops []Expr) (Shape, error) {
	a := ops[0].Shape()
	switch kind {
	case irkind.Trace:
		if !isSquare(a) {
			return nil, errorf("trace of a non-square matrix of shape %s", a)
		}
		return nil, nil
	case irkind.Transposed:
		if len(a) != 2 {
			return nil, errorf("transposed of an expression of rank %d", len(a))
		}
		return Shape{a[1], a[0]}, nil
	case irkind.Deviatoric, irkind.Skew, irkind.Cofactor:
		if !isSquare(a) {
			return nil, errorf("%s of a non-square matrix of shape %s", kind, a)
		}
		return a, nil
	case irkind.Determinant:
		if len(a) != 0 && !isSquare(a) {
			return nil, errorf("determinant of an expression of shape %s", a)
		}
		return nil, nil
	case irkind.Inverse:
		if len(a) != 0 && !isSquare(a) {
			return nil, errorf("inverse of an expression of shape %s", a)
		}
		return a, nil
	case irkind.Div:
		if len(a) == 0 {
			return nil, errorf("divergence of a scalar")
		}
		return concatShapes(a[:len(a)-1]), nil
	case irkind.Grad:
		if dim < 1 {
			return nil, errorf("invalid gradient dimension %d", dim)
		}
		return concatShapes(Shape{dim}, a), nil
	case irkind.Curl:
		if !a.Equal(Shape{3}) {
			return nil, errorf("curl of an expression of shape %s", a)
		}
		return a, nil
	case irkind.Rot:
		if !a.Equal(Shape{2}) {
			return nil, errorf("rot of an expression of shape %s", a)
		}
		return nil, nil
	}
	b := ops[1].Shape()
	switch kind {
	case irkind.Cross:
		if !a.Equal(Shape{3}) || !b.Equal(Shape{3}) {
			return nil, errorf("cross product of expressions of shapes %s and %s", a, b)
		}
		return a, nil
	case irkind.Dot:
		if len(a) == 0 || len(b) == 0 || a[len(a)-1] != b[0] {
			return nil, errorf("dot product of expressions of shapes %s and %s", a, b)
		}
		return concatShapes(a[:len(a)-1], b[1:]), nil
	case irkind.Inner:
		if !a.Equal(b) {
			return nil, errorf("inner product of expressions of shapes %s and %s", a, b)
		}
		return nil, nil
	case irkind.Outer:
		return concatShapes(a, b), nil
	}
	return nil, errorf("unknown compound operator %s", kind)
}
