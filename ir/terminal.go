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
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/gx-org/formx/ir/irkind"
)

type (
	// ScalarValue is a scalar constant.
	ScalarValue struct {
		exprBase
		value float64
	}

	// FormArgument is a basis function, a coefficient or a constant
	// of a form.
	FormArgument struct {
		exprBase
		name  string
		count int
	}

	// Geometric is a quantity derived from the cell, such as a facet normal.
	Geometric struct {
		exprBase
		dim int
	}

	// MultiIndex is a tuple of indices used to index or to build tensors.
	MultiIndex struct {
		exprBase
		indices []Index
	}
)

var (
	_ Expr = (*ScalarValue)(nil)
	_ Expr = (*FormArgument)(nil)
	_ Expr = (*Geometric)(nil)
	_ Expr = (*MultiIndex)(nil)
)

// Scalar returns a scalar constant.
func Scalar(v float64) *ScalarValue {
	return &ScalarValue{
		exprBase: exprBase{
			kind: irkind.ScalarValue,
			hash: newHasher(irkind.ScalarValue).float(v).sum(),
		},
		value: v,
	}
}

// Value of the constant.
func (s *ScalarValue) Value() float64 { return s.value }

// String representation of the constant.
func (s *ScalarValue) String() string {
	return strconv.FormatFloat(s.value, 'g', -1, 64)
}

var coefficientCount atomic.Int64

// NewFormArgument returns a form argument of the given kind.
// For basis functions, count is the argument number (0 for the test
// function, 1 for the trial function). For coefficients and constants,
// count identifies the function.
func NewFormArgument(kind irkind.Kind, name string, count int, shape Shape) (*FormArgument, error) {
	if !kind.IsA(irkind.FormArgument) || !kind.IsConcrete() {
		return nil, errorf("%s is not a form argument kind", kind)
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if kind != irkind.BasisFunction {
		bumpCount(&coefficientCount, count)
	}
	return newFormArgument(kind, name, count, shape), nil
}

func newFormArgument(kind irkind.Kind, name string, count int, shape Shape) *FormArgument {
	return &FormArgument{
		exprBase: exprBase{
			kind:  kind,
			shape: shape,
			hash:  newHasher(kind).str(name).int(count).shape(shape).sum(),
		},
		name:  name,
		count: count,
	}
}

// BasisFunction returns the basis function number of a form.
func BasisFunction(name string, number int, shape ...int) *FormArgument {
	return newFormArgument(irkind.BasisFunction, name, number, shape)
}

// Coefficient returns a new coefficient function.
func Coefficient(name string, shape ...int) *FormArgument {
	return newFormArgument(irkind.Function, name, int(coefficientCount.Add(1)), shape)
}

// Constant returns a new constant defined over the domain.
func Constant(name string, shape ...int) *FormArgument {
	return newFormArgument(irkind.Constant, name, int(coefficientCount.Add(1)), shape)
}

// Name of the argument.
func (f *FormArgument) Name() string { return f.name }

// Count identifying the argument.
func (f *FormArgument) Count() int { return f.count }

// String representation of the argument.
func (f *FormArgument) String() string {
	if f.name != "" {
		return f.name
	}
	switch f.kind {
	case irkind.BasisFunction:
		return fmt.Sprintf("v_%d", f.count)
	case irkind.Constant:
		return fmt.Sprintf("c_%d", f.count)
	}
	return fmt.Sprintf("w_%d", f.count)
}

// NewGeometric returns a geometric quantity of a cell of dimension dim.
func NewGeometric(kind irkind.Kind, dim int) (*Geometric, error) {
	if !kind.IsA(irkind.GeometricQuantity) || !kind.IsConcrete() {
		return nil, errorf("%s is not a geometric quantity kind", kind)
	}
	if dim < 1 {
		return nil, errorf("invalid geometric dimension %d", dim)
	}
	return &Geometric{
		exprBase: exprBase{
			kind:  kind,
			shape: Shape{dim},
			hash:  newHasher(kind).int(dim).sum(),
		},
		dim: dim,
	}, nil
}

// FacetNormal returns the facet normal of a cell of dimension dim.
func FacetNormal(dim int) (*Geometric, error) {
	return NewGeometric(irkind.FacetNormal, dim)
}

// SpatialCoordinate returns the coordinates of a cell of dimension dim.
func SpatialCoordinate(dim int) (*Geometric, error) {
	return NewGeometric(irkind.SpatialCoordinate, dim)
}

// Dim returns the geometric dimension of the quantity.
func (g *Geometric) Dim() int { return g.dim }

// String representation of the quantity.
func (g *Geometric) String() string {
	if g.kind == irkind.FacetNormal {
		return "n"
	}
	return "x"
}

// NewMultiIndex returns a tuple of indices.
func NewMultiIndex(indices ...Index) *MultiIndex {
	h := newHasher(irkind.MultiIndex).int(len(indices))
	var free []Index
	for _, i := range indices {
		h.index(i)
		if !i.fixed && !slicesContains(free, i) {
			free = append(free, i)
		}
	}
	return &MultiIndex{
		exprBase: exprBase{
			kind: irkind.MultiIndex,
			free: free,
			hash: h.sum(),
		},
		indices: indices,
	}
}

// Indices returns the indices of the tuple.
func (m *MultiIndex) Indices() []Index { return m.indices }

// Len returns the number of indices.
func (m *MultiIndex) Len() int { return len(m.indices) }

// String representation of the tuple.
func (m *MultiIndex) String() string {
	return "(" + joinIndices(m.indices) + ")"
}

func checkShape(shape Shape) error {
	for _, d := range shape {
		if d < 1 {
			return errorf("invalid shape %s", shape)
		}
	}
	return nil
}

func slicesContains(ii []Index, i Index) bool {
	for _, x := range ii {
		if x == i {
			return true
		}
	}
	return false
}

// bumpCount makes sure that counter never hands out count again.
func bumpCount(counter *atomic.Int64, count int) {
	for {
		cur := counter.Load()
		if int64(count) <= cur || counter.CompareAndSwap(cur, int64(count)) {
			return
		}
	}
}
