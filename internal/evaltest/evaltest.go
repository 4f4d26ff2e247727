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

// Package evaltest evaluates expressions numerically to test rewrites.
//
// Only sums, products, divisions, powers, absolute values, indexing and
// tensor building are supported.
package evaltest

import (
	"math"
	"slices"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/pkg/errors"
)

// Env gives the components of form arguments, by name, in row-major order.
type Env map[string][]float64

type evaluator struct {
	env Env
}

// Eval returns the components of e, in row-major order.
// e cannot have free indices.
func Eval(e ir.Expr, env Env) ([]float64, error) {
	if len(e.FreeIndices()) > 0 {
		return nil, errors.Errorf("cannot evaluate %s: free indices", e)
	}
	ev := &evaluator{env: env}
	return ev.eval(e, map[ir.Index]int{})
}

// Scalar evaluates an expression with no free indices and an empty shape.
func Scalar(e ir.Expr, env Env) (float64, error) {
	vals, err := Eval(e, env)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, errors.Errorf("%s is not a scalar: shape %s", e, e.Shape())
	}
	return vals[0], nil
}

func size(s ir.Shape) int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// summed returns the free indices of the operands that are not free in e.
func summed(e ir.Expr) ([]ir.Index, map[ir.Index]int) {
	var indices []ir.Index
	dims := make(map[ir.Index]int)
	add := func(i ir.Index, dim int) {
		if i.IsFixed() || slices.Contains(e.FreeIndices(), i) || slices.Contains(indices, i) {
			return
		}
		indices = append(indices, i)
		dims[i] = dim
	}
	for _, op := range e.Operands() {
		if op.Kind() == irkind.MultiIndex {
			continue
		}
		for _, i := range op.FreeIndices() {
			add(i, op.IndexDims()[i])
		}
	}
	if e.Kind() == irkind.Indexed {
		mi := e.(*ir.Operator).MultiIndex()
		shape := e.Operands()[0].Shape()
		for axis, i := range mi.Indices() {
			add(i, shape[axis])
		}
	}
	return indices, dims
}

// forEach calls fn for every assignment of indices.
func forEach(indices []ir.Index, dims map[ir.Index]int, bind map[ir.Index]int, fn func() error) error {
	if len(indices) == 0 {
		return fn()
	}
	i := indices[0]
	defer delete(bind, i)
	for v := 0; v < dims[i]; v++ {
		bind[i] = v
		if err := forEach(indices[1:], dims, bind, fn); err != nil {
			return err
		}
	}
	return nil
}

func value(i ir.Index, bind map[ir.Index]int) (int, error) {
	if i.IsFixed() {
		return i.Value(), nil
	}
	v, ok := bind[i]
	if !ok {
		return 0, errors.Errorf("index %s not bound", i)
	}
	return v, nil
}

func (ev *evaluator) scalar(e ir.Expr, bind map[ir.Index]int) (float64, error) {
	vals, err := ev.eval(e, bind)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func (ev *evaluator) eval(e ir.Expr, bind map[ir.Index]int) ([]float64, error) {
	switch n := e.(type) {
	case *ir.ScalarValue:
		return []float64{n.Value()}, nil
	case *ir.FormArgument:
		vals, ok := ev.env[n.Name()]
		if !ok {
			return nil, errors.Errorf("no value for %s", n.Name())
		}
		if len(vals) != size(n.Shape()) {
			return nil, errors.Errorf("%s has %d values but shape %s", n.Name(), len(vals), n.Shape())
		}
		return vals, nil
	case *ir.Variable:
		return ev.eval(n.Expression(), bind)
	}
	ops := e.Operands()
	switch e.Kind() {
	case irkind.Sum:
		total := make([]float64, size(e.Shape()))
		for _, op := range ops {
			vals, err := ev.eval(op, bind)
			if err != nil {
				return nil, err
			}
			for i, v := range vals {
				total[i] += v
			}
		}
		return total, nil
	case irkind.Product:
		indices, dims := summed(e)
		total := 0.0
		err := forEach(indices, dims, bind, func() error {
			prod := 1.0
			for _, op := range ops {
				v, err := ev.scalar(op, bind)
				if err != nil {
					return err
				}
				prod *= v
			}
			total += prod
			return nil
		})
		return []float64{total}, err
	case irkind.Division, irkind.Power:
		x, err := ev.scalar(ops[0], bind)
		if err != nil {
			return nil, err
		}
		y, err := ev.scalar(ops[1], bind)
		if err != nil {
			return nil, err
		}
		if e.Kind() == irkind.Division {
			return []float64{x / y}, nil
		}
		return []float64{math.Pow(x, y)}, nil
	case irkind.Abs:
		vals, err := ev.eval(ops[0], bind)
		if err != nil {
			return nil, err
		}
		abs := make([]float64, len(vals))
		for i, v := range vals {
			abs[i] = math.Abs(v)
		}
		return abs, nil
	case irkind.Indexed:
		return ev.indexed(e, bind)
	case irkind.ComponentTensor:
		return ev.componentTensor(e, bind)
	case irkind.ListTensor:
		var vals []float64
		for _, op := range ops {
			opVals, err := ev.eval(op, bind)
			if err != nil {
				return nil, err
			}
			vals = append(vals, opVals...)
		}
		return vals, nil
	case irkind.PositiveRestricted, irkind.NegativeRestricted:
		return ev.eval(ops[0], bind)
	}
	return nil, fmterr.NotImplementedf("evaluation of %s", e.Kind())
}

func (ev *evaluator) indexed(e ir.Expr, bind map[ir.Index]int) ([]float64, error) {
	a := e.Operands()[0]
	mi := e.(*ir.Operator).MultiIndex()
	shape := a.Shape()
	indices, dims := summed(e)
	total := 0.0
	err := forEach(indices, dims, bind, func() error {
		vals, err := ev.eval(a, bind)
		if err != nil {
			return err
		}
		offset := 0
		for axis, i := range mi.Indices() {
			v, err := value(i, bind)
			if err != nil {
				return err
			}
			offset = offset*shape[axis] + v
		}
		total += vals[offset]
		return nil
	})
	return []float64{total}, err
}

func (ev *evaluator) componentTensor(e ir.Expr, bind map[ir.Index]int) ([]float64, error) {
	f := e.Operands()[0]
	mi := e.(*ir.Operator).MultiIndex()
	dims := make(map[ir.Index]int)
	for axis, i := range mi.Indices() {
		dims[i] = e.Shape()[axis]
	}
	var vals []float64
	err := forEach(mi.Indices(), dims, bind, func() error {
		v, err := ev.scalar(f, bind)
		if err != nil {
			return err
		}
		vals = append(vals, v)
		return nil
	})
	return vals, err
}
