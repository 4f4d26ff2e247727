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

package lower

import "github.com/gx-org/formx/ir"

// builder builds expressions and keeps the first error.
// Once an error occurred, all methods return nil.
type builder struct {
	err error
}

func (b *builder) do(e ir.Expr, err error) ir.Expr {
	if b.err != nil {
		return nil
	}
	if err != nil {
		b.err = err
		return nil
	}
	return e
}

func (b *builder) idx(a ir.Expr, ii ...ir.Index) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.Idx(a, ii...))
}

// at returns the component (r, c) of the matrix a.
func (b *builder) at(a ir.Expr, r, c int) ir.Expr {
	return b.idx(a, ir.Fixed(r), ir.Fixed(c))
}

func (b *builder) add(x, y ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.Add(x, y))
}

func (b *builder) sub(x, y ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.Sub(x, y))
}

func (b *builder) mul(x, y ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.Mul(x, y))
}

func (b *builder) div(x, y ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.Div(x, y))
}

func (b *builder) sum(ops ...ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	if len(ops) == 1 {
		return ops[0]
	}
	op, err := ir.NewSum(ops...)
	return b.do(op, err)
}

func (b *builder) product(ops ...ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	if len(ops) == 1 {
		return ops[0]
	}
	op, err := ir.NewProduct(ops...)
	return b.do(op, err)
}

func (b *builder) tensor(f ir.Expr, ii ...ir.Index) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.AsTensor(f, ii...))
}

func (b *builder) vector(ops ...ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.AsVector(ops...))
}

func (b *builder) matrix(rows [][]ir.Expr) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.AsMatrix(rows))
}

func (b *builder) dx(f ir.Expr, dim int, ii ...ir.Index) ir.Expr {
	if b.err != nil {
		return nil
	}
	return b.do(ir.Dx(f, dim, ii...))
}

func (b *builder) result(e ir.Expr) (ir.Expr, error) {
	if b.err != nil {
		return nil, b.err
	}
	return e, nil
}

func concatIndices(iis ...[]ir.Index) []ir.Index {
	var all []ir.Index
	for _, ii := range iis {
		all = append(all, ii...)
	}
	return all
}
