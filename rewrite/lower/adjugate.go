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

import (
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir"
)

// term is a signed product of components of a matrix.
// Component (r, c) is encoded as 10*r+c.
type term struct {
	sign  int
	comps []int
}

// adjugate returns the rows of the adjugate of a square matrix of size 2, 3 or 4.
func adjugate(b *builder, A ir.Expr) [][]ir.Expr {
	n := squareSize(b, A)
	if b.err != nil {
		return nil
	}
	var table [][][]term
	switch n {
	case 2:
		table = adjugate2
	case 3:
		table = adjugate3
	case 4:
		table = adjugate4
	default:
		b.err = fmterr.Unsupportedf("cofactor of a %dx%d matrix", n, n)
		return nil
	}
	rows := make([][]ir.Expr, n)
	for r, row := range table {
		rows[r] = make([]ir.Expr, n)
		for c, terms := range row {
			rows[r][c] = entry(b, A, terms)
		}
	}
	return rows
}

func entry(b *builder, A ir.Expr, terms []term) ir.Expr {
	ops := make([]ir.Expr, len(terms))
	for i, t := range terms {
		var factors []ir.Expr
		if t.sign < 0 {
			factors = append(factors, ir.Scalar(-1))
		}
		for _, rc := range t.comps {
			factors = append(factors, b.at(A, rc/10, rc%10))
		}
		ops[i] = b.product(factors...)
	}
	return b.sum(ops...)
}

func transpose(rows [][]ir.Expr) [][]ir.Expr {
	t := make([][]ir.Expr, len(rows))
	for c := range t {
		t[c] = make([]ir.Expr, len(rows))
		for r := range rows {
			t[c][r] = rows[r][c]
		}
	}
	return t
}

var adjugate2 = [][][]term{
	{
		{{1, []int{11}}},
		{{-1, []int{1}}},
	},
	{
		{{-1, []int{10}}},
		{{1, []int{0}}},
	},
}

var adjugate3 = [][][]term{
	{
		{{1, []int{22, 11}}, {-1, []int{12, 21}}},
		{{-1, []int{1, 22}}, {1, []int{2, 21}}},
		{{1, []int{1, 12}}, {-1, []int{2, 11}}},
	},
	{
		{{-1, []int{22, 10}}, {1, []int{12, 20}}},
		{{-1, []int{2, 20}}, {1, []int{22, 0}}},
		{{1, []int{2, 10}}, {-1, []int{12, 0}}},
	},
	{
		{{1, []int{10, 21}}, {-1, []int{20, 11}}},
		{{1, []int{1, 20}}, {-1, []int{0, 21}}},
		{{1, []int{0, 11}}, {-1, []int{1, 10}}},
	},
}

var adjugate4 = [][][]term{
	{
		{{-1, []int{33, 21, 12}}, {1, []int{12, 31, 23}}, {1, []int{11, 33, 22}}, {-1, []int{31, 22, 13}}, {1, []int{21, 13, 32}}, {-1, []int{11, 32, 23}}},
		{{-1, []int{31, 2, 23}}, {1, []int{1, 32, 23}}, {-1, []int{3, 21, 32}}, {1, []int{33, 21, 2}}, {-1, []int{33, 1, 22}}, {1, []int{3, 31, 22}}},
		{{1, []int{31, 13, 2}}, {1, []int{11, 3, 32}}, {-1, []int{3, 12, 31}}, {-1, []int{1, 13, 32}}, {1, []int{33, 12, 1}}, {-1, []int{11, 33, 2}}},
		{{1, []int{11, 2, 23}}, {-1, []int{21, 13, 2}}, {1, []int{3, 21, 12}}, {-1, []int{12, 1, 23}}, {-1, []int{11, 3, 22}}, {1, []int{1, 22, 13}}},
	},
	{
		{{1, []int{33, 12, 20}}, {-1, []int{30, 12, 23}}, {1, []int{10, 32, 23}}, {-1, []int{33, 10, 22}}, {-1, []int{13, 32, 20}}, {1, []int{30, 22, 13}}},
		{{1, []int{3, 32, 20}}, {-1, []int{3, 30, 22}}, {1, []int{33, 0, 22}}, {1, []int{30, 2, 23}}, {-1, []int{0, 32, 23}}, {-1, []int{33, 2, 20}}},
		{{-1, []int{33, 0, 12}}, {1, []int{0, 13, 32}}, {-1, []int{30, 13, 2}}, {1, []int{33, 10, 2}}, {1, []int{3, 30, 12}}, {-1, []int{3, 10, 32}}},
		{{1, []int{3, 10, 22}}, {1, []int{13, 2, 20}}, {-1, []int{0, 22, 13}}, {-1, []int{3, 12, 20}}, {1, []int{0, 12, 23}}, {-1, []int{10, 2, 23}}},
	},
	{
		{{1, []int{31, 13, 20}}, {1, []int{33, 21, 10}}, {1, []int{11, 30, 23}}, {-1, []int{10, 31, 23}}, {-1, []int{30, 21, 13}}, {-1, []int{11, 33, 20}}},
		{{1, []int{33, 1, 20}}, {-1, []int{33, 0, 21}}, {-1, []int{3, 31, 20}}, {-1, []int{30, 1, 23}}, {1, []int{0, 31, 23}}, {1, []int{3, 30, 21}}},
		{{-1, []int{0, 31, 13}}, {1, []int{3, 10, 31}}, {-1, []int{33, 10, 1}}, {1, []int{11, 33, 0}}, {-1, []int{11, 3, 30}}, {1, []int{30, 1, 13}}},
		{{1, []int{0, 21, 13}}, {1, []int{10, 1, 23}}, {-1, []int{3, 21, 10}}, {1, []int{11, 3, 20}}, {-1, []int{11, 0, 23}}, {-1, []int{1, 13, 20}}},
	},
	{
		{{-1, []int{12, 31, 20}}, {-1, []int{21, 10, 32}}, {1, []int{30, 21, 12}}, {-1, []int{11, 30, 22}}, {1, []int{10, 31, 22}}, {1, []int{11, 32, 20}}},
		{{-1, []int{30, 21, 2}}, {-1, []int{1, 32, 20}}, {1, []int{31, 2, 20}}, {-1, []int{0, 31, 22}}, {1, []int{30, 1, 22}}, {1, []int{0, 21, 32}}},
		{{1, []int{0, 12, 31}}, {-1, []int{10, 31, 2}}, {1, []int{11, 30, 2}}, {1, []int{10, 1, 32}}, {-1, []int{30, 12, 1}}, {-1, []int{11, 0, 32}}},
		{{-1, []int{11, 2, 20}}, {1, []int{21, 10, 2}}, {1, []int{12, 1, 20}}, {1, []int{11, 0, 22}}, {-1, []int{10, 1, 22}}, {-1, []int{0, 21, 12}}},
	},
}
