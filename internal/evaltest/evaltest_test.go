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

package evaltest_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/formx/internal/evaltest"
	"github.com/gx-org/formx/ir"
)

func TestEval(t *testing.T) {
	A := ir.Coefficient("A", 2, 2)
	u := ir.Coefficient("u", 2)
	env := evaltest.Env{
		"A": {1, 2, 3, 4},
		"u": {5, 6},
	}
	i, j := ir.NewIndex(), ir.NewIndex()
	tests := []struct {
		build func() (ir.Expr, error)
		want  []float64
	}{
		{
			build: func() (ir.Expr, error) { return ir.Idx(A, i, i) },
			want:  []float64{5},
		},
		{
			build: func() (ir.Expr, error) {
				aij, err := ir.Idx(A, i, j)
				if err != nil {
					return nil, err
				}
				return ir.AsTensor(aij, j, i)
			},
			want: []float64{1, 3, 2, 4},
		},
		{
			build: func() (ir.Expr, error) {
				aij, err := ir.Idx(A, i, j)
				if err != nil {
					return nil, err
				}
				uj, err := ir.Idx(u, j)
				if err != nil {
					return nil, err
				}
				p, err := ir.Mul(aij, uj)
				if err != nil {
					return nil, err
				}
				return ir.AsTensor(p, i)
			},
			want: []float64{17, 39},
		},
		{
			build: func() (ir.Expr, error) { return ir.Div(u, ir.Scalar(2)) },
			want:  []float64{2.5, 3},
		},
		{
			build: func() (ir.Expr, error) {
				return ir.AsVector(ir.Scalar(1), ir.NewVariable(ir.Scalar(2)))
			},
			want: []float64{1, 2},
		},
	}
	for ti, test := range tests {
		e, err := test.build()
		if err != nil {
			t.Errorf("test %d: %v", ti, err)
			continue
		}
		got, err := evaltest.Eval(e, env)
		if err != nil {
			t.Errorf("test %d: %v", ti, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected values for %s (-want +got):\n%s", ti, e, diff)
		}
	}
}
