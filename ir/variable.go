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
	"sync/atomic"

	"github.com/gx-org/formx/ir/irkind"
)

// Variable wraps an expression to share it between several parents.
// Two variables with the same count are the same binding.
type Variable struct {
	exprBase
	count int
}

var _ Expr = (*Variable)(nil)

var variableCount atomic.Int64

// NewVariable wraps e in a variable with a new count.
func NewVariable(e Expr) *Variable {
	return newVariable(e, int(variableCount.Add(1)))
}

// NewVariableWithCount wraps e in a variable identified by count.
// Counts returned later by NewVariable are always larger than count.
func NewVariableWithCount(e Expr, count int) *Variable {
	bumpCount(&variableCount, count)
	return newVariable(e, count)
}

func newVariable(e Expr, count int) *Variable {
	return &Variable{
		exprBase: exprBase{
			kind:  irkind.Variable,
			ops:   []Expr{e},
			shape: e.Shape(),
			free:  e.FreeIndices(),
			dims:  e.IndexDims(),
			hash:  newHasher(irkind.Variable).int(count).sum(),
		},
		count: count,
	}
}

// Expression wrapped by the variable.
func (v *Variable) Expression() Expr { return v.ops[0] }

// Count identifying the variable.
func (v *Variable) Count() int { return v.count }

// String representation of the variable.
func (v *Variable) String() string {
	return fmt.Sprintf("var_%d{%s}", v.count, v.ops[0])
}
