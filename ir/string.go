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
	"strings"

	"github.com/gx-org/formx/ir/irkind"
)

var infix = map[irkind.Kind]string{
	irkind.Sum:      " + ",
	irkind.Product:  " * ",
	irkind.Division: " / ",
	irkind.Power:    " ** ",
}

var funcNames = map[irkind.Kind]string{
	irkind.Trace:       "tr",
	irkind.Transposed:  "transpose",
	irkind.Deviatoric:  "dev",
	irkind.Skew:        "skew",
	irkind.Cross:       "cross",
	irkind.Dot:         "dot",
	irkind.Inner:       "inner",
	irkind.Outer:       "outer",
	irkind.Determinant: "det",
	irkind.Cofactor:    "cofac",
	irkind.Inverse:     "inv",
	irkind.Div:         "div",
	irkind.Grad:        "grad",
	irkind.Curl:        "curl",
	irkind.Rot:         "rot",
}

func joinExprs(ops []Expr, sep string) string {
	ss := make([]string, len(ops))
	for i, op := range ops {
		ss[i] = op.String()
	}
	return strings.Join(ss, sep)
}

// String representation of the operator.
func (op *Operator) String() string {
	if sep, ok := infix[op.kind]; ok {
		return "(" + joinExprs(op.ops, sep) + ")"
	}
	if name, ok := funcNames[op.kind]; ok {
		return name + "(" + joinExprs(op.ops, ", ") + ")"
	}
	switch op.kind {
	case irkind.Abs:
		return "|" + op.ops[0].String() + "|"
	case irkind.Indexed:
		return op.ops[0].String() + "[" + joinIndices(op.MultiIndex().Indices()) + "]"
	case irkind.ComponentTensor:
		return "as_tensor(" + op.ops[0].String() + ", " + op.ops[1].String() + ")"
	case irkind.ListTensor:
		return "[" + joinExprs(op.ops, ", ") + "]"
	case irkind.PositiveRestricted:
		return op.ops[0].String() + "('+')"
	case irkind.NegativeRestricted:
		return op.ops[0].String() + "('-')"
	case irkind.SpatialDerivative:
		return op.ops[0].String() + ".dx(" + joinIndices(op.MultiIndex().Indices()) + ")"
	}
	return op.kind.String() + "(" + joinExprs(op.ops, ", ") + ")"
}
