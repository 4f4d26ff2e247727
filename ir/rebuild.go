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

// Rebuild returns a node of the same kind and payload as e with ops as
// operands. Terminals are returned unchanged and accept no operands.
func Rebuild(e Expr, ops []Expr) (Expr, error) {
	switch n := e.(type) {
	case *Variable:
		if err := checkArity(n.kind, ops, 1); err != nil {
			return nil, err
		}
		return NewVariableWithCount(ops[0], n.count), nil
	case *Operator:
		op, err := NewOperator(n.kind, n.dim, ops...)
		if err != nil {
			return nil, err
		}
		return op, nil
	}
	if len(ops) > 0 {
		return nil, errorf("cannot rebuild terminal %s with %d operands", e.Kind(), len(ops))
	}
	return e, nil
}

// SameOperands returns true if every element of ops is the same instance
// as the corresponding operand of e.
func SameOperands(e Expr, ops []Expr) bool {
	orig := e.Operands()
	if len(orig) != len(ops) {
		return false
	}
	for i, op := range ops {
		if op != orig[i] {
			return false
		}
	}
	return true
}
