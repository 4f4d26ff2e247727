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
)

// Equal returns true if a and b are structurally equal: same kind,
// same payload and structurally equal operands.
// Variables are equal if they have the same count.
func Equal(a, b Expr) bool {
	type pair struct{ a, b Expr }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a == p.b {
			continue
		}
		if p.a == nil || p.b == nil {
			return false
		}
		if p.a.Hash() != p.b.Hash() || p.a.Kind() != p.b.Kind() {
			return false
		}
		if !payloadEqual(p.a, p.b) {
			return false
		}
		if _, isVar := p.a.(*Variable); isVar {
			continue
		}
		aops, bops := p.a.Operands(), p.b.Operands()
		if len(aops) != len(bops) {
			return false
		}
		for i := range aops {
			stack = append(stack, pair{aops[i], bops[i]})
		}
	}
	return true
}

func payloadEqual(a, b Expr) bool {
	switch an := a.(type) {
	case *ScalarValue:
		bn, ok := b.(*ScalarValue)
		return ok && an.value == bn.value
	case *FormArgument:
		bn, ok := b.(*FormArgument)
		return ok && an.name == bn.name && an.count == bn.count && an.shape.Equal(bn.shape)
	case *Geometric:
		bn, ok := b.(*Geometric)
		return ok && an.dim == bn.dim
	case *MultiIndex:
		bn, ok := b.(*MultiIndex)
		return ok && slices.Equal(an.indices, bn.indices)
	case *Operator:
		bn, ok := b.(*Operator)
		return ok && an.dim == bn.dim
	case *Variable:
		bn, ok := b.(*Variable)
		return ok && an.count == bn.count
	}
	return false
}

type mapEntry[V any] struct {
	key Expr
	val V
}

// Map maps expressions to values using structural equality.
// Iteration follows insertion order.
type Map[V any] struct {
	buckets map[uint64][]int
	entries []mapEntry[V]
}

// NewMap returns a new empty map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{buckets: make(map[uint64][]int)}
}

func (m *Map[V]) find(e Expr) int {
	for _, pos := range m.buckets[e.Hash()] {
		if Equal(m.entries[pos].key, e) {
			return pos
		}
	}
	return -1
}

// Load returns the value stored for an expression structurally equal to e.
func (m *Map[V]) Load(e Expr) (V, bool) {
	pos := m.find(e)
	if pos < 0 {
		var zero V
		return zero, false
	}
	return m.entries[pos].val, true
}

// Store a value for e, replacing the value of any structurally equal key.
func (m *Map[V]) Store(e Expr, v V) {
	if pos := m.find(e); pos >= 0 {
		m.entries[pos].val = v
		return
	}
	h := e.Hash()
	m.buckets[h] = append(m.buckets[h], len(m.entries))
	m.entries = append(m.entries, mapEntry[V]{key: e, val: v})
}

// Len returns the number of keys.
func (m *Map[V]) Len() int { return len(m.entries) }

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []Expr {
	keys := make([]Expr, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Set is a set of expressions using structural equality.
type Set struct {
	m *Map[struct{}]
}

// NewSet returns a set containing exprs.
func NewSet(exprs ...Expr) *Set {
	s := &Set{m: NewMap[struct{}]()}
	for _, e := range exprs {
		s.Add(e)
	}
	return s
}

// Add an expression to the set. It returns false if a structurally
// equal expression was already present.
func (s *Set) Add(e Expr) bool {
	if s.m.find(e) >= 0 {
		return false
	}
	s.m.Store(e, struct{}{})
	return true
}

// Has returns true if the set contains an expression structurally equal to e.
func (s *Set) Has(e Expr) bool {
	return s.m.find(e) >= 0
}

// Len returns the number of expressions in the set.
func (s *Set) Len() int { return s.m.Len() }

// Elements returns the expressions in insertion order.
func (s *Set) Elements() []Expr { return s.m.Keys() }
