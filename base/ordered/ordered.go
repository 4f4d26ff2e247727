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

// Package ordered provides data structures remembering insertion order.
package ordered

// Map is an ordered map. Iteration follows the order in which
// keys were first stored.
type Map[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

// NewMap returns a new ordered map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Store a key,value pair. Storing an existing key keeps its position.
func (m *Map[K, V]) Store(k K, v V) {
	if _, in := m.m[k]; !in {
		m.keys = append(m.keys, k)
	}
	m.m[k] = v
}

// Load returns a value given a key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// Iter returns an iterator over the key,value pairs in insertion order.
func (m *Map[K, V]) Iter() func(func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// Size returns the number of elements in the map.
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}

// Set is a set remembering the order in which elements were added.
type Set[K comparable] struct {
	m Map[K, int]
}

// NewSet returns a new ordered set containing elems.
func NewSet[K comparable](elems ...K) *Set[K] {
	s := &Set[K]{m: Map[K, int]{m: make(map[K]int)}}
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Add an element to the set. It returns false if the element was already present.
func (s *Set[K]) Add(k K) bool {
	if _, in := s.m.m[k]; in {
		return false
	}
	s.m.Store(k, s.m.Size())
	return true
}

// Has returns true if k is in the set.
func (s *Set[K]) Has(k K) bool {
	_, in := s.m.m[k]
	return in
}

// Position returns the rank at which k was added, or -1.
func (s *Set[K]) Position(k K) int {
	pos, in := s.m.m[k]
	if !in {
		return -1
	}
	return pos
}

// Elements returns the elements in insertion order.
func (s *Set[K]) Elements() []K {
	return s.m.Keys()
}

// All iterates over the elements in insertion order.
func (s *Set[K]) All() func(func(K) bool) {
	return func(yield func(K) bool) {
		for _, k := range s.m.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Size returns the number of elements in the set.
func (s *Set[K]) Size() int {
	return s.m.Size()
}
