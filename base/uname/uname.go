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

// Package uname provides unique, readable names.
package uname

import "fmt"

// Unique assigns readable names to keys.
// The same key always gets the same name.
type Unique[K comparable] struct {
	roots []string
	names map[K]string
	next  int
}

// New returns a name generator cycling through roots.
// Once all roots have been used, a numeric suffix is appended.
func New[K comparable](roots ...string) *Unique[K] {
	if len(roots) == 0 {
		roots = []string{"x"}
	}
	return &Unique[K]{roots: roots, names: make(map[K]string)}
}

// Name returns the name of a key, assigning a new one if required.
func (n *Unique[K]) Name(k K) string {
	if name, ok := n.names[k]; ok {
		return name
	}
	root := n.roots[n.next%len(n.roots)]
	round := n.next / len(n.roots)
	n.next++
	name := root
	if round > 0 {
		name = fmt.Sprintf("%s%d", root, round)
	}
	n.names[k] = name
	return name
}
