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
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
)

// Index is either a free symbolic index identified by a count,
// or a fixed integer component.
type Index struct {
	fixed bool
	n     int
}

var indexCount atomic.Int64

// NewIndex returns a new free index with a unique count.
func NewIndex() Index {
	return Index{n: int(indexCount.Add(1))}
}

// NewIndices returns n new free indices.
func NewIndices(n int) []Index {
	ii := make([]Index, n)
	for i := range ii {
		ii[i] = NewIndex()
	}
	return ii
}

// IndexWithCount returns the free index identified by count.
// Indices returned by NewIndex afterwards have a larger count.
func IndexWithCount(count int) Index {
	bumpCount(&indexCount, count)
	return Index{n: count}
}

// Fixed returns a fixed index selecting the component v.
func Fixed(v int) Index {
	return Index{fixed: true, n: v}
}

// FixedIndices returns fixed indices for a list of components.
func FixedIndices(vs ...int) []Index {
	ii := make([]Index, len(vs))
	for i, v := range vs {
		ii[i] = Fixed(v)
	}
	return ii
}

// IsFixed returns true if the index is a fixed component.
func (i Index) IsFixed() bool { return i.fixed }

// Count returns the identity of a free index.
func (i Index) Count() int { return i.n }

// Value returns the component of a fixed index.
func (i Index) Value() int { return i.n }

// String representation of the index.
func (i Index) String() string {
	if i.fixed {
		return strconv.Itoa(i.n)
	}
	return fmt.Sprintf("i_%d", i.n)
}

func compareIndex(x, y Index) int {
	if x.fixed != y.fixed {
		if x.fixed {
			return 1
		}
		return -1
	}
	return x.n - y.n
}

func joinIndices(ii []Index) string {
	ss := make([]string, len(ii))
	for i, idx := range ii {
		ss[i] = idx.String()
	}
	return strings.Join(ss, ", ")
}

// Shape of an expression: the size of each axis.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s) }

// Equal returns true if both shapes have the same axes.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// String representation of the shape.
func (s Shape) String() string {
	ss := make([]string, len(s))
	for i, d := range s {
		ss[i] = strconv.Itoa(d)
	}
	if len(s) == 1 {
		return "(" + ss[0] + ",)"
	}
	return "(" + strings.Join(ss, ", ") + ")"
}

func concatShapes(shapes ...Shape) Shape {
	var s Shape
	for _, sh := range shapes {
		s = append(s, sh...)
	}
	return s
}

// indexCounter counts the occurrences of free indices and checks that
// their dimensions are consistent.
type indexCounter struct {
	counts map[Index]int
	dims   map[Index]int
}

func newIndexCounter() *indexCounter {
	return &indexCounter{counts: make(map[Index]int), dims: make(map[Index]int)}
}

func (c *indexCounter) add(i Index, dim int) error {
	if prev, ok := c.dims[i]; ok && prev != dim {
		return errorf("index %s used with dimensions %d and %d", i, prev, dim)
	}
	c.counts[i]++
	c.dims[i] = dim
	return nil
}

func (c *indexCounter) addFree(e Expr) error {
	dims := e.IndexDims()
	for _, i := range e.FreeIndices() {
		if err := c.add(i, dims[i]); err != nil {
			return err
		}
	}
	return nil
}

// free returns the indices occurring exactly once. Indices occurring twice
// are implicitly summed. Indices occurring more often are an error.
func (c *indexCounter) free(maxRepeat int) ([]Index, map[Index]int, error) {
	var free []Index
	dims := make(map[Index]int)
	for i, n := range c.counts {
		if n > maxRepeat {
			return nil, nil, errorf("index %s occurs %d times", i, n)
		}
		if n > 1 {
			continue
		}
		free = append(free, i)
		dims[i] = c.dims[i]
	}
	slices.SortFunc(free, compareIndex)
	return free, dims, nil
}

func sameFreeIndices(x, y Expr) bool {
	if !slices.Equal(x.FreeIndices(), y.FreeIndices()) {
		return false
	}
	xd, yd := x.IndexDims(), y.IndexDims()
	for _, i := range x.FreeIndices() {
		if xd[i] != yd[i] {
			return false
		}
	}
	return true
}
