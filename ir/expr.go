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

// Package ir is the expression graph of formx.
//
// Expressions are immutable. They are built by constructor functions
// validating the invariants of each node kind and are never modified
// afterwards: rewriting an expression builds new nodes or reuses
// existing ones.
//
// The graph below any node other than a Variable is a tree. Variables are
// the only nodes that may be referenced by several parents.
package ir

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/ir/irkind"
)

type (
	// Expr is a node of an expression graph.
	Expr interface {
		// Kind of the node.
		Kind() irkind.Kind
		// Operands of the node. Empty for terminals.
		// The returned slice must not be modified.
		Operands() []Expr
		// Shape of the value of the expression.
		Shape() Shape
		// FreeIndices returns the free indices of the expression, sorted by count.
		FreeIndices() []Index
		// IndexDims returns the dimension of each free index.
		IndexDims() map[Index]int
		// Hash returns the structural hash of the expression.
		Hash() uint64
		// String representation of the expression.
		String() string

		base() *exprBase
	}

	exprBase struct {
		kind  irkind.Kind
		ops   []Expr
		shape Shape
		free  []Index
		dims  map[Index]int
		hash  uint64
	}
)

var errorf = fmterr.Preconditionf

func (b *exprBase) base() *exprBase { return b }

// Kind of the node.
func (b *exprBase) Kind() irkind.Kind { return b.kind }

// Operands of the node.
func (b *exprBase) Operands() []Expr { return b.ops }

// Shape of the value of the expression.
func (b *exprBase) Shape() Shape { return b.shape }

// FreeIndices returns the free indices of the expression.
func (b *exprBase) FreeIndices() []Index { return b.free }

// IndexDims returns the dimension of each free index.
func (b *exprBase) IndexDims() map[Index]int { return b.dims }

// Hash returns the structural hash of the expression.
func (b *exprBase) Hash() uint64 { return b.hash }

// Rank returns the rank of an expression.
func Rank(e Expr) int {
	return len(e.Shape())
}

// IsScalar returns true if the expression has an empty shape.
func IsScalar(e Expr) bool {
	return len(e.Shape()) == 0
}

// hasher computes structural hashes.
type hasher struct {
	buf [8]byte
	h   interface {
		Write([]byte) (int, error)
		Sum64() uint64
	}
}

func newHasher(kind irkind.Kind) *hasher {
	h := &hasher{h: fnv.New64a()}
	h.int(int(kind))
	return h
}

func (h *hasher) uint(v uint64) *hasher {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.h.Write(h.buf[:])
	return h
}

func (h *hasher) int(v int) *hasher {
	return h.uint(uint64(v))
}

func (h *hasher) float(v float64) *hasher {
	return h.uint(math.Float64bits(v))
}

func (h *hasher) str(s string) *hasher {
	h.int(len(s))
	h.h.Write([]byte(s))
	return h
}

func (h *hasher) shape(s Shape) *hasher {
	h.int(len(s))
	for _, d := range s {
		h.int(d)
	}
	return h
}

func (h *hasher) index(i Index) *hasher {
	if i.fixed {
		h.int(1)
	} else {
		h.int(0)
	}
	return h.int(i.n)
}

func (h *hasher) operands(ops []Expr) *hasher {
	h.int(len(ops))
	for _, op := range ops {
		h.uint(op.Hash())
	}
	return h
}

func (h *hasher) sum() uint64 {
	return h.h.Sum64()
}
