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

package rewrite

import (
	"github.com/gx-org/formx/base/sync"
	"github.com/gx-org/formx/ir"
)

// VariableCache stores the result of rewriting variables, keyed by count.
type VariableCache interface {
	// Load returns the result stored for a variable count.
	Load(count int) (ir.Expr, bool)
	// LoadOrStore returns the result already stored for count, if any.
	// Otherwise, it stores e and returns it. The boolean result is true
	// if the value was loaded.
	LoadOrStore(count int, e ir.Expr) (ir.Expr, bool)
}

type mapCache map[int]ir.Expr

// NewCache returns a variable cache for a single goroutine.
func NewCache() VariableCache {
	return mapCache{}
}

func (c mapCache) Load(count int) (ir.Expr, bool) {
	e, ok := c[count]
	return e, ok
}

func (c mapCache) LoadOrStore(count int, e ir.Expr) (ir.Expr, bool) {
	if prev, ok := c[count]; ok {
		return prev, true
	}
	c[count] = e
	return e, false
}

type sharedCache struct {
	m sync.Map[int, ir.Expr]
}

// NewSharedCache returns a variable cache safe for concurrent use.
// The first result stored for a count is the one returned to all callers.
func NewSharedCache() VariableCache {
	return &sharedCache{}
}

func (c *sharedCache) Load(count int) (ir.Expr, bool) {
	return c.m.Load(count)
}

func (c *sharedCache) LoadOrStore(count int, e ir.Expr) (ir.Expr, bool) {
	return c.m.LoadOrStore(count, e)
}
