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

// Package renumber renumbers indices so that expressions differing only by
// the numbering of their indices become structurally equal.
package renumber

import (
	"github.com/gx-org/formx/analysis"
	"github.com/gx-org/formx/base/ordered"
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/gx-org/formx/rewrite"
)

// RuleSet returns a rule set replacing indices in multi-indices.
// Fixed indices and indices absent from the mapping are unchanged.
func RuleSet(mapping map[ir.Index]ir.Index) (*rewrite.RuleSet, error) {
	for from, to := range mapping {
		if from.IsFixed() || to.IsFixed() {
			return nil, fmterr.Preconditionf("cannot renumber fixed index %s to %s", from, to)
		}
	}
	return rewrite.NewRuleSet("renumber-indices", rewrite.Rules{
		irkind.MultiIndex: rewrite.SelfFunc(func(_ *rewrite.Rewriter, e ir.Expr) (ir.Expr, error) {
			mi, ok := e.(*ir.MultiIndex)
			if !ok {
				return nil, fmterr.Internalf("multi-index rule called on %s", e.Kind())
			}
			changed := false
			indices := make([]ir.Index, mi.Len())
			for i, idx := range mi.Indices() {
				indices[i] = idx
				if to, ok := mapping[idx]; ok && to != idx {
					indices[i] = to
					changed = true
				}
			}
			if !changed {
				return mi, nil
			}
			return ir.NewMultiIndex(indices...), nil
		}),
	})
}

// Mapping assigns the counts offset, offset+1, ... to indices in order.
func Mapping(indices *ordered.Set[ir.Index], offset int) map[ir.Index]ir.Index {
	mapping := make(map[ir.Index]ir.Index, indices.Size())
	for i, idx := range indices.Elements() {
		mapping[idx] = ir.IndexWithCount(offset + i)
	}
	return mapping
}

// Indices renumbers the indices of e in order of first occurrence,
// starting from offset.
func Indices(e ir.Expr, offset int) (ir.Expr, error) {
	rs, err := RuleSet(Mapping(analysis.FreeIndices(e), offset))
	if err != nil {
		return nil, err
	}
	return rewrite.Apply(e, rs)
}

// FormIndices returns the indices of all the integrands of a form
// in order of first occurrence.
func FormIndices(f *form.Form) *ordered.Set[ir.Index] {
	all := ordered.NewSet[ir.Index]()
	for _, e := range f.Integrands() {
		for idx := range analysis.FreeIndices(e).All() {
			all.Add(idx)
		}
	}
	return all
}

// Form renumbers the indices of all the integrands of a form. Indices are
// numbered across all integrands so that variables shared between
// integrands are renumbered consistently.
func Form(f *form.Form, offset int) (*form.Form, error) {
	rs, err := RuleSet(Mapping(FormIndices(f), offset))
	if err != nil {
		return nil, err
	}
	return rewrite.ApplyForm(f, rs)
}
