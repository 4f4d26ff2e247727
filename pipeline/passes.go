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

package pipeline

import (
	"slices"
	"strconv"

	"github.com/gx-org/formx/analysis"
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir"
	"github.com/gx-org/formx/rewrite"
	"github.com/gx-org/formx/rewrite/cse"
	"github.com/gx-org/formx/rewrite/lower"
	"github.com/gx-org/formx/rewrite/renumber"
	"golang.org/x/exp/maps"
)

const substituteName = "substitute"

type (
	// ruleSetFunc builds the rule set of a pass for a given form.
	ruleSetFunc func(pc *PassConfig, cfg *Config, f *form.Form) (*rewrite.RuleSet, error)

	pass struct {
		ruleSet ruleSetFunc
		// concurrent is true if the rule set can be applied to several
		// integrands at the same time.
		concurrent     bool
		needsDimension bool
	}
)

func fixed(rs *rewrite.RuleSet) ruleSetFunc {
	return func(*PassConfig, *Config, *form.Form) (*rewrite.RuleSet, error) {
		return rs, nil
	}
}

var registry = map[string]pass{
	"identity":        {ruleSet: fixed(rewrite.Identity()), concurrent: true},
	"copy":            {ruleSet: fixed(rewrite.Copy()), concurrent: true},
	"flatten":         {ruleSet: flatten, concurrent: true},
	"strip-variables": {ruleSet: fixed(rewrite.StripVariables()), concurrent: true},
	substituteName:    {ruleSet: substitute, concurrent: true},
	"lower-compounds": {
		ruleSet:        lowerCompounds,
		concurrent:     true,
		needsDimension: true,
	},
	"mark-duplicates":  {ruleSet: markDuplicates},
	"renumber-indices": {ruleSet: renumberIndices, concurrent: true},
}

// Passes returns the sorted names of all the available passes.
func Passes() []string {
	names := maps.Keys(registry)
	slices.Sort(names)
	return names
}

func flatten(*PassConfig, *Config, *form.Form) (*rewrite.RuleSet, error) {
	return rewrite.Flatten(), nil
}

func lowerCompounds(pc *PassConfig, cfg *Config, _ *form.Form) (*rewrite.RuleSet, error) {
	var opts []lower.Option
	if pc.ClassicalCofactor {
		opts = append(opts, lower.WithClassicalCofactor())
	}
	if pc.TraceFreeDeviatoric {
		opts = append(opts, lower.WithTraceFreeDeviatoric())
	}
	return lower.RuleSet(pc.dimension(cfg), opts...)
}

func markDuplicates(_ *PassConfig, _ *Config, f *form.Form) (*rewrite.RuleSet, error) {
	return cse.RuleSet(analysis.FormDuplications(f))
}

func renumberIndices(pc *PassConfig, _ *Config, f *form.Form) (*rewrite.RuleSet, error) {
	all := renumber.FormIndices(f)
	return renumber.RuleSet(renumber.Mapping(all, pc.Offset))
}

// terminalsByName indexes the terminals of a form by their string
// representation.
func terminalsByName(f *form.Form) (map[string]ir.Expr, error) {
	byName := make(map[string]ir.Expr)
	for _, e := range f.Integrands() {
		for _, t := range analysis.Terminals(e) {
			name := t.String()
			prev, ok := byName[name]
			if ok && !ir.Equal(prev, t) {
				return nil, fmterr.Preconditionf("ambiguous terminal name %q: %s and %s have the same name", name, prev.Kind(), t.Kind())
			}
			byName[name] = t
		}
	}
	return byName, nil
}

func substitute(pc *PassConfig, _ *Config, f *form.Form) (*rewrite.RuleSet, error) {
	byName, err := terminalsByName(f)
	if err != nil {
		return nil, err
	}
	var errs fmterr.Errors
	mapping := ir.NewMap[ir.Expr]()
	froms := maps.Keys(pc.Mapping)
	slices.Sort(froms)
	for _, from := range froms {
		key, ok := byName[from]
		if !ok {
			// Terminals absent from the form have nothing to replace.
			continue
		}
		to := pc.Mapping[from]
		if value, ok := byName[to]; ok {
			mapping.Store(key, value)
			continue
		}
		v, err := strconv.ParseFloat(to, 64)
		if err != nil {
			errs.Appendf("cannot substitute %s: %q is neither a terminal of the form nor a number", from, to)
			continue
		}
		mapping.Store(key, ir.Scalar(v))
	}
	if !errs.Empty() {
		return nil, errs.ToError()
	}
	return rewrite.Substitute(mapping)
}
