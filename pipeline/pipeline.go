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

// Package pipeline runs a sequence of rewriting passes over a form.
//
// A pipeline is described by a YAML document:
//
//	version: 1.0.0
//	dimension: 3
//	parallel: true
//	passes:
//	- name: lower-compounds
//	- name: substitute
//	  mapping: {f: "1.5", u: w}
//	- name: mark-duplicates
//	- name: renumber-indices
//	  offset: 0
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/gx-org/formx/analysis"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/rewrite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

const tracerName = "github.com/gx-org/formx/pipeline"

// Pipeline is a validated sequence of passes.
type Pipeline struct {
	cfg Config
}

// New returns a pipeline from a configuration.
// All the errors of the configuration are reported at once.
func New(cfg *Config) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: *cfg}
	p.cfg.Passes = append([]PassConfig(nil), cfg.Passes...)
	return p, nil
}

// FromNames returns a pipeline running passes given by their names.
func FromNames(dim int, parallel bool, names ...string) (*Pipeline, error) {
	cfg := &Config{
		Version:   "1.0.0",
		Dimension: dim,
		Parallel:  parallel,
	}
	for _, name := range names {
		cfg.Passes = append(cfg.Passes, PassConfig{Name: name})
	}
	return New(cfg)
}

// Config returns the configuration of the pipeline.
func (p *Pipeline) Config() Config {
	return p.cfg
}

func countNodes(f *form.Form) int {
	n := 0
	for _, e := range f.Integrands() {
		n += analysis.CountNodes(e)
	}
	return n
}

// Run all the passes of the pipeline in order.
func (p *Pipeline) Run(ctx context.Context, f *form.Form) (*form.Form, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.Run",
		trace.WithAttributes(
			attribute.Int("passes", len(p.cfg.Passes)),
			attribute.Int("integrals", len(f.Integrals())),
			attribute.Bool("parallel", p.cfg.Parallel),
		))
	defer span.End()
	for i := range p.cfg.Passes {
		pc := &p.cfg.Passes[i]
		next, err := p.runPass(ctx, pc, f)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pass failed")
			return nil, errors.WithMessagef(err, "pass %d (%s)", i, pc.Name)
		}
		f = next
	}
	return f, nil
}

func (p *Pipeline) runPass(ctx context.Context, pc *PassConfig, f *form.Form) (*form.Form, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.Pass",
		trace.WithAttributes(attribute.String("pass", pc.Name)))
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	debug := logrus.IsLevelEnabled(logrus.DebugLevel)
	log := logrus.WithField("pass", pc.Name)
	if debug {
		log = log.WithField("nodes_before", countNodes(f))
	}
	start := time.Now()
	ps := registry[pc.Name]
	rs, err := ps.ruleSet(pc, &p.cfg, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid pass")
		return nil, err
	}
	var out *form.Form
	if p.cfg.Parallel && ps.concurrent && len(f.Integrals()) > 1 {
		out, err = applyConcurrently(ctx, f, rs)
	} else {
		out, err = rewrite.ApplyForm(f, rs)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rewrite failed")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("changed", out != f))
	if debug {
		log.WithFields(logrus.Fields{
			"nodes_after": countNodes(out),
			"changed":     out != f,
			"duration":    time.Since(start),
		}).Debug("pass done")
	}
	return out, nil
}

// applyConcurrently rewrites every integrand in its own goroutine.
// Rewriters share a variable cache so that variables shared between
// integrands are rewritten to the same expression.
func applyConcurrently(ctx context.Context, f *form.Form, rs *rewrite.RuleSet) (*form.Form, error) {
	cache := rewrite.NewSharedCache()
	itgs := f.Integrals()
	results := make([]*form.Integral, len(itgs))
	errs := make([]error, len(itgs))
	var wg sync.WaitGroup
	for i, itg := range itgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			e, err := rewrite.New(rs, rewrite.WithCache(cache)).Visit(itg.Integrand())
			if err != nil {
				errs[i] = errors.WithMessagef(err, "integral %d", i)
				return
			}
			results[i], errs[i] = itg.Reconstruct(e)
		}()
	}
	wg.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	for i, itg := range itgs {
		if results[i] != itg {
			return form.New(results...), nil
		}
	}
	return f, nil
}
