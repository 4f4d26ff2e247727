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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gx-org/formx/encoding/graphdoc"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir/irstring"
	"github.com/gx-org/formx/pipeline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	formatText = "text"
	formatTree = "tree"
	formatYAML = "yaml"
)

var formats = []string{formatText, formatTree, formatYAML}

type config struct {
	input        string
	pipelinePath string
	passes       []string
	dim          int
	parallel     bool
	format       string
	output       string
}

func splitList(s string) []string {
	var list []string
	for _, value := range strings.Split(s, ",") {
		if value = strings.TrimSpace(value); value != "" {
			list = append(list, value)
		}
	}
	return list
}

func (cfg *config) check() error {
	if cfg.input == "" {
		return errors.Errorf("no input specified: please use -input to specify a graph document")
	}
	if cfg.pipelinePath != "" && len(cfg.passes) > 0 {
		return errors.Errorf("-pipeline and -passes cannot be used together")
	}
	if !slices.Contains(formats, cfg.format) {
		return errors.Errorf("unknown format %q: available formats are %v", cfg.format, formats)
	}
	return nil
}

func (cfg *config) pipeline() (*pipeline.Pipeline, error) {
	if cfg.pipelinePath != "" {
		return pipeline.Load(cfg.pipelinePath)
	}
	passes := cfg.passes
	if len(passes) == 0 {
		passes = []string{"identity"}
	}
	return pipeline.FromNames(cfg.dim, cfg.parallel, passes...)
}

// run loads the input, runs the pipeline and writes the result.
func (cfg *config) run(ctx context.Context) error {
	p, err := cfg.pipeline()
	if err != nil {
		return err
	}
	f, err := graphdoc.Load(cfg.input)
	if err != nil {
		return err
	}
	logrus.WithField("integrals", len(f.Integrals())).Debugf("loaded %s", cfg.input)
	out, err := p.Run(ctx, f)
	if err != nil {
		return err
	}
	if cfg.output == "" {
		return write(os.Stdout, cfg.format, out)
	}
	w, err := os.Create(cfg.output)
	if err != nil {
		return errors.Wrapf(err, "cannot create output file")
	}
	if err := write(w, cfg.format, out); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func write(w io.Writer, format string, f *form.Form) error {
	var s string
	switch format {
	case formatYAML:
		data, err := graphdoc.Encode(f)
		if err != nil {
			return err
		}
		s = string(data)
	case formatTree:
		var b strings.Builder
		for _, itg := range f.Integrals() {
			fmt.Fprintf(&b, "integral over %s(%d)\n%s\n", itg.DomainType(), itg.DomainID(), irstring.Tree(itg.Integrand()))
		}
		s = b.String()
	default:
		s = f.String() + "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
