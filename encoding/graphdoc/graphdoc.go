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

// Package graphdoc encodes forms as YAML node tables.
//
// Nodes are listed in dependency order: the operands of a node are
// listed before the node and referenced by their position in the table.
// Only terminals and variables can be referenced more than once.
package graphdoc

import (
	"os"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/gx-org/formx/fmterr"
	"github.com/gx-org/formx/form"
	"github.com/gx-org/formx/ir/irkind"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

// Version of the documents written by Encode.
const Version = "1.0.0"

const supportedVersions = "^1.0"

type (
	// Document is a form encoded as a table of nodes.
	Document struct {
		Version   string     `yaml:"version"`
		Nodes     []Node     `yaml:"nodes"`
		Integrals []Integral `yaml:"integrals"`
	}

	// Node of an expression.
	Node struct {
		Kind     string `yaml:"kind"`
		Operands []int  `yaml:"operands,flow,omitempty"`
		// Name of a form argument.
		Name string `yaml:"name,omitempty"`
		// Count of a form argument or a variable.
		Count int `yaml:"count,omitempty"`
		// Value of a scalar.
		Value float64 `yaml:"value,omitempty"`
		// Shape of a form argument.
		Shape []int `yaml:"shape,flow,omitempty"`
		// Dim of geometric quantities, spatial derivatives and gradients.
		Dim int `yaml:"dim,omitempty"`
		// Indices of a multi-index.
		Indices []string `yaml:"indices,flow,omitempty"`
	}

	// Integral of a form.
	Integral struct {
		Domain    string `yaml:"domain"`
		ID        int    `yaml:"id"`
		Integrand int    `yaml:"integrand"`
	}
)

var kinds = func() map[string]irkind.Kind {
	m := make(map[string]irkind.Kind)
	for _, k := range irkind.Concrete() {
		m[k.String()] = k
	}
	return m
}()

func kindNames() []string {
	names := maps.Keys(kinds)
	slices.Sort(names)
	return names
}

// Encode a form as a YAML document.
func Encode(f *form.Form) ([]byte, error) {
	return yaml.Marshal(FromForm(f))
}

// Decode a YAML document into a form.
func Decode(data []byte) (*form.Form, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "cannot parse graph document")
	}
	return doc.Form()
}

// Load a form from a file.
func Load(path string) (*form.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read form %s", path)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "form %s", path)
	}
	return f, nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmterr.Preconditionf("invalid document version %q: %v", version, err)
	}
	c, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmterr.Internal(err)
	}
	if !c.Check(v) {
		return fmterr.Preconditionf("document version %s does not satisfy %s", v, supportedVersions)
	}
	return nil
}
