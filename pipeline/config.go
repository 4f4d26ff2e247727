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
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/gx-org/formx/fmterr"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the constraint pipeline documents must satisfy.
const SupportedVersions = "^1.0"

type (
	// Config is the content of a pipeline document.
	Config struct {
		// Version of the document format.
		Version string `yaml:"version"`
		// Dimension of the geometry, used by passes without their own.
		Dimension int `yaml:"dimension,omitempty"`
		// Parallel rewrites integrands concurrently when a pass allows it.
		Parallel bool `yaml:"parallel,omitempty"`
		// Passes applied in order.
		Passes []PassConfig `yaml:"passes"`
	}

	// PassConfig configures a single pass.
	PassConfig struct {
		// Name of the pass. See Passes.
		Name string `yaml:"name"`
		// Dimension overrides the pipeline dimension.
		Dimension int `yaml:"dimension,omitempty"`
		// Mapping of the substitute pass: terminal names mapped to another
		// terminal name of the form or to a number.
		Mapping map[string]string `yaml:"mapping,omitempty"`
		// Offset of the first index of the renumber-indices pass.
		Offset int `yaml:"offset,omitempty"`
		// ClassicalCofactor lowers cofactors to the transposed adjugate.
		ClassicalCofactor bool `yaml:"classical_cofactor,omitempty"`
		// TraceFreeDeviatoric lowers dev(A) to A - tr(A)/n I.
		TraceFreeDeviatoric bool `yaml:"trace_free_deviatoric,omitempty"`
	}
)

// Parse a pipeline document.
func Parse(data []byte) (*Pipeline, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse pipeline document")
	}
	return New(&cfg)
}

// Load a pipeline document from a file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read pipeline %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "pipeline %s", path)
	}
	return p, nil
}

// Marshal the configuration as a YAML document.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func checkVersion(version string) error {
	if version == "" {
		return fmterr.Preconditionf("missing pipeline version")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmterr.Preconditionf("invalid pipeline version %q: %v", version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmterr.Internal(err)
	}
	if !c.Check(v) {
		return fmterr.Preconditionf("pipeline version %s does not satisfy %s", v, SupportedVersions)
	}
	return nil
}

// validate collects all the errors of a configuration.
func (cfg *Config) validate() error {
	var errs fmterr.Errors
	errs.Append(checkVersion(cfg.Version))
	if cfg.Dimension < 0 {
		errs.Appendf("invalid dimension %d", cfg.Dimension)
	}
	if len(cfg.Passes) == 0 {
		errs.Appendf("pipeline has no pass")
	}
	for i, pc := range cfg.Passes {
		errs.Append(errors.WithMessagef(pc.validate(cfg), "pass %d", i))
	}
	return errs.ToError()
}

func (pc *PassConfig) dimension(cfg *Config) int {
	if pc.Dimension > 0 {
		return pc.Dimension
	}
	return cfg.Dimension
}

func (pc *PassConfig) validate(cfg *Config) error {
	p, ok := registry[pc.Name]
	if !ok {
		return fmterr.Preconditionf("unknown pass %q: available passes are %v", pc.Name, Passes())
	}
	if pc.Dimension < 0 {
		return fmterr.Preconditionf("invalid dimension %d", pc.Dimension)
	}
	if p.needsDimension && pc.dimension(cfg) < 1 {
		return fmterr.Preconditionf("pass %s requires a dimension", pc.Name)
	}
	if pc.Offset < 0 {
		return fmterr.Preconditionf("invalid index offset %d", pc.Offset)
	}
	if len(pc.Mapping) > 0 && pc.Name != substituteName {
		return fmterr.Preconditionf("pass %s does not take a mapping", pc.Name)
	}
	return nil
}
