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

// Command formx rewrites a form stored in a graph document.
//
// The passes are either read from a pipeline document:
//
//	formx -input form.yaml -pipeline pipeline.yaml
//
// or listed on the command line:
//
//	formx -input form.yaml -passes lower-compounds,mark-duplicates -dim 3
//
// Flag defaults are read from FORMX_* environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gx-org/formx/tools/formflag"
	"github.com/sirupsen/logrus"
	"github.com/xyproto/env/v2"
)

var (
	input        = flag.String("input", env.Str("FORMX_INPUT"), "graph document of the form to rewrite")
	pipelinePath = flag.String("pipeline", env.Str("FORMX_PIPELINE"), "pipeline document")
	passes       = formflag.StringListVar(flag.CommandLine, "passes", "comma separated list of passes, used if no pipeline is given", splitList(env.Str("FORMX_PASSES"))...)
	dim          = flag.Int("dim", env.Int("FORMX_DIM", 0), "geometric dimension used by passes listed with -passes")
	parallel     = flag.Bool("parallel", env.Bool("FORMX_PARALLEL"), "rewrite integrals concurrently")
	format       = flag.String("format", env.Str("FORMX_FORMAT", formatText), "output format: text, tree or yaml")
	output       = flag.String("output", env.Str("FORMX_OUTPUT"), "output file (standard output if empty)")
	watch        = flag.Bool("watch", env.Bool("FORMX_WATCH"), "run again every time the input or the pipeline changes")
	logLevel     = flag.String("log_level", env.Str("FORMX_LOG_LEVEL", "warning"), "logging level")
	verbose      = flag.Bool("v", false, "verbose output (same as -log_level=debug)")
)

func exit(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

func main() {
	flag.Parse()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		exit("%v", err)
	}
	if *verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	cfg := &config{
		input:        *input,
		pipelinePath: *pipelinePath,
		passes:       *passes,
		dim:          *dim,
		parallel:     *parallel,
		format:       *format,
		output:       *output,
	}
	if err := cfg.check(); err != nil {
		exit("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *watch {
		err = watchAndRun(ctx, cfg)
	} else {
		err = cfg.run(ctx)
	}
	if err != nil {
		exit("%+v", err)
	}
}
