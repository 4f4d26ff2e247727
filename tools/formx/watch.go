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
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// watchAndRun runs the pipeline every time the input or the pipeline
// document is written, until the context is done.
// Errors from a run are logged and do not stop watching.
func watchAndRun(ctx context.Context, cfg *config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create file watcher")
	}
	defer w.Close()
	watched := map[string]bool{}
	for _, path := range []string{cfg.input, cfg.pipelinePath} {
		if path == "" {
			continue
		}
		path = filepath.Clean(path)
		watched[path] = true
		// Watch the folder so that replaced files are still seen.
		if err := w.Add(filepath.Dir(path)); err != nil {
			return errors.Wrapf(err, "cannot watch %s", path)
		}
	}
	runOnce := func() {
		if err := cfg.run(ctx); err != nil {
			logrus.Errorf("%+v", err)
		}
	}
	runOnce()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logrus.WithField("file", ev.Name).Info("file changed")
			runOnce()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("file watcher: %v", err)
		}
	}
}
