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

package formflag_test

import (
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/formx/tools/formflag"
)

func TestStringList(t *testing.T) {
	tests := []struct {
		defaults []string
		args     []string
		want     []string
	}{
		{
			args: nil,
		},
		{
			args: []string{"-passes", "copy"},
			want: []string{"copy"},
		},
		{
			args: []string{"-passes", "copy, flatten,,", "-passes=mark-duplicates"},
			want: []string{"copy", "flatten", "mark-duplicates"},
		},
		{
			defaults: []string{"identity"},
			want:     []string{"identity"},
		},
		{
			defaults: []string{"identity"},
			args:     []string{"-passes", "copy", "-passes", "flatten"},
			want:     []string{"copy", "flatten"},
		},
	}
	for i, test := range tests {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		got := formflag.StringListVar(fs, "passes", "list of passes", test.defaults...)
		if err := fs.Parse(test.args); err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if diff := cmp.Diff(test.want, *got); diff != "" {
			t.Errorf("test %d: unexpected list (-want +got):\n%s", i, diff)
		}
	}
}
