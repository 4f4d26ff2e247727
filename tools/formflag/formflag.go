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

// Package formflag provides flag types for formx tools.
package formflag

import (
	"flag"
	"strings"
)

type stringList struct {
	list *[]string
	set  bool
}

func (sl *stringList) String() string {
	if sl.list == nil {
		return ""
	}
	return strings.Join(*sl.list, ",")
}

func (sl *stringList) Set(values string) error {
	if !sl.set {
		// Values from the command line replace the defaults.
		*sl.list = nil
		sl.set = true
	}
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		*sl.list = append(*sl.list, value)
	}
	return nil
}

// StringListVar defines a flag to pass a list of string from the command
// line. Values are separated by commas and the flag can be repeated.
func StringListVar(fs *flag.FlagSet, name, doc string, defaults ...string) *[]string {
	list := append([]string(nil), defaults...)
	sList := stringList{list: &list}
	fs.Var(&sList, name, doc)
	return sList.list
}
