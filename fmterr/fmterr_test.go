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

package fmterr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/gx-org/formx/fmterr"
)

type node string

func (n node) String() string { return string(n) }

func TestCategories(t *testing.T) {
	tests := []struct {
		err  error
		want error
		msg  string
	}{
		{
			err:  fmterr.Preconditionf("expecting square matrix, got shape %v", []int{2, 3}),
			want: fmterr.ErrPrecondition,
			msg:  "expecting square matrix, got shape [2 3]: precondition violation",
		},
		{
			err:  fmterr.Unsupportedf("determinant of a %dx%d matrix", 5, 5),
			want: fmterr.ErrUnsupportedDimension,
			msg:  "determinant of a 5x5 matrix: dimension not supported",
		},
		{
			err:  fmterr.NotImplementedf("curl"),
			want: fmterr.ErrNotImplemented,
			msg:  "curl: not implemented",
		},
		{
			err:  fmterr.At(node("det(A)"), fmterr.Unsupportedf("determinant")),
			want: fmterr.ErrUnsupportedDimension,
			msg:  "det(A): determinant: dimension not supported",
		},
	}
	for i, test := range tests {
		if !errors.Is(test.err, test.want) {
			t.Errorf("test %d: error %v is not %v", i, test.err, test.want)
		}
		if got := test.err.Error(); got != test.msg {
			t.Errorf("test %d: got message %q but want %q", i, got, test.msg)
		}
	}
}

func TestInternal(t *testing.T) {
	err := fmterr.Internalf("no rule for kind %s", "sum")
	if !errors.Is(err, fmterr.ErrInternal) {
		t.Fatalf("%v is not an internal error", err)
	}
	if !strings.Contains(fmt.Sprint(err), "no rule for kind sum") {
		t.Errorf("internal error %q does not contain the original message", err)
	}
	if again := fmterr.Internal(err); again != err {
		t.Errorf("internal error wrapped twice")
	}
}

func TestAtKeepsInnermost(t *testing.T) {
	err := fmterr.At(node("inner"), fmterr.Preconditionf("bad"))
	err = fmterr.At(node("outer"), err)
	if !strings.HasPrefix(err.Error(), "inner: ") {
		t.Errorf("got %q but want the innermost node to be reported", err.Error())
	}
}

func TestErrors(t *testing.T) {
	var errs fmterr.Errors
	if !errs.Empty() || errs.ToError() != nil {
		t.Fatalf("zero value is not empty")
	}
	errs.Append(nil)
	errs.Appendf("first")
	errs.Appendf("second")
	if got := len(errs.Errors()); got != 2 {
		t.Errorf("got %d errors but want 2", got)
	}
	if !errors.Is(errs.ToError(), fmterr.ErrPrecondition) {
		t.Errorf("aggregated error lost its category")
	}
}
