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

package fmterr

import (
	"fmt"
	"runtime/debug"
)

type (
	// ErrorWithNode is an error attached to an expression.
	ErrorWithNode interface {
		error
		Node() fmt.Stringer
		Err() error
	}

	errorWithNode struct {
		node fmt.Stringer
		err  error
	}
)

// At attaches an expression to an error.
// Errors already attached to an expression are returned unchanged
// so that the innermost expression is reported.
func At(node fmt.Stringer, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(ErrorWithNode); ok {
		return err
	}
	return errorWithNode{node: node, err: err}
}

// Error returns a string description of the error.
func (err errorWithNode) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	if err.node == nil {
		return err.err.Error()
	}
	return err.node.String() + ": " + err.err.Error()
}

// Unwrap the error.
func (err errorWithNode) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err errorWithNode) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

func (err errorWithNode) Node() fmt.Stringer {
	return err.node
}

func (err errorWithNode) Err() error {
	return err.err
}
