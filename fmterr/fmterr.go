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

// Package fmterr defines the error categories of formx and helpers to
// attach the offending expression to an error.
package fmterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error categories. Use errors.Is to test the category of an error.
var (
	// ErrPrecondition is returned when a shape, rank or operand count does not
	// match what an operation requires.
	ErrPrecondition = errors.New("precondition violation")

	// ErrUnsupportedDimension is returned by closed-form operations
	// called at a dimension they do not support.
	ErrUnsupportedDimension = errors.New("dimension not supported")

	// ErrNotImplemented is returned by operations that are not implemented.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInternal marks an integrity failure of formx itself.
	ErrInternal = errors.New("internal error")
)

// Preconditionf returns a precondition violation error.
func Preconditionf(format string, a ...any) error {
	return errors.Wrapf(ErrPrecondition, format, a...)
}

// Unsupportedf returns an unsupported dimension error.
func Unsupportedf(format string, a ...any) error {
	return errors.Wrapf(ErrUnsupportedDimension, format, a...)
}

// NotImplementedf returns a not implemented error.
func NotImplementedf(format string, a ...any) error {
	return errors.Wrapf(ErrNotImplemented, format, a...)
}

// Internal marks an error as internal.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInternal) {
		return err
	}
	return internalError{err: err}
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return Internal(errors.Errorf(format, a...))
}

// PrefixWith returns a function to prefix errors with a formatted string.
func PrefixWith(s string, o ...any) func(err error) error {
	return func(err error) error {
		if err == nil {
			return nil
		}
		return errors.WithMessagef(err, s, o...)
	}
}

type internalError struct {
	err error
}

func (err internalError) Error() string {
	return fmt.Sprintf("formx internal error. This is a bug in formx. Please report it. Error:\n%v", err.err)
}

func (err internalError) Unwrap() error {
	return err.err
}

// Is reports internal errors as ErrInternal.
func (err internalError) Is(target error) bool {
	return target == ErrInternal
}

func (err internalError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}
