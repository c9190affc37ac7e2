// Copyright 2025 The Nancy Authors
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

package errors

import (
	"errors"
	"maps"
	"net/http"
)

// Formatter turns an error into the parts of an HTTP response.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// FormatterFunc adapts a function to [Formatter].
type FormatterFunc func(req *http.Request, err error) Response

// Format calls f(req, err).
func (f FormatterFunc) Format(req *http.Request, err error) Response { return f(req, err) }

// Response is a formatted error response.
//
// Body is either a value to be marshaled as JSON or, when Raw is set, the
// bytes to write as they are.
type Response struct {
	Status      int
	ContentType string
	Body        any
	Raw         []byte
	Headers     http.Header
}

// ErrorType is implemented by errors that choose their HTTP status.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails is implemented by errors that carry structured details.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode is implemented by errors that carry a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// StatusOf returns the status declared by err or anything it wraps, or 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ErrorHeaders is implemented by errors that add response headers, such as
// Allow on a 405.
type ErrorHeaders interface {
	error
	Header() http.Header
}

// HeadersOf returns a copy of the headers declared by err, or nil.
func HeadersOf(err error) http.Header {
	var withHeaders ErrorHeaders
	if errors.As(err, &withHeaders) {
		return maps.Clone(withHeaders.Header())
	}
	return nil
}

// WithStatus wraps err with an explicit HTTP status. A nil err uses the
// status text as its message.
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }
