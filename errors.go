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

package nancy

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrEngineFrozen is returned when configuration changes after the
	// engine has served its first request.
	ErrEngineFrozen = errors.New("engine is frozen: configure it before serving requests")

	// ErrNilHandler is returned when a route is registered without a handler.
	ErrNilHandler = errors.New("route handler cannot be nil")

	// ErrNilModule is returned when Register receives a nil module.
	ErrNilModule = errors.New("module cannot be nil")

	// ErrInvalidMount is returned for a mount without a prefix or handler.
	ErrInvalidMount = errors.New("mount requires a non-root prefix and a handler")
)

// HTTPError is an error with an HTTP status. Handlers may return one to
// choose the status of the error response.
type HTTPError struct {
	Status  int
	Message string

	// Allowed lists the methods sent in the Allow header of a 405.
	Allowed []string

	Err error
}

// NewHTTPError creates an HTTPError. An empty message uses the status text.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// NotFound is the error for a request no route or convention handles.
func NotFound(path string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: "no route or static content matches " + path}
}

// MethodNotAllowed is the error for a path served only under other methods.
func MethodNotAllowed(allowed []string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusMethodNotAllowed,
		Message: "method not allowed, expected one of " + strings.Join(allowed, ", "),
		Allowed: allowed,
	}
}

// NotAcceptable is the error for a request whose Accept header matches no
// response processor.
func NotAcceptable() *HTTPError {
	return &HTTPError{Status: http.StatusNotAcceptable, Message: "no response processor can produce an acceptable media type"}
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *HTTPError) Unwrap() error { return e.Err }

// HTTPStatus returns the status code.
func (e *HTTPError) HTTPStatus() int { return e.Status }

// Code returns a machine-readable code derived from the status text, such
// as "method_not_allowed".
func (e *HTTPError) Code() string {
	return strings.ToLower(strings.ReplaceAll(http.StatusText(e.Status), " ", "_"))
}

// Header returns the Allow header for a 405, or nil.
func (e *HTTPError) Header() http.Header {
	if len(e.Allowed) == 0 {
		return nil
	}
	return http.Header{"Allow": {strings.Join(e.Allowed, ", ")}}
}
