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

package binding

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

var (
	ErrOutMustBePointer       = errors.New("out must be a non-nil pointer to struct")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrBodyTooLarge           = errors.New("request body too large")
	ErrValidation             = errors.New("validation failed")
)

// Source names where a value came from.
type Source string

const (
	SourceBody   Source = "body"
	SourcePath   Source = "path"
	SourceQuery  Source = "query"
	SourceForm   Source = "form"
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
)

// BindError reports a value that could not be converted to its field.
type BindError struct {
	Field  string
	Source Source
	Value  string
	Type   reflect.Type
	Err    error
}

func (e *BindError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("binding %s: %v", e.Source, e.Err)
	}
	msg := fmt.Sprintf("binding field %q (%s): cannot convert %q to %s", e.Field, e.Source, e.Value, e.Type)
	if isInt(e.Type) && strings.Contains(e.Value, ".") {
		msg += " (hint: use a float type for decimal values)"
	}
	return msg
}

func (e *BindError) Unwrap() error   { return e.Err }
func (e *BindError) HTTPStatus() int { return statusFor(e.Err) }
func (e *BindError) Code() string    { return "binding_error" }

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func isInt(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// FieldError is one failed validation rule.
type FieldError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 1 {
		return v.Fields[0].Error()
	}
	msgs := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v *ValidationError) Unwrap() error   { return ErrValidation }
func (v *ValidationError) HTTPStatus() int { return http.StatusUnprocessableEntity }
func (v *ValidationError) Details() any    { return v.Fields }
func (v *ValidationError) Code() string    { return "validation_error" }

// Has reports whether path failed validation.
func (v *ValidationError) Has(path string) bool {
	for _, f := range v.Fields {
		if f.Path == path {
			return true
		}
	}
	return false
}
