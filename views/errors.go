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

package views

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoEngines is returned by New when no view engine is configured.
	ErrNoEngines = errors.New("at least one view engine is required")

	// ErrNilFS is returned by New for a nil file system.
	ErrNilFS = errors.New("view file system cannot be nil")
)

// ViewNotFoundError reports a view name that matched no file.
type ViewNotFoundError struct {
	ViewName            string
	AvailableExtensions []string
}

func (e *ViewNotFoundError) Error() string {
	if len(e.AvailableExtensions) == 0 {
		return fmt.Sprintf("Unable to locate view %s", e.ViewName)
	}
	return fmt.Sprintf("Unable to locate view '%s'. Currently available view engine extensions: %s",
		e.ViewName, strings.Join(e.AvailableExtensions, ","))
}

// HTTPStatus makes a missing view a server error.
func (e *ViewNotFoundError) HTTPStatus() int { return http.StatusInternalServerError }

// Code returns the machine readable error code.
func (e *ViewNotFoundError) Code() string { return "view_not_found" }
