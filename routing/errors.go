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

package routing

import "errors"

var (
	// ErrInvalidTemplate indicates that a route template could not be compiled.
	ErrInvalidTemplate = errors.New("invalid route template")

	// ErrTableFrozen indicates that a route was added after the table was frozen.
	ErrTableFrozen = errors.New("route table is frozen")

	// ErrEmptyMethod indicates that a route was registered without an HTTP method.
	ErrEmptyMethod = errors.New("route method cannot be empty")
)
