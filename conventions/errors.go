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

package conventions

import "errors"

var (
	// ErrOutsideSafePaths is returned when a file lies outside every safe
	// path.
	ErrOutsideSafePaths = errors.New("file is outside the safe paths")

	// ErrResourceNotFound is returned when an assembly has no resource of
	// the requested name.
	ErrResourceNotFound = errors.New("embedded resource not found")
)
