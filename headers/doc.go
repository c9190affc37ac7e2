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

// Package headers provides a typed, case-insensitive view over the raw
// request headers of an HTTP request.
//
// A [RequestHeaders] value is built once from the transport-level header
// dictionary and never changes afterwards. Every typed accessor re-parses
// the raw values on access, so the accessors are safe to call from any
// goroutine.
//
// # Negotiation headers
//
// Accept, Accept-Charset and Accept-Language are parsed into quality
// weighted lists:
//
//	h := headers.New(map[string][]string{
//	    "Accept": {"text/plain;q=0.3, text/ninja, text/html;q=0.7"},
//	})
//	for _, e := range h.Accept() {
//	    fmt.Println(e.Value, e.Quality)
//	}
//	// text/ninja 1
//	// text/html 0.7
//	// text/plain 0.3
//
// The list is sorted by descending quality. Entries with equal quality
// keep the order in which they appeared in the request. An entry whose
// q parameter is not a number in the range [0, 1] is dropped.
//
// # Malformed values
//
// Dates that cannot be parsed are reported as absent. Numeric headers
// that are present but malformed return an error wrapping
// [ErrInvalidNumber]; absent numeric headers return zero.
package headers
