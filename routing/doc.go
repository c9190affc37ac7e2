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

// Package routing compiles route templates and matches request paths
// against them.
//
// # Template syntax
//
// A template is compiled in one of three modes, chosen from its text:
//
//   - Literal: no placeholders and no regular-expression syntax, e.g.
//     "/foo/bar". Matching is a case-insensitive string comparison.
//   - Simple: literal text with {name} placeholders, e.g. "/foo/{bar}",
//     "/foo/bar{name}.cshtml" or "/foo/{name}.{format}". Literal text is
//     escaped and every placeholder becomes a greedy capture group, so
//     "/foo/{bar}" matches "/foo/bar/baz" with bar = "bar/baz".
//   - Raw: the template contains any of the characters ( [ \ ^ $ | * + ?
//     and is used as a regular expression as written, e.g.
//     `/(?<foo>foo)/(?<bar>\d{4})`. Named groups become parameters.
//
// All modes match case-insensitively and ignore a trailing slash on
// either side, except that the root path "/" only matches the root
// template "/".
//
// Captured values are returned exactly as they appear in the path; they
// are never percent-decoded.
//
// # Matching
//
//	m := routing.NewMatcher()
//	res := m.Match("/foo/1234", `/(?<foo>foo)/(?<bar>\d{4})/`)
//	// res.IsMatch == true, res.Parameters["bar"] == "1234"
//
// [Matcher] caches compiled templates and is safe for concurrent use.
// [Table] builds on it to resolve a method and path to a registered route.
package routing
