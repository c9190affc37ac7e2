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

import (
	"io"
	"log/slog"
	"sync"
)

// PatternMatcher matches a request path against a route template.
type PatternMatcher interface {
	Match(requestPath, routeTemplate string) MatchResult
}

// compiled is a cache entry. Compilation failures are cached too so a bad
// template is reported once and never recompiled.
type compiled struct {
	template *Template
	err      error
}

// Matcher is the default PatternMatcher. Compiled templates are cached by
// their text; the cache only grows.
type Matcher struct {
	cache  sync.Map // string -> *compiled
	logger *slog.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithLogger sets the logger used to report templates that fail to compile.
func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Compile returns the compiled form of a template, compiling it on first use.
func (m *Matcher) Compile(template string) (*Template, error) {
	if v, ok := m.cache.Load(template); ok {
		entry := v.(*compiled)
		return entry.template, entry.err
	}

	t, err := Compile(template)
	if err != nil {
		m.logger.Warn("route template failed to compile", "template", template, "error", err)
	}

	// A concurrent compile of the same template yields an equivalent entry.
	v, _ := m.cache.LoadOrStore(template, &compiled{template: t, err: err})
	entry := v.(*compiled)
	return entry.template, entry.err
}

// Match matches requestPath against routeTemplate. It never fails: a
// template that does not compile simply does not match.
//
// Literal templates compare case-insensitively. Simple templates bind
// each {name} placeholder to a non-empty run of characters. Templates
// with named groups are used as regular expressions.
//
// Examples:
//
//	m.Match("/users/42", "/users/{id}")             // Matched, {"id": "42"}
//	m.Match("/About", "/about")                     // Matched, no parameters
//	m.Match("/y/2024", "/y/(?<year>[0-9]{4})")      // Matched, {"year": "2024"}
//	m.Match("/users", "/users/{id}")                // not matched
func (m *Matcher) Match(requestPath, routeTemplate string) MatchResult {
	t, err := m.Compile(routeTemplate)
	if err != nil {
		return noMatch()
	}
	return t.Match(requestPath)
}
