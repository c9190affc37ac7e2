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
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Route is a registered route.
type Route[H any] struct {
	Method   string
	Path     string
	Handler  H
	Template *Template
	order    int
}

// Resolution is a route selected for a request together with the
// parameters captured from the path.
type Resolution[H any] struct {
	Route      *Route[H]
	Parameters map[string]string
}

// Table holds routes and resolves requests against them.
//
// Routes are added during configuration. After Freeze the table is
// read-only and Resolve takes no locks.
type Table[H any] struct {
	mu      sync.Mutex
	routes  []*Route[H]
	frozen  atomic.Bool
	matcher *Matcher
}

// NewTable creates an empty route table. A nil matcher gets a fresh one.
func NewTable[H any](matcher *Matcher) *Table[H] {
	if matcher == nil {
		matcher = NewMatcher()
	}
	return &Table[H]{matcher: matcher}
}

// Add registers a route. The template is compiled immediately so that a
// malformed template is reported at registration rather than at request
// time.
func (t *Table[H]) Add(method, path string, handler H) (*Route[H], error) {
	if method == "" {
		return nil, ErrEmptyMethod
	}
	if t.frozen.Load() {
		return nil, ErrTableFrozen
	}

	tmpl, err := t.matcher.Compile(path)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen.Load() {
		return nil, ErrTableFrozen
	}

	r := &Route[H]{
		Method:   strings.ToUpper(method),
		Path:     path,
		Handler:  handler,
		Template: tmpl,
		order:    len(t.routes),
	}
	t.routes = append(t.routes, r)

	return r, nil
}

// Freeze makes the table read-only. It is safe to call more than once.
func (t *Table[H]) Freeze() {
	t.mu.Lock()
	t.frozen.Store(true)
	t.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (t *Table[H]) Frozen() bool {
	return t.frozen.Load()
}

// snapshot returns the current route slice. Once frozen it never changes.
func (t *Table[H]) snapshot() []*Route[H] {
	if t.frozen.Load() {
		return t.routes
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.routes)
}

// Resolve selects the route for a request. Among matching routes a literal
// template wins over a parameterised one, then the route capturing fewer
// parameters, then the route registered first. A HEAD request falls back
// to GET routes when no HEAD route matches.
func (t *Table[H]) Resolve(method, path string) (Resolution[H], bool) {
	method = strings.ToUpper(method)
	routes := t.snapshot()

	if res, ok := resolve(routes, method, path); ok {
		return res, true
	}
	if method == http.MethodHead {
		return resolve(routes, http.MethodGet, path)
	}
	return Resolution[H]{}, false
}

func resolve[H any](routes []*Route[H], method, path string) (Resolution[H], bool) {
	var best Resolution[H]
	found := false

	for _, r := range routes {
		if r.Method != method {
			continue
		}
		res := r.Template.Match(path)
		if !res.IsMatch {
			continue
		}
		if !found || better(r, res, best) {
			best = Resolution[H]{Route: r, Parameters: res.Parameters}
			found = true
		}
	}

	return best, found
}

// better reports whether candidate r should replace the current best.
func better[H any](r *Route[H], res MatchResult, best Resolution[H]) bool {
	rLiteral := r.Template.Mode() == ModeLiteral
	bLiteral := best.Route.Template.Mode() == ModeLiteral
	if rLiteral != bLiteral {
		return rLiteral
	}
	if len(res.Parameters) != len(best.Parameters) {
		return len(res.Parameters) < len(best.Parameters)
	}
	return r.order < best.Route.order
}

// AllowedMethods returns the methods of all routes matching path, sorted.
// GET implies HEAD.
func (t *Table[H]) AllowedMethods(path string) []string {
	var methods []string
	for _, r := range t.snapshot() {
		if slices.Contains(methods, r.Method) {
			continue
		}
		if r.Template.Match(path).IsMatch {
			methods = append(methods, r.Method)
		}
	}
	if slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
		methods = append(methods, http.MethodHead)
	}
	slices.Sort(methods)
	return methods
}

// Routes returns a copy of the registered routes in registration order.
func (t *Table[H]) Routes() []Route[H] {
	routes := t.snapshot()
	out := make([]Route[H], 0, len(routes))
	for _, r := range routes {
		out = append(out, *r)
	}
	return out
}

// Len returns the number of registered routes.
func (t *Table[H]) Len() int {
	return len(t.snapshot())
}
