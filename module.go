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
	"net/http"
	"strings"
)

// Module groups routes under a base path together with hooks that run
// around those routes only.
//
//	m := nancy.NewModule("/orders")
//	m.Get("/{id}", func(c *nancy.Context) (*nancy.Response, error) {
//	    return nancy.Text(http.StatusOK, "order "+c.Parameters.Get("id")), nil
//	})
type Module struct {
	basePath string
	routes   []moduleRoute
	before   []BeforeHook
	after    []AfterHook
}

type moduleRoute struct {
	method  string
	path    string
	handler Handler
}

// NewModule creates a module whose routes are relative to basePath.
func NewModule(basePath string) *Module {
	return &Module{basePath: basePath}
}

// BasePath returns the module base path.
func (m *Module) BasePath() string { return m.basePath }

// Route registers a handler for method and path.
func (m *Module) Route(method, path string, h Handler) *Module {
	m.routes = append(m.routes, moduleRoute{method: method, path: joinPath(m.basePath, path), handler: h})
	return m
}

// Get registers a GET route. A GET route also answers HEAD requests
// unless a HEAD route is registered for the same path.
func (m *Module) Get(path string, h Handler) *Module { return m.Route(http.MethodGet, path, h) }

// Post registers a POST route.
func (m *Module) Post(path string, h Handler) *Module { return m.Route(http.MethodPost, path, h) }

// Put registers a PUT route.
func (m *Module) Put(path string, h Handler) *Module { return m.Route(http.MethodPut, path, h) }

// Patch registers a PATCH route.
func (m *Module) Patch(path string, h Handler) *Module { return m.Route(http.MethodPatch, path, h) }

// Delete registers a DELETE route.
func (m *Module) Delete(path string, h Handler) *Module { return m.Route(http.MethodDelete, path, h) }

// Head registers a HEAD route.
func (m *Module) Head(path string, h Handler) *Module { return m.Route(http.MethodHead, path, h) }

// Options registers an OPTIONS route.
func (m *Module) Options(path string, h Handler) *Module {
	return m.Route(http.MethodOptions, path, h)
}

// Before adds a hook that runs before each route of this module. A hook
// returning a response short-circuits the route.
func (m *Module) Before(h BeforeHook) *Module {
	m.before = append(m.before, h)
	return m
}

// After adds a hook that runs after each route of this module.
func (m *Module) After(h AfterHook) *Module {
	m.after = append(m.after, h)
	return m
}

// joinPath joins a base path and a route path with exactly one slash.
func joinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	path = strings.TrimLeft(path, "/")
	switch {
	case base == "" && path == "":
		return "/"
	case path == "":
		return ensureLeadingSlash(base)
	default:
		return ensureLeadingSlash(base + "/" + path)
	}
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
