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

// Package nancy is a lightweight web framework.
//
// An [Engine] routes requests to handlers registered through a [Module].
// Route templates are literal paths, paths with {name} placeholders, or
// regular expressions with named groups:
//
//	m := nancy.NewModule("/products")
//	m.Get("/", list)
//	m.Get("/{id}", show)
//	m.Get(`/(?<year>\d{4})/archive`, archive)
//
// Handlers return a [Response] and an error. Errors are rendered by the
// engine's error formatter, problem details by default:
//
//	func show(c *nancy.Context) (*nancy.Response, error) {
//	    p, err := store.Find(c.Parameters.Get("id"))
//	    if err != nil {
//	        return nil, nancy.NewHTTPError(http.StatusNotFound, "product not found")
//	    }
//	    return c.Negotiate(http.StatusOK, p, "product")
//	}
//
// # Request processing
//
// For every request the engine runs middleware added with [Engine.Use], then
// before hooks, the matched route (wrapped by its module's hooks) and after
// hooks. When no route matches a GET or HEAD request the static content
// conventions are tried. A path matching routes of other methods only is
// answered with 405 and an Allow header, anything else with 404.
//
// Handlers mounted with [Engine.Mount], such as the diagnostics dashboard,
// bypass middleware and hooks.
//
// # Configuration
//
// Modules, hooks and conventions must be added before serving; the engine
// freezes on its first request.
package nancy
