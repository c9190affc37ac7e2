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

// Package cors answers cross-origin preflight requests and marks allowed
// origins on responses. No origin is allowed until configured.
package cors

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/nancyfx/nancy"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	origins     []string
	originFunc  func(origin string) bool
	anyOrigin   bool
	methods     []string
	headers     []string
	exposed     []string
	credentials bool
	maxAge      int
}

// WithAllowedOrigins allows exact origins such as "https://example.com".
func WithAllowedOrigins(origins ...string) Option {
	return func(cfg *config) { cfg.origins = append(cfg.origins, origins...) }
}

// WithAllowOriginFunc allows origins fn accepts.
func WithAllowOriginFunc(fn func(origin string) bool) Option {
	return func(cfg *config) { cfg.originFunc = fn }
}

// WithAllowAllOrigins allows every origin with "*". Combined with
// credentials the request origin is echoed instead.
func WithAllowAllOrigins() Option {
	return func(cfg *config) { cfg.anyOrigin = true }
}

// WithAllowedMethods replaces the methods announced to preflights.
func WithAllowedMethods(methods ...string) Option {
	return func(cfg *config) { cfg.methods = methods }
}

// WithAllowedHeaders replaces the request headers announced to preflights.
func WithAllowedHeaders(headers ...string) Option {
	return func(cfg *config) { cfg.headers = headers }
}

// WithExposedHeaders lists response headers scripts may read.
func WithExposedHeaders(headers ...string) Option {
	return func(cfg *config) { cfg.exposed = headers }
}

// WithAllowCredentials allows cookies and authorization headers.
func WithAllowCredentials() Option {
	return func(cfg *config) { cfg.credentials = true }
}

// WithMaxAge sets how long, in seconds, a preflight may be cached.
func WithMaxAge(seconds int) Option {
	return func(cfg *config) { cfg.maxAge = seconds }
}

// New returns the CORS middleware. Preflight requests from allowed origins
// are answered with 204 and never reach a route.
func New(opts ...Option) nancy.MiddlewareFunc {
	cfg := &config{
		methods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		headers: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:  3600,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	methods := strings.Join(cfg.methods, ", ")
	headers := strings.Join(cfg.headers, ", ")
	exposed := strings.Join(cfg.exposed, ", ")
	maxAge := strconv.Itoa(cfg.maxAge)

	return func(c *nancy.Context) {
		origin := c.Request.HTTP().Header.Get("Origin")
		h := c.Writer().Header()
		if origin == "" {
			c.Next()
			return
		}
		h.Add("Vary", "Origin")

		allowed := cfg.allow(origin)
		if allowed == "" {
			c.Trace.Writef("cors: origin %s not allowed", origin)
			c.Next()
			return
		}

		if cfg.credentials {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		} else {
			h.Set("Access-Control-Allow-Origin", allowed)
		}
		if exposed != "" {
			h.Set("Access-Control-Expose-Headers", exposed)
		}

		if c.Request.Method == http.MethodOptions && c.Request.HTTP().Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWith(nancy.NewResponse(http.StatusNoContent))
			return
		}
		c.Next()
	}
}

// allow returns the Access-Control-Allow-Origin value for origin, or "".
func (cfg *config) allow(origin string) string {
	switch {
	case cfg.anyOrigin:
		return "*"
	case slices.Contains(cfg.origins, origin):
		return origin
	case cfg.originFunc != nil && cfg.originFunc(origin):
		return origin
	}
	return ""
}
