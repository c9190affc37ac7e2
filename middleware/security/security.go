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

// Package security sets protective response headers.
package security

import (
	"fmt"
	"net/http"

	"github.com/nancyfx/nancy"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	frameOptions       string
	contentTypeOptions bool
	xssProtection      string
	hstsMaxAge         int
	hstsSubdomains     bool
	csp                string
	referrerPolicy     string
	permissionsPolicy  string
}

// WithFrameOptions sets X-Frame-Options. Default DENY; "" omits it.
func WithFrameOptions(v string) Option {
	return func(cfg *config) { cfg.frameOptions = v }
}

// WithoutContentTypeNosniff omits X-Content-Type-Options.
func WithoutContentTypeNosniff() Option {
	return func(cfg *config) { cfg.contentTypeOptions = false }
}

// WithXSSProtection sets X-XSS-Protection. "" omits it.
func WithXSSProtection(v string) Option {
	return func(cfg *config) { cfg.xssProtection = v }
}

// WithHSTS sets the Strict-Transport-Security max age in seconds. The
// header is only sent on TLS requests. Zero disables it.
func WithHSTS(maxAge int, includeSubdomains bool) Option {
	return func(cfg *config) {
		cfg.hstsMaxAge = maxAge
		cfg.hstsSubdomains = includeSubdomains
	}
}

// WithContentSecurityPolicy sets Content-Security-Policy. "" omits it.
func WithContentSecurityPolicy(v string) Option {
	return func(cfg *config) { cfg.csp = v }
}

// WithReferrerPolicy sets Referrer-Policy. "" omits it.
func WithReferrerPolicy(v string) Option {
	return func(cfg *config) { cfg.referrerPolicy = v }
}

// WithPermissionsPolicy sets Permissions-Policy. Omitted by default.
func WithPermissionsPolicy(v string) Option {
	return func(cfg *config) { cfg.permissionsPolicy = v }
}

// New returns the security headers middleware. Headers a response sets
// itself take precedence.
func New(opts ...Option) nancy.MiddlewareFunc {
	cfg := &config{
		frameOptions:       "DENY",
		contentTypeOptions: true,
		xssProtection:      "1; mode=block",
		hstsMaxAge:         31536000,
		hstsSubdomains:     true,
		csp:                "default-src 'self'",
		referrerPolicy:     "strict-origin-when-cross-origin",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hsts := ""
	if cfg.hstsMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(c *nancy.Context) {
		h := c.Writer().Header()
		set(h, "X-Frame-Options", cfg.frameOptions)
		if cfg.contentTypeOptions {
			h.Set("X-Content-Type-Options", "nosniff")
		}
		set(h, "X-XSS-Protection", cfg.xssProtection)
		set(h, "Content-Security-Policy", cfg.csp)
		set(h, "Referrer-Policy", cfg.referrerPolicy)
		set(h, "Permissions-Policy", cfg.permissionsPolicy)
		if hsts != "" && c.Request.HTTP().TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

func set(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
