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

// Package accesslog writes one structured log record per request.
package accesslog

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/nancyfx/nancy"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	skipPaths     []string
	slowThreshold time.Duration
	now           func() time.Time
}

// WithLogger sets the logger. The request logger is used by default, so
// attributes added by earlier middleware, such as the request ID, are kept.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithSkipPaths suppresses records for the given exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) { cfg.skipPaths = append(cfg.skipPaths, paths...) }
}

// WithSlowThreshold logs requests slower than d at warn level with
// slow=true. Zero disables the check.
func WithSlowThreshold(d time.Duration) Option {
	return func(cfg *config) { cfg.slowThreshold = d }
}

// New returns the access log middleware.
func New(opts ...Option) nancy.MiddlewareFunc {
	cfg := &config{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *nancy.Context) {
		if slices.Contains(cfg.skipPaths, c.Request.Path) {
			c.Next()
			return
		}
		start := cfg.now()
		c.Next()
		elapsed := cfg.now().Sub(start)

		status := http.StatusInternalServerError
		if c.Response != nil {
			status = c.Response.StatusCode
			if status == 0 {
				status = http.StatusOK
			}
		}
		route := c.Route()
		if route == "" {
			route = "_unmatched"
		}

		logger := cfg.logger
		if logger == nil {
			logger = c.Logger()
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.Path,
			"route", route,
			"status", status,
			"duration", elapsed,
			"remote_addr", c.Request.RemoteAddr,
		}
		if ua := c.Request.HTTP().UserAgent(); ua != "" {
			attrs = append(attrs, "user_agent", ua)
		}
		if err := c.Err(); err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		if cfg.slowThreshold > 0 && elapsed > cfg.slowThreshold {
			attrs = append(attrs, "slow", true)
			level = max(level, slog.LevelWarn)
		}
		logger.Log(c.Context(), level, "http request", attrs...)
	}
}
