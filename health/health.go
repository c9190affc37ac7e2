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

// Package health serves liveness and readiness endpoints.
//
//	h := health.New(health.WithReadiness("db", db.PingContext))
//	engine.MustRegister(h.Module("/"))
//
// GET /healthz answers "ok" while every liveness check passes. GET /readyz
// answers 204 while every readiness check passes. Failures answer 503 with
// the failing checks in the error details.
package health

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nancyfx/nancy"
)

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Option configures a [Health].
type Option func(*Health)

// WithLiveness adds a check to /healthz. Liveness checks should not touch
// external dependencies.
func WithLiveness(name string, fn CheckFunc) Option {
	return func(h *Health) { h.liveness[name] = fn }
}

// WithReadiness adds a check to /readyz.
func WithReadiness(name string, fn CheckFunc) Option {
	return func(h *Health) { h.readiness[name] = fn }
}

// WithTimeout bounds each check. The default is one second.
func WithTimeout(d time.Duration) Option {
	return func(h *Health) { h.timeout = d }
}

// WithPaths replaces the liveness and readiness paths.
func WithPaths(liveness, readiness string) Option {
	return func(h *Health) {
		h.livePath = liveness
		h.readyPath = readiness
	}
}

// Health holds liveness and readiness checks.
type Health struct {
	liveness  map[string]CheckFunc
	readiness map[string]CheckFunc
	timeout   time.Duration
	livePath  string
	readyPath string
}

// New creates the health endpoints.
func New(opts ...Option) *Health {
	h := &Health{
		liveness:  map[string]CheckFunc{},
		readiness: map[string]CheckFunc{},
		timeout:   time.Second,
		livePath:  "/healthz",
		readyPath: "/readyz",
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.timeout <= 0 {
		h.timeout = time.Second
	}
	return h
}

// Module returns the health routes under basePath.
func (h *Health) Module(basePath string) *nancy.Module {
	return nancy.NewModule(basePath).
		Get(h.livePath, func(c *nancy.Context) (*nancy.Response, error) {
			if err := h.run(c.Context(), "liveness", h.liveness); err != nil {
				return nil, err
			}
			return nancy.Text(http.StatusOK, "ok").WithHeader("Cache-Control", "no-store"), nil
		}).
		Get(h.readyPath, func(c *nancy.Context) (*nancy.Response, error) {
			if err := h.run(c.Context(), "readiness", h.readiness); err != nil {
				return nil, err
			}
			return nancy.NewResponse(http.StatusNoContent).WithHeader("Cache-Control", "no-store"), nil
		})
}

// Check runs the readiness checks once, for example before serving.
func (h *Health) Check(ctx context.Context) error {
	return h.run(ctx, "readiness", h.readiness)
}

func (h *Health) run(ctx context.Context, kind string, checks map[string]CheckFunc) error {
	if len(checks) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures = map[string]string{}
		g        errgroup.Group
	)
	for name, fn := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			if err := fn(cctx); err != nil {
				mu.Lock()
				failures[name] = err.Error()
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == 0 {
		return nil
	}
	return &CheckError{Kind: kind, Failures: failures}
}

// CheckError lists failed checks by name.
type CheckError struct {
	Kind     string
	Failures map[string]string
}

func (e *CheckError) Error() string {
	names := slices.Sorted(maps.Keys(e.Failures))
	return fmt.Sprintf("%s checks failed: %s", e.Kind, strings.Join(names, ", "))
}

func (e *CheckError) HTTPStatus() int { return http.StatusServiceUnavailable }
func (e *CheckError) Details() any    { return e.Failures }
func (e *CheckError) Code() string    { return e.Kind + "_failed" }
