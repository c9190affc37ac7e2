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
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	nerrors "github.com/nancyfx/nancy/errors"
	"github.com/nancyfx/nancy/routing"
)

// Version is the framework version reported by diagnostics.
const Version = "1.0.0"

// ViewRenderer renders named views. The views package provides one.
type ViewRenderer interface {
	Render(w io.Writer, name string, model any) error

	// Extensions lists the file extensions of the loaded view engines.
	Extensions() []string
}

// MetricsRecorder receives one observation per handled request.
type MetricsRecorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
}

type route struct {
	handler Handler
	module  *Module
}

type mount struct {
	prefix  string
	handler http.Handler
}

// Engine is a Nancy application. It is an [http.Handler].
//
// Configuration (modules, hooks, middleware, conventions, mounts) must be
// complete before the first request; the engine freezes itself when it
// starts serving.
type Engine struct {
	settings   Settings
	logger     *slog.Logger
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    MetricsRecorder
	formatter  nerrors.Formatter
	views      ViewRenderer
	processors []ResponseProcessor

	matcher *routing.Matcher
	table   *routing.Table[*route]
	modules []*Module

	middleware  []MiddlewareFunc
	before      []BeforeHook
	after       []AfterHook
	onError     []ErrorHook
	conventions []StaticConvention
	mounts      []mount

	mu         sync.Mutex
	frozen     atomic.Bool
	freezeOnce sync.Once
}

// Register adds the routes of one or more modules.
func (e *Engine) Register(modules ...*Module) error {
	if e.frozen.Load() {
		return ErrEngineFrozen
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, m := range modules {
		if m == nil {
			return ErrNilModule
		}
		for _, r := range m.routes {
			if r.handler == nil {
				return fmt.Errorf("%w: %s %s", ErrNilHandler, r.method, r.path)
			}
			if _, err := e.table.Add(r.method, r.path, &route{handler: r.handler, module: m}); err != nil {
				return fmt.Errorf("register %s %s: %w", r.method, r.path, err)
			}
			e.logger.Debug("route registered", "method", strings.ToUpper(r.method), "template", r.path)
		}
		e.modules = append(e.modules, m)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (e *Engine) MustRegister(modules ...*Module) {
	if err := e.Register(modules...); err != nil {
		panic("nancy: " + err.Error())
	}
}

// Use appends middleware. Middleware runs in the order added, around
// hooks, routing and static conventions.
func (e *Engine) Use(mw ...MiddlewareFunc) {
	e.configure(func() { e.middleware = append(e.middleware, mw...) })
}

// Before appends an application-wide before hook.
func (e *Engine) Before(h BeforeHook) {
	e.configure(func() { e.before = append(e.before, h) })
}

// After appends an application-wide after hook.
func (e *Engine) After(h AfterHook) {
	e.configure(func() { e.after = append(e.after, h) })
}

// OnError appends a hook for errors returned by routes.
func (e *Engine) OnError(h ErrorHook) {
	e.configure(func() { e.onError = append(e.onError, h) })
}

// AddStaticConvention appends a static content convention. Conventions are
// tried in order when no route matches a GET or HEAD request.
func (e *Engine) AddStaticConvention(conv StaticConvention) {
	e.configure(func() { e.conventions = append(e.conventions, conv) })
}

// Mount serves every request under prefix with h. The prefix is matched
// case-insensitively and stripped before h sees the request. Mounted
// handlers bypass middleware and hooks.
func (e *Engine) Mount(prefix string, h http.Handler) error {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" || h == nil {
		return ErrInvalidMount
	}
	if e.frozen.Load() {
		return ErrEngineFrozen
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mounts = append(e.mounts, mount{prefix: prefix, handler: h})
	return nil
}

func (e *Engine) configure(fn func()) {
	if e.frozen.Load() {
		panic("nancy: " + ErrEngineFrozen.Error())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Freeze ends configuration. ServeHTTP calls it on the first request.
func (e *Engine) Freeze() {
	e.freezeOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.table.Freeze()
		e.frozen.Store(true)
		e.logger.Info("engine ready", "routes", e.table.Len(), "conventions", len(e.conventions), "mounts", len(e.mounts))
	})
}

// Settings returns the engine settings.
func (e *Engine) Settings() Settings { return e.settings }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// ServeHTTP implements [http.Handler].
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Freeze()
	start := time.Now()

	if m, ok := e.findMount(r.URL.Path); ok {
		e.serveMount(w, r, m, start)
		return
	}

	ctx := r.Context()
	if e.propagator != nil {
		ctx = e.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
	}
	ctx, span := e.tracer.Start(ctx, "nancy.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	c := &Context{
		Request:  NewRequest(r),
		Trace:    newTraceLog(e.settings.Tracing),
		engine:   e,
		writer:   w,
		ctx:      ctx,
		logger:   e.logger,
		span:     span,
		handlers: make([]MiddlewareFunc, 0, len(e.middleware)+1),
		index:    -1,
	}
	c.handlers = append(c.handlers, e.middleware...)
	c.handlers = append(c.handlers, e.dispatch)
	c.Trace.Writef("%s %s", c.Request.Method, c.Request.Path)

	c.Next()

	if c.Response == nil {
		c.Error(nerrors.WithStatus(fmt.Errorf("no response produced for %s", c.Request.Path), http.StatusInternalServerError))
	}
	e.applyConditional(c)

	status := c.Response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if err := c.Response.Write(w, r.Method == http.MethodHead); err != nil {
		c.logger.Warn("failed to write response body", "error", err, "path", c.Request.Path)
	}

	routeLabel := c.route
	if routeLabel == "" {
		routeLabel = "_unmatched"
	}
	span.SetName(r.Method + " " + routeLabel)
	span.SetAttributes(
		attribute.String("http.route", routeLabel),
		attribute.Int("http.response.status_code", status),
	)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	if e.metrics != nil {
		e.metrics.RecordRequest(r.Method, routeLabel, status, time.Since(start))
	}
	if e.settings.Tracing {
		c.logger.Debug("request trace", "path", c.Request.Path, "status", status, "trace", c.Trace.Lines())
	}
}

// dispatch is the last link of the middleware chain: hooks, routing,
// static conventions and error handling.
func (e *Engine) dispatch(c *Context) {
	if resp := runBefore(c, e.before); resp != nil {
		c.Trace.Writef("before hook returned %d", resp.StatusCode)
		c.Response = resp
	} else {
		e.route(c)
	}
	runAfter(c, e.after)
}

func (e *Engine) route(c *Context) {
	req := c.Request

	res, ok := e.table.Resolve(req.Method, req.Path)
	if ok {
		c.route = res.Route.Path
		c.Parameters = res.Parameters
		c.Trace.Writef("matched route %s %s", res.Route.Method, res.Route.Path)
		e.invoke(c, res.Route.Handler)
		return
	}

	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		for _, conv := range e.conventions {
			if resp := conv(c, e.settings.RootPath); resp != nil {
				c.Trace.Writef("static convention served %s", req.Path)
				c.route = "_static"
				c.Response = resp
				return
			}
		}
	}

	if allowed := e.table.AllowedMethods(req.Path); len(allowed) > 0 {
		c.Trace.Writef("path matched methods %v", allowed)
		c.Error(MethodNotAllowed(allowed))
		return
	}
	c.Trace.Writef("no route matched")
	c.Error(NotFound(req.Path))
}

func (e *Engine) invoke(c *Context, r *route) {
	if resp := runBefore(c, r.module.before); resp != nil {
		c.Response = resp
	} else {
		resp, err := r.handler(c)
		switch {
		case err != nil:
			c.Trace.Writef("route returned error: %v", err)
			c.err = err
			c.span.RecordError(err)
			if hooked := runOnError(c, e.onError, err); hooked != nil {
				c.Response = hooked
			} else {
				c.Error(err)
			}
		case resp == nil:
			c.Response = NewResponse(http.StatusOK)
		default:
			c.Response = resp
		}
	}
	runAfter(c, r.module.after)
}

// errorResponse formats err into a response and logs server errors.
func (e *Engine) errorResponse(c *Context, err error) *Response {
	formatted := e.formatter.Format(c.Request.HTTP(), err)

	if formatted.Status >= http.StatusInternalServerError {
		c.logger.Error("request failed", "error", err, "method", c.Request.Method, "path", c.Request.Path, "status", formatted.Status)
	}

	var resp *Response
	if formatted.Raw != nil {
		resp = Bytes(formatted.Status, formatted.ContentType, formatted.Raw)
	} else {
		var err2 error
		resp, err2 = JSON(formatted.Status, formatted.Body)
		if err2 != nil {
			resp = Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
		resp.ContentType = formatted.ContentType
	}
	for k, v := range formatted.Headers {
		resp.Headers[k] = v
	}
	return resp
}

func (e *Engine) renderView(c *Context, status int, name string, model any) (*Response, error) {
	if e.views == nil {
		return nil, fmt.Errorf("render view %q: no view renderer configured", name)
	}
	var buf bytes.Buffer
	if err := e.views.Render(&buf, name, model); err != nil {
		return nil, err
	}
	c.Trace.Writef("rendered view %s", name)
	return Bytes(status, "text/html; charset=utf-8", buf.Bytes()), nil
}

// applyConditional turns a 200 GET or HEAD response into 304 when the
// request validators match the response's ETag or Last-Modified.
func (e *Engine) applyConditional(c *Context) {
	resp := c.Response
	method := c.Request.Method
	if (method != http.MethodGet && method != http.MethodHead) || (resp.StatusCode != http.StatusOK && resp.StatusCode != 0) {
		return
	}
	h := c.Request.Headers

	if etag := resp.Headers.Get("ETag"); etag != "" {
		if tags := h.IfNoneMatch(); len(tags) > 0 {
			for _, t := range tags {
				if t == "*" || weakEqual(t, etag) {
					c.Response = notModifiedFrom(resp)
					return
				}
			}
			return
		}
	}

	if lm := resp.Headers.Get("Last-Modified"); lm != "" {
		since, ok := h.IfModifiedSince()
		if !ok {
			return
		}
		modified, err := http.ParseTime(lm)
		if err == nil && !modified.Truncate(time.Second).After(since) {
			c.Response = notModifiedFrom(resp)
		}
	}
}

func weakEqual(a, b string) bool {
	return strings.TrimPrefix(a, "W/") == strings.TrimPrefix(b, "W/")
}

func notModifiedFrom(resp *Response) *Response {
	nm := NotModified()
	for _, k := range []string{"ETag", "Last-Modified", "Cache-Control", "Vary", "Expires"} {
		if v := resp.Headers.Get(k); v != "" {
			nm.Headers.Set(k, v)
		}
	}
	return nm
}

func (e *Engine) findMount(path string) (mount, bool) {
	for _, m := range e.mounts {
		if len(path) < len(m.prefix) || !strings.EqualFold(path[:len(m.prefix)], m.prefix) {
			continue
		}
		if len(path) == len(m.prefix) || path[len(m.prefix)] == '/' {
			return m, true
		}
	}
	return mount{}, false
}

func (e *Engine) serveMount(w http.ResponseWriter, r *http.Request, m mount, start time.Time) {
	ctx, span := e.tracer.Start(r.Context(), "nancy.mount "+m.prefix,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", m.prefix)),
	)
	defer span.End()

	rest := r.URL.Path[len(m.prefix):]
	if rest == "" {
		rest = "/"
	}
	r2 := r.WithContext(ctx)
	u := *r.URL
	u.Path = rest
	u.RawPath = ""
	r2.URL = &u

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	m.handler.ServeHTTP(sw, r2)

	span.SetAttributes(attribute.Int("http.response.status_code", sw.status))
	if e.metrics != nil {
		e.metrics.RecordRequest(r.Method, m.prefix, sw.status, time.Since(start))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
