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
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Handler handles a routed request.
type Handler func(c *Context) (*Response, error)

// MiddlewareFunc wraps request processing. It calls c.Next to continue the
// chain; code after Next sees c.Response.
type MiddlewareFunc func(c *Context)

// Parameters holds the values captured from the request path.
type Parameters map[string]string

// Get returns the named parameter or "".
func (p Parameters) Get(name string) string { return p[name] }

// Int parses the named parameter as an integer.
func (p Parameters) Int(name string) (int, error) {
	return strconv.Atoi(p[name])
}

// Context carries one request through middleware, hooks and the route.
//
// A Context belongs to the goroutine serving its request and must not be
// retained after the request completes.
type Context struct {
	Request *Request

	// Response is set by a hook, route, convention or error handling. The
	// engine writes it after the middleware chain returns.
	Response *Response

	Parameters Parameters
	Items      map[string]any
	Trace      *TraceLog

	engine   *Engine
	writer   http.ResponseWriter
	ctx      context.Context
	logger   *slog.Logger
	span     trace.Span
	route    string
	handlers []MiddlewareFunc
	index    int
	aborted  bool
	err      error
}

// Next runs the remaining middleware. Middleware that does not call Next
// ends the chain.
func (c *Context) Next() {
	c.index++
	for c.index < len(c.handlers) {
		if c.aborted {
			return
		}
		c.handlers[c.index](c)
		c.index++
	}
}

// Abort stops the chain after the current middleware.
func (c *Context) Abort() { c.aborted = true }

// IsAborted reports whether Abort was called.
func (c *Context) IsAborted() bool { return c.aborted }

// AbortWith sets the response and stops the chain.
func (c *Context) AbortWith(r *Response) {
	c.Response = r
	c.aborted = true
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.ctx }

// SetContext replaces the request context, for example to add values.
func (c *Context) SetContext(ctx context.Context) {
	c.ctx = ctx
	c.Request.raw = c.Request.raw.WithContext(ctx)
}

// Logger returns the request logger. It is never nil.
func (c *Context) Logger() *slog.Logger { return c.logger }

// SetLogger replaces the request logger.
func (c *Context) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Writer returns the response writer. Writing to it directly bypasses the
// engine's response handling; set c.Response instead where possible.
func (c *Context) Writer() http.ResponseWriter { return c.writer }

// Route returns the template of the matched route, or "" before routing
// or when nothing matched.
func (c *Context) Route() string { return c.route }

// Span returns the request span. It is a no-op span when tracing is off.
func (c *Context) Span() trace.Span { return c.span }

// SetSpanAttribute adds an attribute to the request span.
func (c *Context) SetSpanAttribute(key, value string) {
	c.span.SetAttributes(attribute.String(key, value))
}

// Err returns the error that produced the current error response, if any.
func (c *Context) Err() error { return c.err }

// Error formats err with the engine's error formatter and makes it the
// response.
func (c *Context) Error(err error) {
	if err == nil {
		return
	}
	c.err = err
	c.Response = c.engine.errorResponse(c, err)
}

// Get returns an item stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Items[key]
	return v, ok
}

// Set stores an item for later middleware and hooks.
func (c *Context) Set(key string, value any) {
	if c.Items == nil {
		c.Items = make(map[string]any)
	}
	c.Items[key] = value
}

// View renders a view with the engine's view renderer.
func (c *Context) View(status int, name string, model any) (*Response, error) {
	return c.engine.renderView(c, status, name, model)
}
