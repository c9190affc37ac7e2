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

// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/term"

	"github.com/nancyfx/nancy"
)

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	handler     func(c *nancy.Context, err *PanicError) *nancy.Response
	stackTrace  bool
	stackSize   int
	prettyStack *bool
}

// WithLogger sets the logger. The request logger is used by default.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithoutLogging disables panic logging.
func WithoutLogging() Option {
	return func(cfg *config) { cfg.logger = slog.New(slog.DiscardHandler) }
}

// WithHandler builds the response for a panic. Returning nil falls back
// to the engine's error formatter.
func WithHandler(h func(c *nancy.Context, err *PanicError) *nancy.Response) Option {
	return func(cfg *config) { cfg.handler = h }
}

// WithStackTrace enables stack capture. Default true.
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) { cfg.stackTrace = enabled }
}

// WithStackSize caps the logged stack, in bytes. Default 4KB.
func WithStackSize(n int) Option {
	return func(cfg *config) { cfg.stackSize = n }
}

// WithPrettyStack forces or suppresses printing the stack to stderr
// instead of logging it. By default the stack is printed when stderr is a
// terminal.
func WithPrettyStack(enabled bool) Option {
	return func(cfg *config) { cfg.prettyStack = &enabled }
}

// New returns the recovery middleware. Register it first so it covers
// every later middleware.
//
//	e.Use(recovery.New(recovery.WithStackSize(8 << 10)))
func New(opts ...Option) nancy.MiddlewareFunc {
	cfg := &config{stackTrace: true, stackSize: 4 << 10}
	for _, opt := range opts {
		opt(cfg)
	}
	pretty := term.IsTerminal(int(os.Stderr.Fd()))
	if cfg.prettyStack != nil {
		pretty = *cfg.prettyStack
	}

	return func(c *nancy.Context) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			perr := &PanicError{Value: v}
			if cfg.stackTrace {
				perr.Stack = debug.Stack()
			}
			report(c, cfg, perr, pretty)

			if cfg.handler != nil {
				if resp := cfg.handler(c, perr); resp != nil {
					c.AbortWith(resp)
					return
				}
			}
			c.Error(perr)
			c.Abort()
		}()
		c.Next()
	}
}

func report(c *nancy.Context, cfg *config, perr *PanicError, pretty bool) {
	span := c.Span()
	span.RecordError(perr)
	span.SetStatus(codes.Error, "panic")

	logger := cfg.logger
	if logger == nil {
		logger = c.Logger()
	}
	attrs := []any{"panic", fmt.Sprint(perr.Value), "method", c.Request.Method, "path", c.Request.Path}
	if len(perr.Stack) > 0 {
		stack := perr.Stack
		if cfg.stackSize > 0 && len(stack) > cfg.stackSize {
			stack = stack[:cfg.stackSize]
		}
		if pretty {
			fmt.Fprintf(os.Stderr, "panic: %v\n\n%s\n", perr.Value, stack)
		} else {
			attrs = append(attrs, "stack", string(stack))
		}
	}
	logger.Error("panic recovered", attrs...)
}
