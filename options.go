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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	nerrors "github.com/nancyfx/nancy/errors"
	"github.com/nancyfx/nancy/routing"
)

const tracerName = "github.com/nancyfx/nancy"

// Option configures an [Engine].
type Option func(*Engine)

// New creates an engine. Without options it uses [DefaultSettings], a
// discarding logger, the global OpenTelemetry tracer provider and the
// negotiating error formatter.
//
//	e := nancy.MustNew(nancy.WithLogger(logger.Logger()))
//	e.MustRegister(orders.Module())
//	http.ListenAndServe(":8080", e)
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		settings:   DefaultSettings(),
		processors: DefaultProcessors(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.formatter == nil {
		e.formatter = nerrors.Default(!e.settings.DisableErrorTraces)
	}
	if e.matcher == nil {
		e.matcher = routing.NewMatcher(routing.WithLogger(e.logger))
	}
	e.table = routing.NewTable[*route](e.matcher)

	if err := e.validate(); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}
	return e, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("nancy.MustNew: %v", err))
	}
	return e
}

func (e *Engine) validate() error {
	var errs []error
	if len(e.processors) == 0 {
		errs = append(errs, errors.New("at least one response processor is required"))
	}
	s := e.settings.Server
	if s.ReadHeaderTimeout < 0 || s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		errs = append(errs, errors.New("server timeouts cannot be negative"))
	}
	return errors.Join(errs...)
}

// WithSettings replaces the engine settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithLogger sets the engine logger. Request loggers derive from it.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracerProvider sets the provider for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp == nil {
			tp = noop.NewTracerProvider()
		}
		e.tracer = tp.Tracer(tracerName)
	}
}

// WithPropagator extracts the caller's trace context from request headers
// so request spans join it. Without it every request starts a new trace.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(e *Engine) { e.propagator = p }
}

// WithMetrics sets the request metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithFormatter sets the error formatter.
func WithFormatter(f nerrors.Formatter) Option {
	return func(e *Engine) { e.formatter = f }
}

// WithViews sets the view renderer used by [Context.View] and HTML
// negotiation.
func WithViews(v ViewRenderer) Option {
	return func(e *Engine) { e.views = v }
}

// WithProcessors replaces the response processors used by
// [Context.Negotiate]. Order breaks ties between processors matching the
// same Accept entry.
func WithProcessors(p ...ResponseProcessor) Option {
	return func(e *Engine) { e.processors = p }
}

// WithMatcher shares a route matcher, and its compiled template cache,
// with the engine.
func WithMatcher(m *routing.Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

// WithH2C enables HTTP/2 cleartext in [Engine.Serve]. Only use it in
// development or behind a trusted load balancer.
func WithH2C(enable bool) Option {
	return func(e *Engine) { e.settings.Server.H2C = enable }
}

// WithServerTimeouts sets the timeouts of the server started by
// [Engine.Serve].
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(e *Engine) {
		e.settings.Server.ReadHeaderTimeout = readHeader
		e.settings.Server.ReadTimeout = read
		e.settings.Server.WriteTimeout = write
		e.settings.Server.IdleTimeout = idle
	}
}

// WithTracing enables per-request trace logs.
func WithTracing(enable bool) Option {
	return func(e *Engine) { e.settings.Tracing = enable }
}
