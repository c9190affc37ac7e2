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

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// ContextLogger logs with the trace and span IDs of the span active in a
// context. A request handler typically creates one per request.
type ContextLogger struct {
	logger  *slog.Logger
	ctx     context.Context
	traceID string
	spanID  string
}

// NewContextLogger wraps logger for ctx. A nil logger uses [slog.Default].
func NewContextLogger(ctx context.Context, logger *slog.Logger) *ContextLogger {
	if logger == nil {
		logger = slog.Default()
	}
	cl := &ContextLogger{logger: logger, ctx: ctx}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		cl.traceID = sc.TraceID().String()
		cl.spanID = sc.SpanID().String()
		cl.logger = logger.With(fieldTraceID, cl.traceID, fieldSpanID, cl.spanID)
	}
	return cl
}

// Logger returns the correlated [slog.Logger].
func (cl *ContextLogger) Logger() *slog.Logger { return cl.logger }

// TraceID returns the trace ID, or "" when no span is active.
func (cl *ContextLogger) TraceID() string { return cl.traceID }

// SpanID returns the span ID, or "" when no span is active.
func (cl *ContextLogger) SpanID() string { return cl.spanID }

func (cl *ContextLogger) Debug(msg string, args ...any) { cl.logger.DebugContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Info(msg string, args ...any)  { cl.logger.InfoContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Warn(msg string, args ...any)  { cl.logger.WarnContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Error(msg string, args ...any) { cl.logger.ErrorContext(cl.ctx, msg, args...) }

// Discard returns a logger that writes nothing.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
