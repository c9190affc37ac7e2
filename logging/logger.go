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
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
)

// Level is a log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redacted replaces the value of sensitive attributes.
const redacted = "***REDACTED***"

// sensitiveKeys are always redacted, whatever the handler.
var sensitiveKeys = []string{"password", "token", "secret", "api_key", "authorization", "cookie"}

// SamplingConfig bounds log volume.
//
// The first Initial records are logged, then one in every Thereafter. The
// counter restarts every Tick. Records at error level bypass sampling.
type SamplingConfig struct {
	Initial    int
	Thereafter int // 0 logs everything after Initial
	Tick       time.Duration
}

// Logger is a configured structured logger. It is safe for concurrent use.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar

	serviceName    string
	serviceVersion string
	environment    string

	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr

	sampling   *SamplingConfig
	sampler    *sampler
	sampleStop chan struct{}
	stopOnce   sync.Once

	customLogger   *slog.Logger
	useCustom      bool
	registerGlobal bool

	slogger  *slog.Logger
	shutdown atomic.Bool
}

// Option configures a Logger.
type Option func(*Logger)

// New creates a Logger. The default writes JSON at info level to stdout.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
	}
	l.level.Set(LevelInfo)

	for _, opt := range opts {
		opt(l)
	}

	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	if err := l.build(); err != nil {
		return nil, err
	}
	return l, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}
	return l
}

func (l *Logger) validate() error {
	if l.output == nil {
		return ErrNilOutput
	}
	if l.useCustom && l.customLogger == nil {
		return ErrNilLogger
	}
	if l.sampling != nil && (l.sampling.Initial < 0 || l.sampling.Thereafter < 0) {
		return ErrInvalidSampling
	}
	return nil
}

func (l *Logger) build() error {
	var inner slog.Handler

	if l.useCustom {
		inner = l.customLogger.Handler()
	} else {
		opts := &slog.HandlerOptions{
			Level:       &l.level,
			AddSource:   l.addSource,
			ReplaceAttr: l.redact,
		}
		switch l.handlerType {
		case JSONHandler:
			inner = slog.NewJSONHandler(l.output, opts)
		case TextHandler:
			inner = slog.NewTextHandler(l.output, opts)
		case ConsoleHandler:
			inner = newConsoleHandler(l.output, opts)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
		}
	}

	if l.sampling != nil {
		l.sampler = &sampler{cfg: *l.sampling}
		if l.sampling.Tick > 0 {
			l.sampleStop = make(chan struct{})
			go l.sampler.resetEvery(l.sampling.Tick, l.sampleStop)
		}
	}

	logger := slog.New(&gateHandler{inner: inner, shutdown: &l.shutdown, sampler: l.sampler})

	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}

	l.slogger = logger
	if l.registerGlobal {
		slog.SetDefault(logger)
	}
	return nil
}

// redact hides credential values before the user replacer sees them.
func (l *Logger) redact(groups []string, a slog.Attr) slog.Attr {
	if slices.Contains(sensitiveKeys, strings.ToLower(a.Key)) {
		a = slog.String(a.Key, redacted)
	}
	if l.replaceAttr != nil {
		return l.replaceAttr(groups, a)
	}
	return a
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger { return l.slogger }

// With returns a [slog.Logger] with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger { return l.slogger.With(args...) }

// WithGroup returns a [slog.Logger] that qualifies attributes with name.
func (l *Logger) WithGroup(name string) *slog.Logger { return l.slogger.WithGroup(name) }

func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

// LogError logs err at error level under the "error" key.
func (l *Logger) LogError(err error, msg string, extra ...any) {
	if err == nil {
		return
	}
	l.slogger.Error(msg, append([]any{"error", err.Error()}, extra...)...)
}

// LogDuration logs msg at info level with the time elapsed since start.
func (l *Logger) LogDuration(msg string, start time.Time, extra ...any) {
	d := time.Since(start)
	l.slogger.Info(msg, append([]any{"duration_ms", d.Milliseconds(), "duration", d.String()}, extra...)...)
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) error {
	if l.useCustom {
		return ErrCannotChangeLevel
	}
	l.level.Set(level)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() Level { return l.level.Level() }

func (l *Logger) ServiceName() string    { return l.serviceName }
func (l *Logger) ServiceVersion() string { return l.serviceVersion }
func (l *Logger) Environment() string    { return l.environment }

// IsEnabled reports whether the logger still writes records.
func (l *Logger) IsEnabled() bool { return !l.shutdown.Load() }

// Shutdown stops the logger. Later records are dropped.
func (l *Logger) Shutdown(_ context.Context) error {
	l.shutdown.Store(true)
	l.stopOnce.Do(func() {
		if l.sampleStop != nil {
			close(l.sampleStop)
		}
	})
	return nil
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// ParseHandlerType parses "json", "text" or "console".
func ParseHandlerType(s string) (HandlerType, error) {
	switch t := HandlerType(strings.ToLower(strings.TrimSpace(s))); t {
	case JSONHandler, TextHandler, ConsoleHandler:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidHandler, s)
	}
}

// sampler counts records and decides which are written.
type sampler struct {
	cfg   SamplingConfig
	count atomic.Int64
}

func (s *sampler) allow(level slog.Level) bool {
	if level >= slog.LevelError {
		return true
	}
	n := s.count.Add(1)
	if n <= int64(s.cfg.Initial) || s.cfg.Thereafter == 0 {
		return true
	}
	return (n-int64(s.cfg.Initial))%int64(s.cfg.Thereafter) == 0
}

func (s *sampler) resetEvery(d time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.count.Store(0)
		case <-stop:
			return
		}
	}
}

// gateHandler drops records after shutdown and applies sampling. It sits
// in front of the format handler so that loggers derived with With or
// WithGroup share the same state.
type gateHandler struct {
	inner    slog.Handler
	shutdown *atomic.Bool
	sampler  *sampler
}

func (h *gateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return !h.shutdown.Load() && h.inner.Enabled(ctx, level)
}

func (h *gateHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.shutdown.Load() {
		return nil
	}
	if h.sampler != nil && !h.sampler.allow(r.Level) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *gateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &gateHandler{inner: h.inner.WithAttrs(attrs), shutdown: h.shutdown, sampler: h.sampler}
}

func (h *gateHandler) WithGroup(name string) slog.Handler {
	return &gateHandler{inner: h.inner.WithGroup(name), shutdown: h.shutdown, sampler: h.sampler}
}
