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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Provider names an export backend.
type Provider string

const (
	NoneProvider     Provider = "none"
	StdoutProvider   Provider = "stdout"
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp-http"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithProvider selects a provider by name, as found in configuration.
func WithProvider(name, endpoint string, insecure bool) Option {
	return func(t *Tracer) {
		t.provider = Provider(strings.ToLower(name))
		t.endpoint = endpoint
		t.insecure = insecure
	}
}

// WithStdout prints spans to w, or to stdout when w is nil.
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.stdout = w
	}
}

// WithOTLP exports over gRPC to endpoint, a host:port.
func WithOTLP(endpoint string, insecure bool) Option {
	return WithProvider(string(OTLPProvider), endpoint, insecure)
}

// WithOTLPHTTP exports over HTTP to endpoint. An http:// scheme implies
// an insecure connection.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.endpoint = endpoint
	}
}

// WithSampleRate sets the fraction of new traces recorded, 0 to 1.
// Spans of sampled parents are always recorded.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = rate }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithGlobal registers the provider and the W3C propagators globally.
func WithGlobal() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithLogger sets the logger for export errors.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracer) { t.logger = l }
}

// Tracer owns a tracer provider and its exporter.
type Tracer struct {
	provider       Provider
	endpoint       string
	insecure       bool
	stdout         io.Writer
	sampleRate     float64
	serviceName    string
	serviceVersion string
	registerGlobal bool
	logger         *slog.Logger

	tp         trace.TracerProvider
	sdk        *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	closeOnce  sync.Once
}

// New creates a tracer. ctx bounds exporter setup.
func New(ctx context.Context, opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:       NoneProvider,
		sampleRate:     1,
		serviceName:    "nancy",
		serviceVersion: "dev",
		propagator:     propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}

	exporter, err := t.exporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize tracing: %w", err)
	}
	if exporter == nil {
		t.tp = noop.NewTracerProvider()
	} else {
		t.sdk = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(t.serviceName),
				semconv.ServiceVersion(t.serviceVersion),
			)),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
		)
		t.tp = t.sdk
		t.logger.Info("tracing initialized", "provider", t.provider, "endpoint", t.endpoint, "sample_rate", t.sampleRate)
	}

	if t.registerGlobal {
		otel.SetTracerProvider(t.tp)
		otel.SetTextMapPropagator(t.propagator)
	}
	return t, nil
}

func (t *Tracer) validate() error {
	var errs []error
	if t.sampleRate < 0 || t.sampleRate > 1 {
		errs = append(errs, fmt.Errorf("sample rate must be between 0 and 1, got %g", t.sampleRate))
	}
	if t.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	switch t.provider {
	case NoneProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
	default:
		errs = append(errs, fmt.Errorf("unsupported tracing provider: %q", t.provider))
	}
	return errors.Join(errs...)
}

func (t *Tracer) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch t.provider {
	case StdoutProvider:
		w := t.stdout
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())

	case OTLPProvider:
		var opts []otlptracegrpc.Option
		if t.endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(t.endpoint))
		}
		if t.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)

	case OTLPHTTPProvider:
		var opts []otlptracehttp.Option
		if t.endpoint != "" {
			host, insecure := splitEndpoint(t.endpoint)
			opts = append(opts, otlptracehttp.WithEndpoint(host))
			if insecure || t.insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return nil, nil
}

// splitEndpoint reduces a URL to host:port and reports whether it was
// plain http.
func splitEndpoint(endpoint string) (string, bool) {
	insecure := false
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = rest, true
	} else if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint = rest
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return endpoint, insecure
}

// Provider returns the configured backend.
func (t *Tracer) Provider() Provider { return t.provider }

// TracerProvider returns the provider to pass to nancy.WithTracerProvider.
func (t *Tracer) TracerProvider() trace.TracerProvider { return t.tp }

// Propagator returns the W3C trace context and baggage propagator, for
// nancy.WithPropagator.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Shutdown flushes pending spans. It is safe to call more than once.
func (t *Tracer) Shutdown(ctx context.Context) error {
	var err error
	t.closeOnce.Do(func() {
		if t.sdk != nil {
			err = t.sdk.Shutdown(ctx)
		}
	})
	return err
}
