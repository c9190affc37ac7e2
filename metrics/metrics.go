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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/nancyfx/nancy/metrics"

// DefaultDurationBuckets are request duration boundaries in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Provider names an export backend.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OTLPProvider       Provider = "otlp"
	StdoutProvider     Provider = "stdout"
)

// ErrNoHandler is returned by [Recorder.Handler] for providers other than
// Prometheus.
var ErrNoHandler = errors.New("metrics handler only available with the prometheus provider")

// Recorder records framework metrics. All methods are safe for concurrent
// use.
type Recorder struct {
	meter               metric.Meter
	meterProvider       metric.MeterProvider
	sdkProvider         *sdkmetric.MeterProvider
	prometheusRegistry  *promclient.Registry
	prometheusHandler   http.Handler
	logger              *slog.Logger
	provider            Provider
	providerSetCount    int
	customMeterProvider bool
	registerGlobal      bool

	serviceName    string
	serviceVersion string
	otlpEndpoint   string
	exportInterval time.Duration

	durationBuckets []float64

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	cacheLookups    metric.Int64Counter
	authOutcomes    metric.Int64Counter

	common         metric.MeasurementOption
	isShuttingDown atomic.Bool
}

// New creates a recorder. Without options it exports to Prometheus.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		serviceName:     "nancy",
		serviceVersion:  "1.0.0",
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics configuration: %w", err)
	}
	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic("metrics.MustNew: " + err.Error())
	}
	return r
}

func (r *Recorder) validate() error {
	var errs []error
	if r.providerSetCount > 1 {
		errs = append(errs, errors.New("conflicting provider options: only one of WithPrometheus, WithOTLP, WithStdout or WithProvider can be used"))
	}
	if r.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if len(r.durationBuckets) == 0 {
		errs = append(errs, errors.New("duration buckets cannot be empty"))
	}
	if r.exportInterval <= 0 {
		errs = append(errs, fmt.Errorf("export interval must be positive, got %s", r.exportInterval))
	}
	switch r.provider {
	case PrometheusProvider, StdoutProvider:
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.logger.Warn("OTLP endpoint not specified, using default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	default:
		if !r.customMeterProvider {
			errs = append(errs, fmt.Errorf("unsupported metrics provider: %q", r.provider))
		}
	}
	return errors.Join(errs...)
}

func (r *Recorder) initializeMetrics() error {
	r.common = metric.WithAttributes(
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	)

	var err error
	if r.requestDuration, err = r.meter.Float64Histogram(
		"nancy.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("create request duration histogram: %w", err)
	}
	if r.requestCount, err = r.meter.Int64Counter(
		"nancy.http.requests",
		metric.WithDescription("Number of HTTP requests"),
	); err != nil {
		return fmt.Errorf("create request counter: %w", err)
	}
	if r.cacheLookups, err = r.meter.Int64Counter(
		"nancy.static.cache.lookups",
		metric.WithDescription("Static content cache lookups"),
	); err != nil {
		return fmt.Errorf("create cache lookup counter: %w", err)
	}
	if r.authOutcomes, err = r.meter.Int64Counter(
		"nancy.diagnostics.auth",
		metric.WithDescription("Diagnostics login and session checks"),
	); err != nil {
		return fmt.Errorf("create diagnostics counter: %w", err)
	}
	return nil
}

// RecordRequest records one completed request. route is the matched
// route template, never the raw path, so label cardinality stays bounded.
func (r *Recorder) RecordRequest(method, route string, status int, duration time.Duration) {
	if r.isShuttingDown.Load() {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	)
	r.requestDuration.Record(ctx, duration.Seconds(), r.common, attrs)
	r.requestCount.Add(ctx, 1, r.common, attrs)
}

// ObserveLookup records a static content cache lookup.
func (r *Recorder) ObserveLookup(convention string, hit bool) {
	if r.isShuttingDown.Load() {
		return
	}
	r.cacheLookups.Add(context.Background(), 1, r.common, metric.WithAttributes(
		attribute.String("convention", convention),
		attribute.Bool("hit", hit),
	))
}

// ObserveAuth records a diagnostics authentication outcome.
func (r *Recorder) ObserveAuth(outcome string) {
	if r.isShuttingDown.Load() {
		return
	}
	r.authOutcomes.Add(context.Background(), 1, r.common, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, fmt.Errorf("%w, current provider: %s", ErrNoHandler, r.provider)
	}
	return r.prometheusHandler, nil
}

// Provider returns the export backend.
func (r *Recorder) Provider() Provider { return r.provider }

// Shutdown flushes and stops the meter provider the recorder created.
// Recording after Shutdown is a no-op.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.sdkProvider == nil {
		return nil
	}
	if err := r.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	r.logger.Debug("metrics recorder shut down", "provider", r.provider)
	return nil
}
