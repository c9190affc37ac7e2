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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithMeterProvider uses a caller managed meter provider. Provider options
// are ignored and [Recorder.Shutdown] leaves the provider running.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the meter provider with otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) { r.registerGlobal = true }
}

// WithServiceName sets the service.name attribute.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceVersion sets the service.version attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithPrometheus exports to a private Prometheus registry.
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
	}
}

// WithOTLP pushes to an OTLP/HTTP collector at endpoint, for example
// "http://localhost:4318".
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout prints metrics to standard output.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithProvider selects a provider by name, as found in configuration.
func WithProvider(name string, otlpEndpoint string) Option {
	return func(r *Recorder) {
		r.provider = Provider(name)
		r.otlpEndpoint = otlpEndpoint
		r.providerSetCount++
	}
}

// WithExportInterval sets the push interval of the OTLP and stdout
// providers.
func WithExportInterval(d time.Duration) Option {
	return func(r *Recorder) { r.exportInterval = d }
}

// WithDurationBuckets sets the request duration histogram boundaries, in
// seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) { r.durationBuckets = buckets }
}

// WithLogger sets the logger for recorder lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}
