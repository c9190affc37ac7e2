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

// Package metrics records request, static content cache and diagnostics
// login metrics with OpenTelemetry.
//
// A [Recorder] implements nancy.MetricsRecorder, conventions.CacheObserver
// and diagnostics.AuthObserver. It exports through one of three providers:
//
//   - [PrometheusProvider] (default) keeps a private Prometheus registry
//     served by [Recorder.Handler].
//   - [OTLPProvider] pushes to an OTLP/HTTP collector.
//   - [StdoutProvider] prints to standard output, for development.
//
// Basic usage:
//
//	rec := metrics.MustNew(metrics.WithServiceName("orders"))
//	defer rec.Shutdown(context.Background())
//
//	engine := nancy.MustNew(nancy.WithMetrics(rec))
//	h, _ := rec.Handler()
//	engine.Mount("/metrics", h)
//
// The global OpenTelemetry meter provider is left alone unless
// [WithGlobalMeterProvider] is given.
package metrics
