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

// Package tracing builds the OpenTelemetry tracer provider that request
// spans are exported through.
//
// Providers:
//
//   - [NoneProvider] (default) records nothing.
//   - [StdoutProvider] prints spans, for development.
//   - [OTLPProvider] exports over OTLP/gRPC.
//   - [OTLPHTTPProvider] exports over OTLP/HTTP.
//
// A Tracer plugs into the engine with nancy.WithTracerProvider. Passing its
// propagator as well makes request spans continue traces started by
// upstream services:
//
//	t, err := tracing.New(ctx, tracing.WithOTLP("collector:4317", true))
//	e := nancy.MustNew(
//		nancy.WithTracerProvider(t.TracerProvider()),
//		nancy.WithPropagator(t.Propagator()),
//	)
package tracing
