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

// Package logging configures the structured logger used by a Nancy host.
//
// A Logger wraps a [slog.Logger] built from functional options. It writes
// JSON, key=value text or colored console output, stamps every record with
// the service name, version and environment when they are set, and redacts
// attributes whose key names a credential:
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("orders"),
//	    logging.WithDebugLevel(),
//	)
//	defer logger.Shutdown(context.Background())
//
//	engine := nancy.New(nancy.WithLogger(logger.Logger()))
//
// Framework components take a plain [*slog.Logger]; pass [Logger.Logger].
//
// # Sampling
//
// [WithSampling] bounds log volume under load. Records at error level or
// above are never sampled.
//
// # Trace correlation
//
// [NewContextLogger] adds trace_id and span_id from the active
// OpenTelemetry span in a context.
package logging
