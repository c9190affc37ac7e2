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

//go:build !integration

package tracing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/nancyfx/nancy"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{"defaults", nil, ""},
		{"unknown provider", []Option{WithProvider("zipkin", "", false)}, "unsupported tracing provider"},
		{"sample rate too high", []Option{WithSampleRate(1.5)}, "sample rate"},
		{"negative sample rate", []Option{WithSampleRate(-0.1)}, "sample rate"},
		{"empty service name", []Option{WithServiceName("")}, "service name"},
		{"provider name is case insensitive", []Option{WithProvider("NONE", "", false)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := New(context.Background(), tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, tr.Shutdown(context.Background()))
		})
	}
}

func TestNone(t *testing.T) {
	t.Parallel()

	tr, err := New(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoneProvider, tr.Provider())

	_, span := tr.TracerProvider().Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestStdout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr, err := New(context.Background(), WithStdout(&buf), WithServiceName("orders"))
	require.NoError(t, err)

	_, span := tr.TracerProvider().Tracer("test").Start(context.Background(), "GET /orders")
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "GET /orders")
	assert.Contains(t, buf.String(), "orders")
}

func TestSampleRateZero(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr, err := New(context.Background(), WithStdout(&buf), WithSampleRate(0))
	require.NoError(t, err)

	_, span := tr.TracerProvider().Tracer("test").Start(context.Background(), "dropped")
	assert.False(t, span.IsRecording())
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))
	assert.NotContains(t, buf.String(), "dropped")
}

func TestOTLPHTTP(t *testing.T) {
	t.Parallel()

	tr, err := New(context.Background(), WithOTLPHTTP("http://localhost:4318/v1/traces"))
	require.NoError(t, err)
	assert.Equal(t, OTLPHTTPProvider, tr.Provider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = tr.Shutdown(ctx)
}

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		host     string
		insecure bool
	}{
		{"http://collector:4318/v1/traces", "collector:4318", true},
		{"https://collector:4318", "collector:4318", false},
		{"collector:4318", "collector:4318", false},
	}
	for _, tt := range tests {
		host, insecure := splitEndpoint(tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.insecure, insecure, tt.in)
	}
}

func TestPropagator_JoinsIncomingTrace(t *testing.T) {
	t.Parallel()

	tr, err := New(context.Background())
	require.NoError(t, err)

	exp := tracetest.NewInMemoryExporter()
	e := nancy.MustNew(
		nancy.WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))),
		nancy.WithPropagator(tr.Propagator()),
	)
	e.MustRegister(nancy.NewModule("/").Get("/", func(*nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, "ok"), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	e.ServeHTTP(httptest.NewRecorder(), req)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	want, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	assert.Equal(t, want, spans[0].SpanContext.TraceID())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}
