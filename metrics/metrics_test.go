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

package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func manualRecorder(t *testing.T, opts ...Option) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	r, err := New(append([]Option{WithMeterProvider(mp)}, opts...)...)
	require.NoError(t, err)
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumBy(t *testing.T, data metricdata.Aggregation, key attribute.Key, value attribute.Value) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(key); ok && v == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecorder_RecordRequest(t *testing.T) {
	t.Parallel()

	r, reader := manualRecorder(t, WithServiceName("orders"))
	r.RecordRequest(http.MethodGet, "/orders/{id}", http.StatusOK, 20*time.Millisecond)
	r.RecordRequest(http.MethodGet, "/orders/{id}", http.StatusOK, 40*time.Millisecond)
	r.RecordRequest(http.MethodPost, "/orders", http.StatusCreated, time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumBy(t, data["nancy.http.requests"], "http.route", attribute.StringValue("/orders/{id}")))
	assert.Equal(t, int64(1), sumBy(t, data["nancy.http.requests"], "http.response.status_code", attribute.StringValue("201")))
	assert.Equal(t, int64(3), sumBy(t, data["nancy.http.requests"], "service.name", attribute.StringValue("orders")))

	hist, ok := data["nancy.http.request.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		assert.Equal(t, DefaultDurationBuckets, dp.Bounds)
	}
	assert.Equal(t, uint64(3), count)
}

func TestRecorder_Observers(t *testing.T) {
	t.Parallel()

	r, reader := manualRecorder(t)
	r.ObserveLookup("directory:/assets", false)
	r.ObserveLookup("directory:/assets", true)
	r.ObserveLookup("directory:/assets", true)
	r.ObserveAuth("login_failed")
	r.ObserveAuth("login_succeeded")

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumBy(t, data["nancy.static.cache.lookups"], "hit", attribute.BoolValue(true)))
	assert.Equal(t, int64(1), sumBy(t, data["nancy.static.cache.lookups"], "hit", attribute.BoolValue(false)))
	assert.Equal(t, int64(1), sumBy(t, data["nancy.diagnostics.auth"], "outcome", attribute.StringValue("login_failed")))
}

func TestRecorder_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{"conflicting providers", []Option{WithPrometheus(), WithStdout()}, "conflicting provider options"},
		{"empty service name", []Option{WithServiceName("")}, "service name cannot be empty"},
		{"unknown provider", []Option{WithProvider("statsd", "")}, "unsupported metrics provider"},
		{"no buckets", []Option{WithDurationBuckets()}, "duration buckets cannot be empty"},
		{"bad interval", []Option{WithExportInterval(0)}, "export interval must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Panics(t, func() { MustNew(WithServiceName("")) })
}

func TestRecorder_PrometheusHandler(t *testing.T) {
	t.Parallel()

	r := MustNew()
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })
	assert.Equal(t, PrometheusProvider, r.Provider())

	r.RecordRequest(http.MethodGet, "/things", http.StatusOK, 5*time.Millisecond)
	r.ObserveAuth("session_valid")

	h, err := r.Handler()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "nancy_http_requests")
	assert.Contains(t, string(body), "nancy_http_request_duration")
	assert.Contains(t, string(body), `http_route="/things"`)
	assert.Contains(t, string(body), `outcome="session_valid"`)
}

func TestRecorder_StdoutHasNoHandler(t *testing.T) {
	t.Parallel()

	r := MustNew(WithStdout(), WithExportInterval(time.Hour))
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	_, err := r.Handler()
	require.ErrorIs(t, err, ErrNoHandler)
	assert.Equal(t, StdoutProvider, r.Provider())
}

func TestRecorder_Shutdown(t *testing.T) {
	t.Parallel()

	r, reader := manualRecorder(t)
	require.NoError(t, r.Shutdown(context.Background()))
	require.NoError(t, r.Shutdown(context.Background()))

	r.RecordRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	data := collect(t, reader)
	if agg, ok := data["nancy.http.requests"]; ok {
		assert.Empty(t, agg.(metricdata.Sum[int64]).DataPoints)
	}
}
