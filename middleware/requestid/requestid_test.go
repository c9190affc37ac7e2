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

package requestid

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nancyfx/nancy"
)

func echo(mw nancy.MiddlewareFunc, opts ...nancy.Option) *nancy.Engine {
	e := nancy.MustNew(opts...)
	e.Use(mw)
	e.MustRegister(nancy.NewModule("/").Get("/", func(c *nancy.Context) (*nancy.Response, error) {
		c.Logger().Info("handled")
		return nancy.Text(http.StatusOK, Get(c)), nil
	}))
	return e
}

func serve(h http.Handler, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []Option
		header http.Header
		check  func(t *testing.T, id string)
	}{
		{
			name: "generates uuid v7",
			check: func(t *testing.T, id string) {
				u, err := uuid.Parse(id)
				require.NoError(t, err)
				assert.Equal(t, uuid.Version(7), u.Version())
			},
		},
		{
			name: "generates ulid",
			opts: []Option{WithULID()},
			check: func(t *testing.T, id string) {
				_, err := ulid.ParseStrict(id)
				assert.NoError(t, err)
			},
		},
		{
			name:   "reuses client id",
			header: http.Header{"X-Request-Id": {"client-123"}},
			check:  func(t *testing.T, id string) { assert.Equal(t, "client-123", id) },
		},
		{
			name:   "ignores client id when disallowed",
			opts:   []Option{WithAllowClientID(false)},
			header: http.Header{"X-Request-Id": {"client-123"}},
			check:  func(t *testing.T, id string) { assert.NotEqual(t, "client-123", id) },
		},
		{
			name:   "rejects oversized client id",
			header: http.Header{"X-Request-Id": {strings.Repeat("a", 200)}},
			check:  func(t *testing.T, id string) { assert.Len(t, id, 36) },
		},
		{
			name:   "custom header and generator",
			opts:   []Option{WithHeader("X-Trace"), WithGenerator(func() string { return "fixed" })},
			header: http.Header{"X-Request-Id": {"ignored"}},
			check:  func(t *testing.T, id string) { assert.Equal(t, "fixed", id) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := New(tt.opts...)
			rec := serve(echo(mw), tt.header)
			require.Equal(t, http.StatusOK, rec.Code)

			id := rec.Body.String()
			tt.check(t, id)

			header := DefaultHeader
			if strings.HasPrefix(tt.name, "custom") {
				header = "X-Trace"
			}
			assert.Equal(t, id, rec.Header().Get(header))
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	t.Parallel()

	e := echo(New(WithULID()))
	seen := make(map[string]bool)
	for range 100 {
		id := serve(e, nil).Body.String()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRequestID_Logger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo(New(WithGenerator(func() string { return "req-42" })),
		nancy.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	serve(e, nil)
	assert.Contains(t, buf.String(), "request_id=req-42")
}
