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

package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nancyfx/nancy"
)

func appRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "site.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "views", "index.html"), []byte(`<h1>{{.Name}} {{.Version}}</h1>`), 0o644))
	return root
}

func testSettings(t *testing.T) nancy.Settings {
	t.Helper()
	s := nancy.DefaultSettings()
	s.RootPath = appRoot(t)
	s.Diagnostics.Password = "secret"
	return s
}

func newServer(t *testing.T, s nancy.Settings) *server {
	t.Helper()
	srv, err := build(context.Background(), s, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.close(context.Background()) })
	return srv
}

func fetch(t *testing.T, h http.Handler, target, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuild_Routes(t *testing.T) {
	t.Parallel()

	srv := newServer(t, testSettings(t))

	tests := []struct {
		name     string
		target   string
		accept   string
		status   int
		contains string
	}{
		{"home as html", "/", "text/html", http.StatusOK, "<h1>nancy dev</h1>"},
		{"home as json", "/", "application/json", http.StatusOK, `"name":"nancy"`},
		{"static content", "/content/site.css", "", http.StatusOK, "body{}"},
		{"metrics", "/metrics", "", http.StatusOK, "nancy_http_requests"},
		{"diagnostics login", "/_Nancy/", "", http.StatusOK, `id="login"`},
		{"liveness", "/healthz", "", http.StatusOK, "ok"},
		{"readiness", "/readyz", "", http.StatusNoContent, ""},
		{"not found", "/nope", "application/json", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fetch(t, srv.engine, tt.target, tt.accept)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestBuild_Middleware(t *testing.T) {
	t.Parallel()

	srv := newServer(t, testSettings(t))
	rec := fetch(t, srv.engine, "/content/site.css", "")

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuild_CORS(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Server.AllowedOrigins = []string{"https://app.example"}
	srv := newServer(t, s)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestBuild_MetricsDisabled(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Metrics.Enabled = false
	srv := newServer(t, s)

	assert.Nil(t, srv.recorder)
	assert.Equal(t, http.StatusNotFound, fetch(t, srv.engine, "/metrics", "application/json").Code)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Metrics.Provider = "carrier-pigeon"
	_, err := build(context.Background(), s, slog.New(slog.DiscardHandler))
	require.Error(t, err)

	s = testSettings(t)
	s.Traces.SampleRate = 2
	_, err = build(context.Background(), s, slog.New(slog.DiscardHandler))
	require.Error(t, err)

	s = testSettings(t)
	s.Diagnostics.Passphrase = "x"
	s.Diagnostics.Salt = "short"
	_, err = build(context.Background(), s, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "nancy.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  address: ":9090"
diagnostics:
  password: from-file
static:
  - request_path: assets
    extensions: [css, js]
`), 0o644))
	t.Setenv("NANCY_DIAGNOSTICS__PASSWORD", "from-env")
	t.Setenv("NANCY_DISABLE_CACHES", "true")

	s, err := loadSettings(context.Background(), file, "")
	require.NoError(t, err)

	assert.Equal(t, ":9090", s.Server.Address)
	assert.Equal(t, "from-env", s.Diagnostics.Password)
	assert.True(t, s.DisableCaches)
	assert.Equal(t, "/_Nancy", s.Diagnostics.Path)
	require.Len(t, s.Static, 1)
	assert.Equal(t, "assets", s.Static[0].RequestPath)
	assert.Equal(t, []string{"css", "js"}, s.Static[0].Extensions)

	_, err = loadSettings(context.Background(), filepath.Join(dir, "missing.yaml"), "")
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	_, err := newLogger(nancy.LoggingSettings{Level: "debug", Format: "json"})
	require.NoError(t, err)

	_, err = newLogger(nancy.LoggingSettings{Level: "loud", Format: "json"})
	require.Error(t, err)

	_, err = newLogger(nancy.LoggingSettings{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func TestPrintBanner(t *testing.T) {
	t.Parallel()

	srv := newServer(t, testSettings(t))

	var buf bytes.Buffer
	printBanner(&buf, srv.banner())
	out := buf.String()

	assert.Contains(t, out, "http://0.0.0.0:8080")
	assert.Contains(t, out, "prometheus /metrics")
	assert.Contains(t, out, "/_Nancy")
	assert.Contains(t, out, "GET")
	assert.NotContains(t, out, "\x1b[", "colors are stripped for non-terminals")
}

func TestRun_BadFlags(t *testing.T) {
	t.Parallel()

	require.Error(t, run([]string{"-no-such-flag"}))
}
