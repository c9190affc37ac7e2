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

package nancy_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nancyfx/nancy"
	"github.com/nancyfx/nancy/routing"
)

func text(body string) nancy.Handler {
	return func(*nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, body), nil
	}
}

func serve(e http.Handler, method, target string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEngine_Routing(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()
	m := nancy.NewModule("/orders")
	m.Get("/", text("list"))
	m.Get("/recent", text("recent"))
	m.Get("/{id}", func(c *nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, "order "+c.Parameters.Get("id")), nil
	})
	m.Get(`/(?<year>\d{4})/archive`, func(c *nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, "archive "+c.Parameters.Get("year")), nil
	})
	m.Put("/{id}", text("updated"))
	require.NoError(t, e.Register(m))

	tests := []struct {
		name   string
		method string
		target string
		status int
		body   string
	}{
		{"module root", http.MethodGet, "/orders", http.StatusOK, "list"},
		{"trailing slash", http.MethodGet, "/orders/", http.StatusOK, "list"},
		{"literal wins over placeholder", http.MethodGet, "/orders/recent", http.StatusOK, "recent"},
		{"case insensitive", http.MethodGet, "/ORDERS/Recent", http.StatusOK, "recent"},
		{"placeholder", http.MethodGet, "/orders/42", http.StatusOK, "order 42"},
		{"greedy placeholder", http.MethodGet, "/orders/42/lines", http.StatusOK, "order 42/lines"},
		{"parameters are not decoded", http.MethodGet, "/orders/a%20b", http.StatusOK, "order a%20b"},
		{"put", http.MethodPut, "/orders/42", http.StatusOK, "updated"},
		{"head has no body", http.MethodHead, "/orders/42", http.StatusOK, ""},
		{"not found", http.MethodGet, "/customers", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(e, tt.method, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" || tt.method == http.MethodHead {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestEngine_RawRegexRoute(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()
	m := nancy.NewModule("")
	m.Get(`/(?<foo>foo)/(?<bar>\d{4})/`, func(c *nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, c.Parameters.Get("foo")+":"+c.Parameters.Get("bar")), nil
	})
	require.NoError(t, e.Register(m))

	rec := serve(e, http.MethodGet, "/foo/1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "foo:1234", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/foo/12").Code)
}

func TestEngine_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()
	m := nancy.NewModule("/items")
	m.Get("/", text("list"))
	m.Delete("/", text("gone"))
	require.NoError(t, e.Register(m))

	rec := serve(e, http.MethodPost, "/items")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "DELETE, GET, HEAD", rec.Header().Get("Allow"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.InDelta(t, 405, problem["status"], 0)
	assert.Equal(t, "method_not_allowed", problem["code"])
}

func TestEngine_NotFoundFormats(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()

	rec := serve(e, http.MethodGet, "/missing", "Accept", "text/html")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = serve(e, http.MethodGet, "/missing", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/missing", problem["instance"])
}

func TestEngine_RegisterErrors(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()

	assert.ErrorIs(t, e.Register(nil), nancy.ErrNilModule)
	assert.ErrorIs(t, e.Register(nancy.NewModule("/").Get("/x", nil)), nancy.ErrNilHandler)
	assert.ErrorIs(t, e.Register(nancy.NewModule("/").Get(`/(?<bad`, text("x"))), routing.ErrInvalidTemplate)

	e.Freeze()
	assert.ErrorIs(t, e.Register(nancy.NewModule("/").Get("/late", text("x"))), nancy.ErrEngineFrozen)
	assert.ErrorIs(t, e.Mount("/late", http.NotFoundHandler()), nancy.ErrEngineFrozen)
	assert.Panics(t, func() { e.Use(func(c *nancy.Context) { c.Next() }) })
	assert.Panics(t, func() { e.Before(func(*nancy.Context) *nancy.Response { return nil }) })
}

func TestEngine_PipelineOrder(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		steps []string
	)
	record := func(s string) {
		mu.Lock()
		steps = append(steps, s)
		mu.Unlock()
	}

	e := nancy.MustNew()
	e.Use(func(c *nancy.Context) {
		record("middleware:before")
		c.Next()
		record("middleware:after")
	})
	e.Before(func(*nancy.Context) *nancy.Response { record("before"); return nil })
	e.After(func(*nancy.Context) { record("after") })

	m := nancy.NewModule("/")
	m.Before(func(*nancy.Context) *nancy.Response { record("module:before"); return nil })
	m.After(func(*nancy.Context) { record("module:after") })
	m.Get("/", func(*nancy.Context) (*nancy.Response, error) {
		record("route")
		return nancy.Text(http.StatusOK, "ok"), nil
	})
	require.NoError(t, e.Register(m))

	rec := serve(e, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{
		"middleware:before", "before", "module:before", "route", "module:after", "after", "middleware:after",
	}, steps)
}

func TestEngine_BeforeHookShortCircuits(t *testing.T) {
	t.Parallel()

	called := false
	e := nancy.MustNew()
	e.Before(func(c *nancy.Context) *nancy.Response {
		if c.Request.Headers.Authorization() == "" {
			return nancy.Text(http.StatusUnauthorized, "login first")
		}
		return nil
	})
	e.After(func(c *nancy.Context) {
		c.Response.WithHeader("X-After", "yes")
	})
	require.NoError(t, e.Register(nancy.NewModule("/").Get("/secret", func(*nancy.Context) (*nancy.Response, error) {
		called = true
		return nancy.Text(http.StatusOK, "secret"), nil
	})))

	rec := serve(e, http.MethodGet, "/secret")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "login first", rec.Body.String())
	assert.Equal(t, "yes", rec.Header().Get("X-After"))
	assert.False(t, called)

	rec = serve(e, http.MethodGet, "/secret", "Authorization", "Bearer x")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestEngine_ModuleHooksAreScoped(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()
	admin := nancy.NewModule("/admin").
		Before(func(*nancy.Context) *nancy.Response { return nancy.Text(http.StatusForbidden, "no") }).
		Get("/", text("admin"))
	public := nancy.NewModule("/public").Get("/", text("public"))
	require.NoError(t, e.Register(admin, public))

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/public").Code)
}

func TestEngine_HandlerErrors(t *testing.T) {
	t.Parallel()

	errTeapot := errors.New("short and stout")

	e := nancy.MustNew()
	e.OnError(func(c *nancy.Context, err error) *nancy.Response {
		if errors.Is(err, errTeapot) {
			return nancy.Text(http.StatusTeapot, "teapot")
		}
		return nil
	})
	m := nancy.NewModule("/")
	m.Get("/teapot", func(*nancy.Context) (*nancy.Response, error) { return nil, errTeapot })
	m.Get("/missing", func(*nancy.Context) (*nancy.Response, error) {
		return nil, nancy.NewHTTPError(http.StatusNotFound, "order not found")
	})
	m.Get("/boom", func(*nancy.Context) (*nancy.Response, error) {
		return nil, errors.New("database password is hunter2")
	})
	m.Get("/empty", func(*nancy.Context) (*nancy.Response, error) { return nil, nil })
	require.NoError(t, e.Register(m))

	rec := serve(e, http.MethodGet, "/teapot")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = serve(e, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "order not found")

	rec = serve(e, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")

	rec = serve(e, http.MethodGet, "/empty")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestEngine_ErrorTracesShownWhenEnabled(t *testing.T) {
	t.Parallel()

	s := nancy.DefaultSettings()
	s.DisableErrorTraces = false
	e := nancy.MustNew(nancy.WithSettings(s))
	require.NoError(t, e.Register(nancy.NewModule("/").Get("/boom", func(*nancy.Context) (*nancy.Response, error) {
		return nil, errors.New("disk on fire")
	})))

	rec := serve(e, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk on fire")
}

func TestEngine_StaticConventions(t *testing.T) {
	t.Parallel()

	var roots []string
	e := nancy.MustNew()
	e.AddStaticConvention(func(c *nancy.Context, root string) *nancy.Response {
		roots = append(roots, root)
		if strings.HasPrefix(c.Request.Path, "/assets/") {
			return nancy.Text(http.StatusOK, "asset "+strings.TrimPrefix(c.Request.Path, "/assets/"))
		}
		return nil
	})
	require.NoError(t, e.Register(nancy.NewModule("/").Get("/assets/override.css", text("route"))))

	assert.Equal(t, "route", serve(e, http.MethodGet, "/assets/override.css").Body.String())
	assert.Equal(t, "asset site.css", serve(e, http.MethodGet, "/assets/site.css").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/other").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodPost, "/assets/site.css").Code)
	assert.Equal(t, []string{".", "."}, roots)
}

func TestEngine_ConditionalGet(t *testing.T) {
	t.Parallel()

	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := nancy.MustNew()
	m := nancy.NewModule("/")
	m.Get("/etag", func(*nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, "tagged").WithETag("v1"), nil
	})
	m.Get("/dated", func(*nancy.Context) (*nancy.Response, error) {
		return nancy.Text(http.StatusOK, "dated").WithLastModified(modified), nil
	})
	require.NoError(t, e.Register(m))

	tests := []struct {
		name   string
		target string
		header []string
		status int
	}{
		{"etag match", "/etag", []string{"If-None-Match", `"v1"`}, http.StatusNotModified},
		{"weak etag match", "/etag", []string{"If-None-Match", `W/"v1"`}, http.StatusNotModified},
		{"etag list", "/etag", []string{"If-None-Match", `"v0", "v1"`}, http.StatusNotModified},
		{"etag wildcard", "/etag", []string{"If-None-Match", "*"}, http.StatusNotModified},
		{"etag mismatch", "/etag", []string{"If-None-Match", `"v2"`}, http.StatusOK},
		{"no validators", "/etag", nil, http.StatusOK},
		{"not modified since", "/dated", []string{"If-Modified-Since", modified.Format(http.TimeFormat)}, http.StatusNotModified},
		{"modified since", "/dated", []string{"If-Modified-Since", modified.Add(-time.Hour).Format(http.TimeFormat)}, http.StatusOK},
		{"malformed date ignored", "/dated", []string{"If-Modified-Since", "yesterday"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(e, http.MethodGet, tt.target, tt.header...)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNotModified {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestEngine_Mount(t *testing.T) {
	t.Parallel()

	var seen string
	e := nancy.MustNew()
	e.Use(func(c *nancy.Context) {
		c.AbortWith(nancy.Text(http.StatusTeapot, "middleware"))
	})
	require.NoError(t, e.Mount("/_Nancy", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	})))
	assert.ErrorIs(t, e.Mount("/", http.NotFoundHandler()), nancy.ErrInvalidMount)

	rec := serve(e, http.MethodGet, "/_nancy/info")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/info", seen)

	rec = serve(e, http.MethodGet, "/_Nancy")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/", seen)

	rec = serve(e, http.MethodGet, "/_NancyOther")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestEngine_MiddlewareAbort(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()
	e.Use(func(c *nancy.Context) {
		if c.Request.Query.Get("block") != "" {
			c.AbortWith(nancy.Text(http.StatusForbidden, "blocked"))
			return
		}
		c.Set("user", "ada")
		c.Next()
	})
	require.NoError(t, e.Register(nancy.NewModule("/").Get("/", func(c *nancy.Context) (*nancy.Response, error) {
		v, _ := c.Get("user")
		return nancy.Text(http.StatusOK, v.(string)), nil
	})))

	assert.Equal(t, "ada", serve(e, http.MethodGet, "/").Body.String())
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/?block=1").Code)
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeRecorder) RecordRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{method, route, status})
}

func TestEngine_MetricsAndSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	rec := &fakeRecorder{}

	e := nancy.MustNew(nancy.WithTracerProvider(tp), nancy.WithMetrics(rec))
	require.NoError(t, e.Register(nancy.NewModule("/orders").Get("/{id}", text("order"))))
	require.NoError(t, e.Mount("/ops", http.NotFoundHandler()))

	serve(e, http.MethodGet, "/orders/7")
	serve(e, http.MethodGet, "/nowhere")
	serve(e, http.MethodGet, "/ops/x")

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/orders/{id}", http.StatusOK},
		{http.MethodGet, "_unmatched", http.StatusNotFound},
		{http.MethodGet, "/ops", http.StatusNotFound},
	}, rec.seen)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "GET /orders/{id}", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("http.route", "/orders/{id}"))
	assert.Contains(t, spans[0].Attributes, attribute.Int("http.response.status_code", http.StatusOK))
}

func TestEngine_TraceLog(t *testing.T) {
	t.Parallel()

	var lines []string
	e := nancy.MustNew(nancy.WithTracing(true))
	e.After(func(c *nancy.Context) { lines = c.Trace.Lines() })
	require.NoError(t, e.Register(nancy.NewModule("/").Get("/{name}", text("hi"))))

	serve(e, http.MethodGet, "/ada")
	require.NotEmpty(t, lines)
	assert.Equal(t, "GET /ada", lines[0])
	assert.Contains(t, lines, "matched route GET /{name}")
}

func TestEngine_Info(t *testing.T) {
	t.Parallel()

	e := nancy.MustNew()
	require.NoError(t, e.Register(nancy.NewModule("/").Get("/", text("home")).Get("/{id}", text("item"))))
	e.AddStaticConvention(func(*nancy.Context, string) *nancy.Response { return nil })

	info := e.Info()
	assert.Equal(t, nancy.Version, info.Version)
	assert.Equal(t, "insensitive", info.Settings.CaseSensitivity)
	assert.True(t, info.Settings.TracesDisabled)
	assert.Equal(t, 1, info.StaticConventions)
	assert.Equal(t, []nancy.RouteInfo{
		{Method: http.MethodGet, Path: "/", Mode: "literal"},
		{Method: http.MethodGet, Path: "/{id}", Mode: "simple"},
	}, info.Routes)

	info2 := nancy.NewModule("/_info").Get("/", e.InfoHandler())
	e2 := nancy.MustNew()
	require.NoError(t, e2.Register(info2))
	rec := serve(e2, http.MethodGet, "/_info")
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"caseSensitivity":"insensitive"`)
}
