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

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedError struct {
	message string
	code    string
	status  int
	details any
	header  http.Header
}

func (e *codedError) Error() string       { return e.message }
func (e *codedError) Code() string        { return e.code }
func (e *codedError) HTTPStatus() int     { return e.status }
func (e *codedError) Details() any        { return e.details }
func (e *codedError) Header() http.Header { return e.header }

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
	assert.Equal(t, http.StatusNotFound, StatusOf(WithStatus(errors.New("x"), http.StatusNotFound)))
	assert.Equal(t, http.StatusConflict, StatusOf(fmt.Errorf("wrapped: %w", &codedError{status: http.StatusConflict})))
}

func TestWithStatus(t *testing.T) {
	t.Parallel()

	base := errors.New("missing")
	err := WithStatus(base, http.StatusNotFound)

	assert.Equal(t, "missing", err.Error())
	require.ErrorIs(t, err, base)
	assert.Equal(t, "No Content", WithStatus(nil, http.StatusNoContent).Error())
}

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *RFC9457
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "plain error",
			formatter:  NewRFC9457("https://nancy.example/problems"),
			err:        errors.New("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
			wantDetail: "something went wrong",
		},
		{
			name:       "coded error",
			formatter:  NewRFC9457("https://nancy.example/problems"),
			err:        &codedError{message: "bad input", code: "invalid_input", status: http.StatusBadRequest},
			wantStatus: http.StatusBadRequest,
			wantType:   "https://nancy.example/problems/invalid_input",
			wantDetail: "bad input",
		},
		{
			name:       "code without base url",
			formatter:  NewRFC9457(""),
			err:        &codedError{message: "gone", code: "gone", status: http.StatusGone},
			wantStatus: http.StatusGone,
			wantType:   "gone",
			wantDetail: "gone",
		},
		{
			name:       "hidden server detail",
			formatter:  &RFC9457{HideDetail: true},
			err:        errors.New("db password rejected"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
			wantDetail: "Internal Server Error",
		},
		{
			name:       "client detail is never hidden",
			formatter:  &RFC9457{HideDetail: true},
			err:        WithStatus(errors.New("no such order"), http.StatusNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   "about:blank",
			wantDetail: "no such order",
		},
		{
			name: "resolvers",
			formatter: &RFC9457{
				TypeResolver:   func(error) string { return "urn:custom" },
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        errors.New("tea"),
			wantStatus: http.StatusTeapot,
			wantType:   "urn:custom",
			wantDetail: "tea",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
			resp := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "application/problem+json; charset=utf-8", resp.ContentType)

			p, ok := resp.Body.(ProblemDetail)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, http.StatusText(tt.wantStatus), p.Title)
			assert.Equal(t, tt.wantDetail, p.Detail)
			assert.Equal(t, "/orders/7", p.Instance)
		})
	}
}

func TestRFC9457_ExtensionsAndHeaders(t *testing.T) {
	t.Parallel()

	f := &RFC9457{ErrorIDGenerator: func() string { return "err-fixed" }}
	err := &codedError{
		message: "method not allowed",
		code:    "method_not_allowed",
		status:  http.StatusMethodNotAllowed,
		details: []string{"GET"},
		header:  http.Header{"Allow": {"GET, HEAD"}},
	}

	resp := f.Format(httptest.NewRequest(http.MethodPost, "/x", nil), err)

	assert.Equal(t, "GET, HEAD", resp.Headers.Get("Allow"))

	raw, mErr := json.Marshal(resp.Body)
	require.NoError(t, mErr)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "err-fixed", doc["error_id"])
	assert.Equal(t, "method_not_allowed", doc["code"])
	assert.Equal(t, []any{"GET"}, doc["errors"])
	assert.InDelta(t, 405, doc["status"], 0)
}

func TestRFC9457_DefaultErrorID(t *testing.T) {
	t.Parallel()

	f := NewRFC9457("")
	a := f.Format(httptest.NewRequest(http.MethodGet, "/", nil), errors.New("x")).Body.(ProblemDetail)
	b := f.Format(httptest.NewRequest(http.MethodGet, "/", nil), errors.New("x")).Body.(ProblemDetail)

	assert.Regexp(t, `^err-[0-9a-f-]{36}$`, a.Extensions["error_id"])
	assert.NotEqual(t, a.Extensions["error_id"], b.Extensions["error_id"])

	f.DisableErrorID = true
	c := f.Format(httptest.NewRequest(http.MethodGet, "/", nil), errors.New("x")).Body.(ProblemDetail)
	assert.NotContains(t, c.Extensions, "error_id")
}

func TestProblemDetail_ExtensionsCannotShadowMembers(t *testing.T) {
	t.Parallel()

	p := ProblemDetail{
		Type:       "about:blank",
		Title:      "Not Found",
		Status:     404,
		Extensions: map[string]any{"status": 200, "title": "OK", "trace": "abc"},
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.InDelta(t, 404, doc["status"], 0)
	assert.Equal(t, "Not Found", doc["title"])
	assert.Equal(t, "abc", doc["trace"])
	assert.NotContains(t, doc, "detail")
}

func TestSimple_Format(t *testing.T) {
	t.Parallel()

	resp := NewSimple().Format(nil, &codedError{
		message: "invalid", code: "bad", status: http.StatusBadRequest, details: map[string]string{"field": "name"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "application/json; charset=utf-8", resp.ContentType)
	assert.Equal(t, map[string]any{
		"error":   "invalid",
		"code":    "bad",
		"details": map[string]string{"field": "name"},
	}, resp.Body)

	resp = (&Simple{StatusResolver: func(error) int { return http.StatusAccepted }}).Format(nil, errors.New("x"))
	assert.Equal(t, http.StatusAccepted, resp.Status)
}

func TestHTML_Format(t *testing.T) {
	t.Parallel()

	notFound := NewHTML(false).Format(nil, WithStatus(errors.New("no <such> page"), http.StatusNotFound))
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, "text/html; charset=utf-8", notFound.ContentType)
	assert.Contains(t, string(notFound.Raw), "404 - Not Found")
	assert.Contains(t, string(notFound.Raw), "no &lt;such&gt; page")

	hidden := NewHTML(false).Format(nil, errors.New("secret stack"))
	assert.NotContains(t, string(hidden.Raw), "secret stack")

	shown := NewHTML(true).Format(nil, errors.New("visible stack"))
	assert.Contains(t, string(shown.Raw), "<pre>visible stack</pre>")
}

func TestNegotiating_Format(t *testing.T) {
	t.Parallel()

	f := Default(false)
	err := WithStatus(errors.New("missing"), http.StatusNotFound)

	tests := []struct {
		accept      string
		contentType string
	}{
		{accept: "", contentType: "application/problem+json; charset=utf-8"},
		{accept: "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8", contentType: "text/html; charset=utf-8"},
		{accept: "application/json", contentType: "application/problem+json; charset=utf-8"},
		{accept: "text/html;q=0, application/json", contentType: "application/problem+json; charset=utf-8"},
		{accept: "application/json;q=0.5, text/html", contentType: "text/html; charset=utf-8"},
		{accept: "image/png", contentType: "application/problem+json; charset=utf-8"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tt.accept != "" {
			req.Header.Set("Accept", tt.accept)
		}
		resp := f.Format(req, err)
		assert.Equal(t, tt.contentType, resp.ContentType, tt.accept)
		assert.Equal(t, http.StatusNotFound, resp.Status, tt.accept)
	}
}

func TestFormatterFunc(t *testing.T) {
	t.Parallel()

	var f Formatter = FormatterFunc(func(_ *http.Request, err error) Response {
		return Response{Status: http.StatusTeapot, Raw: []byte(err.Error())}
	})

	resp := f.Format(nil, errors.New("short and stout"))
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "short and stout", string(resp.Raw))
}
