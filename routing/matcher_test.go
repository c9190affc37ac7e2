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

package routing

import (
	"bytes"
	"log/slog"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		template string
		match    bool
		params   map[string]string
	}{
		{name: "root matches root", path: "/", template: "/", match: true},
		{name: "root only matches root", path: "/", template: "/foo", match: false},
		{name: "root template only matches root", path: "/foo", template: "/", match: false},
		{name: "trailing slash on template", path: "/foo/bar", template: "/foo/bar/", match: true},
		{name: "trailing slash on path", path: "/foo/bar/", template: "/foo/bar", match: true},
		{name: "exact", path: "/foo/bar", template: "/foo/bar", match: true},
		{name: "different paths", path: "/foo/bar", template: "/bar/foo", match: false},
		{name: "case insensitive", path: "/FoO/baR", template: "/fOO/bAr", match: true},
		{
			name: "captures parameters", path: "/foo/bar/baz", template: "/foo/{bar}/{baz}", match: true,
			params: map[string]string{"bar": "bar", "baz": "baz"},
		},
		{
			name: "parameters are greedy", path: "/foo/bar/baz", template: "/foo/{bar}", match: true,
			params: map[string]string{"bar": "bar/baz"},
		},
		{
			name: "raw regex", path: "/foo/1234", template: `/(?<foo>foo)/(?<bar>\d{4})/`, match: true,
			params: map[string]string{"foo": "foo", "bar": "1234"},
		},
		{
			name: "raw regex with P syntax", path: "/foo/1234", template: `/foo/(?P<bar>\d+)`, match: true,
			params: map[string]string{"bar": "1234"},
		},
		{name: "raw regex not matching", path: "/foo/bar", template: `/foo/(?<bar>[0-9]*)`, match: false},
		{
			name: "underscore in parameter name", path: "/foo/lol", template: "/foo/{b_ar}", match: true,
			params: map[string]string{"b_ar": "lol"},
		},
		{
			name: "literal suffix after parameter", path: "/foo/filename.cshtml", template: "/foo/{name}.cshtml", match: true,
			params: map[string]string{"name": "filename"},
		},
		{
			name: "parameter surrounded by literals", path: "/foo/barfilename.cshtml", template: "/foo/bar{name}.cshtml", match: true,
			params: map[string]string{"name": "filename"},
		},
		{
			name: "multiple parameters in one segment", path: "/foo/filename.cshtml", template: "/foo/{name}.{format}", match: true,
			params: map[string]string{"name": "filename", "format": "cshtml"},
		},
		{
			name: "multiple surrounded parameters", path: "/foo/barfilename.cshtmlbaz", template: "/foo/bar{name}.{format}baz", match: true,
			params: map[string]string{"name": "filename", "format": "cshtml"},
		},
		{name: "literal dot is escaped", path: "/foo/filenameXcshtml", template: "/foo/{name}.cshtml", match: false},
		{name: "invalid raw template never matches", path: "/foo", template: "/foo(", match: false},
		{
			name: "plus signs are literal around a parameter", path: "/c++/intro", template: "/c++/{name}", match: true,
			params: map[string]string{"name": "intro"},
		},
		{
			name: "star is literal around a parameter", path: "/a*b/7", template: "/a*b/{id}", match: true,
			params: map[string]string{"id": "7"},
		},
		{name: "star does not repeat", path: "/aaab/7", template: "/a*b/{id}", match: false},
		{
			name: "dollar and pipe are literal", path: "/price$|usd/10", template: "/price$|usd/{amount}", match: true,
			params: map[string]string{"amount": "10"},
		},
		{name: "literal plus without parameters", path: "/c++", template: "/c++", match: true},
	}

	m := NewMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := m.Match(tt.path, tt.template)

			assert.Equal(t, tt.match, res.IsMatch)
			require.NotNil(t, res.Parameters)
			if tt.params == nil {
				assert.Empty(t, res.Parameters)
			} else {
				assert.Equal(t, tt.params, res.Parameters)
			}
		})
	}
}

func TestMatcher_DoesNotDecodeParameters(t *testing.T) {
	t.Parallel()

	parameter := (&url.URL{Path: "baa ram ewe{}"}).EscapedPath()
	require.NotEqual(t, "baa ram ewe{}", parameter)

	res := NewMatcher().Match("/foo/"+parameter, "/foo/{bar}")

	require.True(t, res.IsMatch)
	assert.Equal(t, parameter, res.Parameters["bar"])
}

func TestMatcher_AllowsUnreservedCharacters(t *testing.T) {
	t.Parallel()

	const parameter = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_.!*'()"

	res := NewMatcher().Match("/foo/"+parameter, "/foo/{bar}")

	require.True(t, res.IsMatch)
	assert.Equal(t, parameter, res.Parameters["bar"])
}

func TestMatcher_LiteralTemplatesCompareModuloSlashAndCase(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	templates := []string{"/a", "/a/b", "/About-Us", "/files/report.pdf"}
	paths := []string{"/a", "/A/", "/a/b", "/A/B/", "/about-us", "/files/report.pdf", "/files/reportXpdf", "/b"}

	for _, tmpl := range templates {
		for _, p := range paths {
			want := normalizeForCompare(p) == normalizeForCompare(tmpl)
			assert.Equal(t, want, m.Match(p, tmpl).IsMatch, "path %q template %q", p, tmpl)
		}
	}
}

func normalizeForCompare(s string) string {
	return string(bytes.ToLower([]byte(normalizePath(s))))
}

func TestMatcher_ReportsInvalidTemplateOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := NewMatcher(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	for range 3 {
		assert.False(t, m.Match("/foo", "/foo[").IsMatch)
	}

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("failed to compile")))
}

func TestMatcher_ConcurrentUse(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	var wg sync.WaitGroup

	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := m.Match("/users/42/posts", "/users/{id}/posts")
			assert.True(t, res.IsMatch, "goroutine %d", i)
			assert.Equal(t, "42", res.Parameters["id"])
		}(i)
	}

	wg.Wait()
}

func TestCompile_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		mode     Mode
		params   []string
	}{
		{"/foo/bar", ModeLiteral, []string{}},
		{"/foo/{bar}", ModeSimple, []string{"bar"}},
		{"/foo/{name}.{format}", ModeSimple, []string{"name", "format"}},
		{`/foo/(?<bar>\d{4})`, ModeRaw, []string{"bar"}},
		{"/foo/[a-z]+", ModeRaw, []string{}},
		{`/foo/[0-9]{4}`, ModeRaw, []string{}},
		{"/c++/{name}", ModeSimple, []string{"name"}},
		{"/a*b/{id}", ModeSimple, []string{"id"}},
		{"/c++", ModeLiteral, []string{}},
	}

	for _, tt := range tests {
		tmpl, err := Compile(tt.template)
		require.NoError(t, err, tt.template)
		assert.Equal(t, tt.mode, tmpl.Mode(), tt.template)
		assert.Equal(t, tt.params, tmpl.Params(), tt.template)
		assert.Equal(t, tt.template, tmpl.String())
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	_, err := Compile("/foo/{id}/{id}")
	require.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = Compile("/foo/(?<id>")
	require.ErrorIs(t, err, ErrInvalidTemplate)

	assert.Panics(t, func() { MustCompile("/foo/(") })
}
