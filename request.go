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

package nancy

import (
	"io"
	"net/http"
	"net/url"

	"github.com/nancyfx/nancy/headers"
)

// Request is the framework's view of an inbound request. Headers are parsed
// once when the request is built.
type Request struct {
	Method string

	// Path is the escaped request path. Route parameters are captured
	// from it and are never percent-decoded.
	Path string

	Query      url.Values
	Headers    *headers.RequestHeaders
	Body       io.Reader
	RemoteAddr string

	raw *http.Request
}

// NewRequest builds a Request from an [http.Request].
func NewRequest(r *http.Request) *Request {
	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	return &Request{
		Method:     r.Method,
		Path:       path,
		Query:      r.URL.Query(),
		Headers:    headers.FromHTTP(r.Header, r.Host),
		Body:       r.Body,
		RemoteAddr: r.RemoteAddr,
		raw:        r,
	}
}

// HTTP returns the underlying [http.Request].
func (r *Request) HTTP() *http.Request { return r.raw }

// Form returns the parsed url-encoded or multipart form body.
func (r *Request) Form() (url.Values, error) {
	if err := r.raw.ParseForm(); err != nil {
		return nil, err
	}
	return r.raw.PostForm, nil
}

// FormValue returns the first form value for key, or "".
func (r *Request) FormValue(key string) string {
	return r.raw.PostFormValue(key)
}

// Cookie returns the value of the named request cookie.
func (r *Request) Cookie(name string) (string, bool) {
	return r.Headers.CookieValue(name)
}
