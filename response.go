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
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Response is what a route, hook or convention produces. The engine writes
// it once the middleware chain returns.
type Response struct {
	StatusCode  int
	ContentType string
	Headers     http.Header
	Cookies     []*http.Cookie

	// Contents writes the body. Nil means no body.
	Contents func(w io.Writer) error
}

// NewResponse creates an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Headers: make(http.Header)}
}

// Bytes creates a response with a fixed body.
func Bytes(status int, contentType string, body []byte) *Response {
	r := NewResponse(status)
	r.ContentType = contentType
	r.Headers.Set("Content-Length", strconv.Itoa(len(body)))
	r.Contents = func(w io.Writer) error {
		_, err := w.Write(body)
		return err
	}
	return r
}

// Text creates a text/plain response.
func Text(status int, body string) *Response {
	return Bytes(status, "text/plain; charset=utf-8", []byte(body))
}

// HTML creates a text/html response.
func HTML(status int, body string) *Response {
	return Bytes(status, "text/html; charset=utf-8", []byte(body))
}

// JSON creates an application/json response. The model is encoded
// immediately so encoding errors surface to the caller.
func JSON(status int, model any) (*Response, error) {
	body, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode json response: %w", err)
	}
	return Bytes(status, "application/json; charset=utf-8", body), nil
}

// XML creates an application/xml response.
func XML(status int, model any) (*Response, error) {
	body, err := xml.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode xml response: %w", err)
	}
	return Bytes(status, "application/xml; charset=utf-8", append([]byte(xml.Header), body...)), nil
}

// Stream creates a 200 response whose body is read from open when the
// response is written. The reader is closed afterwards.
func Stream(contentType string, open func() (io.ReadCloser, error)) *Response {
	r := NewResponse(http.StatusOK)
	r.ContentType = contentType
	r.Contents = func(w io.Writer) error {
		rc, err := open()
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(w, rc)
		return err
	}
	return r
}

// Redirect creates a redirect. A status outside 3xx becomes 303 See Other.
func Redirect(status int, location string) *Response {
	if status < 300 || status > 399 {
		status = http.StatusSeeOther
	}
	r := NewResponse(status)
	r.Headers.Set("Location", location)
	return r
}

// NotModified creates a 304 response.
func NotModified() *Response {
	return NewResponse(http.StatusNotModified)
}

// WithStatus sets the status code.
func (r *Response) WithStatus(status int) *Response {
	r.StatusCode = status
	return r
}

// WithContentType sets the content type.
func (r *Response) WithContentType(contentType string) *Response {
	r.ContentType = contentType
	return r
}

// WithHeader sets a header, replacing existing values.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
	r.Headers.Set(key, value)
	return r
}

// WithCookie adds a Set-Cookie header.
func (r *Response) WithCookie(c *http.Cookie) *Response {
	r.Cookies = append(r.Cookies, c)
	return r
}

// WithLastModified sets Last-Modified, used for conditional requests.
func (r *Response) WithLastModified(t time.Time) *Response {
	if t.IsZero() {
		return r
	}
	return r.WithHeader("Last-Modified", t.UTC().Format(http.TimeFormat))
}

// WithETag sets a strong entity tag, quoting it when needed.
func (r *Response) WithETag(tag string) *Response {
	if tag == "" {
		return r
	}
	if tag[0] != '"' && (len(tag) < 2 || tag[:2] != "W/") {
		tag = strconv.Quote(tag)
	}
	return r.WithHeader("ETag", tag)
}

// Write writes the response. The body is skipped for HEAD requests and for
// statuses that forbid one.
func (r *Response) Write(w http.ResponseWriter, head bool) error {
	h := w.Header()
	for k, v := range r.Headers {
		h[k] = append(h[k][:0:0], v...)
	}
	if r.ContentType != "" {
		h.Set("Content-Type", r.ContentType)
	}
	for _, c := range r.Cookies {
		if v := c.String(); v != "" {
			h.Add("Set-Cookie", v)
		}
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if !bodyAllowed(status) {
		h.Del("Content-Length")
		h.Del("Content-Type")
	}
	w.WriteHeader(status)

	if head || r.Contents == nil || !bodyAllowed(status) {
		return nil
	}
	return r.Contents(w)
}

func bodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}
