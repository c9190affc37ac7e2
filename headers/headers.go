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

package headers

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Header names consumed by the typed accessors.
const (
	Accept            = "Accept"
	AcceptCharset     = "Accept-Charset"
	AcceptEncoding    = "Accept-Encoding"
	AcceptLanguage    = "Accept-Language"
	Authorization     = "Authorization"
	CacheControl      = "Cache-Control"
	Connection        = "Connection"
	ContentLength     = "Content-Length"
	ContentType       = "Content-Type"
	Cookie            = "Cookie"
	Date              = "Date"
	Host              = "Host"
	IfMatch           = "If-Match"
	IfModifiedSince   = "If-Modified-Since"
	IfNoneMatch       = "If-None-Match"
	IfRange           = "If-Range"
	IfUnmodifiedSince = "If-Unmodified-Since"
	MaxForwards       = "Max-Forwards"
	Referer           = "Referer"
	UserAgent         = "User-Agent"
)

// RequestHeaders is an immutable, case-insensitive mapping from header name
// to the raw values received for that header.
type RequestHeaders struct {
	names  []string            // original spelling, sorted
	values map[string][]string // keyed by lower-cased name
}

// New builds RequestHeaders from a raw header dictionary.
// Names differing only in case are merged in the iteration order of their
// sorted original spellings. Nil value slices are treated as absent values.
//
// Example:
//
//	h := headers.New(map[string][]string{
//		"accept": {"text/html"},
//		"Accept": {"application/json;q=0.5"},
//	})
//	h.Get("ACCEPT")  // ["application/json;q=0.5", "text/html"]
func New(raw map[string][]string) *RequestHeaders {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	h := &RequestHeaders{
		names:  make([]string, 0, len(names)),
		values: make(map[string][]string, len(names)),
	}

	for _, name := range names {
		key := strings.ToLower(name)
		if _, seen := h.values[key]; !seen {
			h.names = append(h.names, name)
		}
		h.values[key] = append(h.values[key], raw[name]...)
	}

	return h
}

// FromHTTP builds RequestHeaders from a net/http header map.
// The Host header, which net/http moves to http.Request.Host, can be
// supplied separately through host.
func FromHTTP(header http.Header, host string) *RequestHeaders {
	raw := make(map[string][]string, len(header)+1)
	for name, values := range header {
		raw[name] = values
	}
	if host != "" && len(header.Values(Host)) == 0 {
		raw[Host] = []string{host}
	}
	return New(raw)
}

// Get returns the raw values for the named header, or an empty slice
// if the header is absent. The lookup is case-insensitive.
func (h *RequestHeaders) Get(name string) []string {
	values := h.values[strings.ToLower(name)]
	if len(values) == 0 {
		return []string{}
	}
	return slices.Clone(values)
}

// Has reports whether at least one value was received for the named header.
func (h *RequestHeaders) Has(name string) bool {
	return len(h.values[strings.ToLower(name)]) > 0
}

// Keys returns the header names in sorted order, in the spelling in which
// they were first received.
func (h *RequestHeaders) Keys() []string {
	return slices.Clone(h.names)
}

// Values returns the raw value sequences in the same order as Keys.
func (h *RequestHeaders) Values() [][]string {
	out := make([][]string, 0, len(h.names))
	for _, name := range h.names {
		out = append(out, h.Get(name))
	}
	return out
}

// first returns the first raw value of the header or "" when absent.
func (h *RequestHeaders) first(name string) string {
	values := h.values[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Accept returns the parsed Accept header, sorted by descending quality.
// Entries of equal quality keep their request order. Tokens with a
// malformed or out-of-range q parameter are dropped, and a missing q
// means 1.
//
// Examples:
//
//	// Accept: text/html, application/json;q=0.9, */*;q=0.1
//	h.Accept()  // [{text/html 1} {application/json 0.9} {*/* 0.1}]
//
//	// Accept: text/plain;q=2, text/html
//	h.Accept()  // [{text/html 1}]
func (h *RequestHeaders) Accept() []Entry {
	return parseNegotiation(h.values[strings.ToLower(Accept)])
}

// AcceptCharset returns the parsed Accept-Charset header, sorted by descending quality.
func (h *RequestHeaders) AcceptCharset() []Entry {
	return parseNegotiation(h.values[strings.ToLower(AcceptCharset)])
}

// AcceptLanguage returns the parsed Accept-Language header, sorted by descending quality.
//
// Example:
//
//	// Accept-Language: da, en-GB;q=0.8, en;q=0.7
//	h.AcceptLanguage()  // [{da 1} {en-GB 0.8} {en 0.7}]
func (h *RequestHeaders) AcceptLanguage() []Entry {
	return parseNegotiation(h.values[strings.ToLower(AcceptLanguage)])
}

// AcceptEncoding returns the comma separated Accept-Encoding values in request order.
func (h *RequestHeaders) AcceptEncoding() []string {
	return splitValues(h.values[strings.ToLower(AcceptEncoding)])
}

// CacheControl returns the comma separated Cache-Control directives in request order.
func (h *RequestHeaders) CacheControl() []string {
	return splitValues(h.values[strings.ToLower(CacheControl)])
}

// IfMatch returns the entity tags of the If-Match header.
func (h *RequestHeaders) IfMatch() []string {
	return splitValues(h.values[strings.ToLower(IfMatch)])
}

// IfNoneMatch returns the entity tags of the If-None-Match header.
func (h *RequestHeaders) IfNoneMatch() []string {
	return splitValues(h.values[strings.ToLower(IfNoneMatch)])
}

// Authorization returns the first Authorization value, or "" when absent.
// The credentials are returned verbatim, scheme included.
func (h *RequestHeaders) Authorization() string { return h.first(Authorization) }

// Connection returns the first Connection value, or "" when absent.
func (h *RequestHeaders) Connection() string { return h.first(Connection) }

// ContentType returns the first Content-Type value, or "" when absent.
// Parameters such as charset are not stripped.
//
// Example:
//
//	// Content-Type: application/json; charset=utf-8
//	h.ContentType()  // "application/json; charset=utf-8"
func (h *RequestHeaders) ContentType() string { return h.first(ContentType) }

// Host returns the first Host value, or "" when absent.
func (h *RequestHeaders) Host() string { return h.first(Host) }

// IfRange returns the first If-Range value, or "" when absent.
// The value is either an entity tag or an HTTP date.
func (h *RequestHeaders) IfRange() string { return h.first(IfRange) }

// Referrer returns the first Referer value, or "" when absent.
func (h *RequestHeaders) Referrer() string { return h.first(Referer) }

// UserAgent returns the first User-Agent value, or "" when absent.
func (h *RequestHeaders) UserAgent() string { return h.first(UserAgent) }

// ContentLength returns the Content-Length header as an integer.
// It returns 0 when the header is absent and an error wrapping
// ErrInvalidNumber when the header is present but malformed.
func (h *RequestHeaders) ContentLength() (int64, error) {
	raw := h.first(ContentLength)
	if raw == "" && !h.Has(ContentLength) {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", ContentLength, raw, ErrInvalidNumber)
	}
	return n, nil
}

// MaxForwards returns the Max-Forwards header as an integer.
// It returns 0 when the header is absent and an error wrapping
// ErrInvalidNumber when the header is present but malformed.
func (h *RequestHeaders) MaxForwards() (int, error) {
	raw := h.first(MaxForwards)
	if raw == "" && !h.Has(MaxForwards) {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", MaxForwards, raw, ErrInvalidNumber)
	}
	return n, nil
}

// Date returns the parsed Date header. The boolean is false when the
// header is absent or not a valid HTTP date.
func (h *RequestHeaders) Date() (time.Time, bool) {
	return parseDate(h.first(Date))
}

// IfModifiedSince returns the parsed If-Modified-Since header.
func (h *RequestHeaders) IfModifiedSince() (time.Time, bool) {
	return parseDate(h.first(IfModifiedSince))
}

// IfUnmodifiedSince returns the parsed If-Unmodified-Since header.
func (h *RequestHeaders) IfUnmodifiedSince() (time.Time, bool) {
	return parseDate(h.first(IfUnmodifiedSince))
}

// parseDate accepts the three date formats allowed by RFC 9110.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// splitValues splits every raw value on commas and flattens the result,
// preserving input order and skipping empty items.
func splitValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		for item := range strings.SplitSeq(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
