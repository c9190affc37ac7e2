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

import "strings"

// RequestCookie is a name/value pair sent in a Cookie header.
type RequestCookie struct {
	Name  string
	Value string
}

// Cookie returns one entry per name=value pair found in any Cookie header,
// in request order. Pairs without a name are skipped; a pair without "="
// yields an empty value.
func (h *RequestHeaders) Cookie() []RequestCookie {
	raw := h.values[strings.ToLower(Cookie)]
	cookies := make([]RequestCookie, 0, len(raw))

	for _, line := range raw {
		for pair := range strings.SplitSeq(line, ";") {
			name, value, _ := strings.Cut(pair, "=")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			cookies = append(cookies, RequestCookie{Name: name, Value: strings.TrimSpace(value)})
		}
	}

	return cookies
}

// CookieValue returns the value of the first cookie with the given name.
// Cookie names are case-sensitive.
func (h *RequestHeaders) CookieValue(name string) (string, bool) {
	for _, c := range h.Cookie() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
