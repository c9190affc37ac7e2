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

package errors

import (
	"net/http"
	"strings"

	"github.com/nancyfx/nancy/headers"
)

// Negotiating picks a formatter by the request's Accept header. The first
// acceptable media type with a registered formatter wins; Default is used
// otherwise.
type Negotiating struct {
	Default Formatter
	byType  map[string]Formatter
}

// NewNegotiating creates a negotiating formatter with a default.
func NewNegotiating(def Formatter) *Negotiating {
	return &Negotiating{Default: def, byType: make(map[string]Formatter)}
}

// Register associates a media type such as "text/html" with a formatter.
func (n *Negotiating) Register(mediaType string, f Formatter) *Negotiating {
	n.byType[strings.ToLower(mediaType)] = f
	return n
}

// Format implements [Formatter].
func (n *Negotiating) Format(req *http.Request, err error) Response {
	if req != nil {
		h := headers.FromHTTP(req.Header, req.Host)
		for _, entry := range h.Accept() {
			if entry.Quality <= 0 {
				continue
			}
			if f, ok := n.byType[strings.ToLower(entry.Value)]; ok {
				return f.Format(req, err)
			}
		}
	}
	return n.Default.Format(req, err)
}

// Default returns the formatter a Nancy engine uses when none is
// configured: problem details, or an HTML page for browsers.
func Default(showTraces bool) Formatter {
	problems := NewRFC9457("")
	problems.HideDetail = !showTraces
	return NewNegotiating(problems).
		Register("text/html", NewHTML(showTraces)).
		Register("application/problem+json", problems).
		Register("application/json", problems)
}
