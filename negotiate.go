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
	"strings"

	"github.com/nancyfx/nancy/headers"
)

// ResponseProcessor turns a model into a response of a given media type.
type ResponseProcessor interface {
	// MediaTypes lists the media types produced, preferred first.
	MediaTypes() []string

	// CanProcess reports whether the processor applies. The view
	// processor, for example, needs a view name.
	CanProcess(c *Context, view string) bool

	Process(c *Context, status int, model any, view string) (*Response, error)
}

// Negotiate picks a response processor from the request's Accept header and
// renders model with it. Accept entries are tried in quality order; media
// ranges such as */* and text/* match any processor producing a type in
// that range. An entry with q=0 excludes the types it names. When nothing
// is acceptable the returned error is a 406 [HTTPError].
func (c *Context) Negotiate(status int, model any, view string) (*Response, error) {
	entries := c.Request.Headers.Accept()
	if len(entries) == 0 {
		entries = []headers.Entry{{Value: "*/*", Quality: 1}}
	}

	var excluded []string
	for _, e := range entries {
		if e.Quality == 0 {
			excluded = append(excluded, strings.ToLower(e.Value))
		}
	}

	for _, e := range entries {
		if e.Quality == 0 {
			continue
		}
		for _, p := range c.engine.processors {
			if !p.CanProcess(c, view) || isExcluded(p, excluded) || !acceptsAny(e.Value, p.MediaTypes()) {
				continue
			}
			c.Trace.Writef("negotiated %s for accept %q", p.MediaTypes()[0], e.Value)
			resp, err := p.Process(c, status, model, view)
			if err != nil {
				return nil, err
			}
			return resp.WithHeader("Vary", "Accept"), nil
		}
	}

	return nil, NotAcceptable()
}

func isExcluded(p ResponseProcessor, excluded []string) bool {
	for _, mt := range p.MediaTypes() {
		for _, ex := range excluded {
			if strings.EqualFold(mt, ex) {
				return true
			}
		}
	}
	return false
}

// acceptsAny reports whether the media range covers one of types.
func acceptsAny(mediaRange string, types []string) bool {
	mediaRange = strings.ToLower(mediaRange)
	if mediaRange == "*/*" || mediaRange == "*" {
		return true
	}
	for _, t := range types {
		t = strings.ToLower(t)
		if t == mediaRange {
			return true
		}
		if prefix, ok := strings.CutSuffix(mediaRange, "/*"); ok {
			if major, _, _ := strings.Cut(t, "/"); major == prefix {
				return true
			}
		}
	}
	return false
}

type jsonProcessor struct{}

func (jsonProcessor) MediaTypes() []string              { return []string{"application/json", "text/json"} }
func (jsonProcessor) CanProcess(*Context, string) bool { return true }

func (jsonProcessor) Process(_ *Context, status int, model any, _ string) (*Response, error) {
	return JSON(status, model)
}

type xmlProcessor struct{}

func (xmlProcessor) MediaTypes() []string              { return []string{"application/xml", "text/xml"} }
func (xmlProcessor) CanProcess(*Context, string) bool { return true }

func (xmlProcessor) Process(_ *Context, status int, model any, _ string) (*Response, error) {
	return XML(status, model)
}

type viewProcessor struct{}

func (viewProcessor) MediaTypes() []string { return []string{"text/html", "application/xhtml+xml"} }

func (viewProcessor) CanProcess(c *Context, view string) bool {
	return view != "" && c.engine.views != nil
}

func (viewProcessor) Process(c *Context, status int, model any, view string) (*Response, error) {
	return c.View(status, view, model)
}

// DefaultProcessors returns the built-in processors: HTML views first,
// then JSON and XML.
func DefaultProcessors() []ResponseProcessor {
	return []ResponseProcessor{viewProcessor{}, jsonProcessor{}, xmlProcessor{}}
}
