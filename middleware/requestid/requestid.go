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

// Package requestid assigns every request an identifier. The identifier is
// echoed in a response header, stored on the context and attached to the
// request logger and span.
package requestid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/nancyfx/nancy"
)

// DefaultHeader is the header carrying the identifier.
const DefaultHeader = "X-Request-ID"

const itemKey = "requestid"

// Option configures the middleware.
type Option func(*config)

type config struct {
	header        string
	generator     func() string
	allowClientID bool
	maxLength     int
}

// WithHeader sets the header name.
func WithHeader(name string) Option {
	return func(cfg *config) { cfg.header = name }
}

// WithGenerator sets the identifier generator. UUIDv7 is the default.
func WithGenerator(gen func() string) Option {
	return func(cfg *config) { cfg.generator = gen }
}

// WithULID generates monotonic ULIDs instead of UUIDs.
func WithULID() Option {
	return func(cfg *config) { cfg.generator = newULIDGenerator() }
}

// WithAllowClientID controls whether an identifier sent by the client is
// reused. Default true.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) { cfg.allowClientID = allow }
}

// New returns the request ID middleware.
func New(opts ...Option) nancy.MiddlewareFunc {
	cfg := &config{
		header:        DefaultHeader,
		generator:     newUUIDv7,
		allowClientID: true,
		maxLength:     128,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *nancy.Context) {
		id := ""
		if cfg.allowClientID {
			id = c.Request.HTTP().Header.Get(cfg.header)
			if len(id) > cfg.maxLength || !printable(id) {
				id = ""
			}
		}
		if id == "" {
			id = cfg.generator()
		}

		c.Set(itemKey, id)
		c.SetLogger(c.Logger().With("request_id", id))
		c.SetSpanAttribute("http.request.id", id)
		c.Writer().Header().Set(cfg.header, id)
		c.Next()
	}
}

// Get returns the request's identifier, or "" when the middleware did not
// run.
func Get(c *nancy.Context) string {
	v, _ := c.Get(itemKey)
	id, _ := v.(string)
	return id
}

func newUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func newULIDGenerator() func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
