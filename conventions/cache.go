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

package conventions

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nancyfx/nancy"
)

// Fetcher produces the response for a resolved path, or nil when the path
// resolved to nothing. It must not retain c.
type Fetcher func(c *nancy.Context) *nancy.Response

// ResponseCache remembers the fetcher built for each requested path.
type ResponseCache interface {
	// GetOrAdd returns the fetcher stored under key, building and storing
	// it when absent. cached reports whether build was skipped. The first
	// fetcher stored for a key wins.
	GetOrAdd(key string, build func() Fetcher) (f Fetcher, cached bool)
}

// MemoryCache is an unbounded in-memory [ResponseCache]. Entries are never
// evicted. Concurrent first requests for a key share one build.
type MemoryCache struct {
	entries sync.Map
	group   singleflight.Group
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) GetOrAdd(key string, build func() Fetcher) (Fetcher, bool) {
	if f, ok := c.entries.Load(key); ok {
		return f.(Fetcher), true
	}
	built := false
	v, _, _ := c.group.Do(key, func() (any, error) {
		built = true
		actual, _ := c.entries.LoadOrStore(key, build())
		return actual, nil
	})
	return v.(Fetcher), !built
}

// Len returns the number of cached paths.
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// NoCache builds a fetcher on every request.
type NoCache struct{}

func (NoCache) GetOrAdd(_ string, build func() Fetcher) (Fetcher, bool) {
	return build(), false
}
