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

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/consul/api"
)

// Source supplies configuration values. Load must be safe to call
// concurrently.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

type fileSource struct {
	path   string
	data   []byte
	format Format
}

func (f *fileSource) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		if data, err = os.ReadFile(f.path); err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
	}
	return f.format.decode(data)
}

type envSource struct {
	prefix string
}

func (e envSource) Load(context.Context) (map[string]any, error) {
	conf := make(map[string]any)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, e.prefix) {
			continue
		}
		var parts []string
		for p := range strings.SplitSeq(strings.ToLower(strings.TrimPrefix(key, e.prefix)), "__") {
			if p = strings.Trim(p, "_"); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		setPath(conf, parts, envValue(strings.TrimSpace(value)))
	}
	return conf, nil
}

func envValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// setPath stores v under the nested keys parts, replacing scalars that
// are in the way.
func setPath(m map[string]any, parts []string, v any) {
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// ConsulKV is the part of the Consul KV API used by the Consul source.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

type consulSource struct {
	kv     ConsulKV
	path   string
	format Format
}

// Load reads the key. A missing key yields no values.
func (c *consulSource) Load(ctx context.Context) (map[string]any, error) {
	pair, _, err := c.kv.Get(c.path, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get consul key %s: %w", c.path, err)
	}
	if pair == nil {
		return map[string]any{}, nil
	}
	return c.format.decode(pair.Value)
}
