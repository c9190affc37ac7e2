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
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at key as T, or the zero value when it is unset
// or cannot be converted.
//
//	timeout := config.Get[time.Duration](cfg, "server.read_timeout")
func Get[T any](c *Config, key string) T {
	v, _ := GetE[T](c, key)
	return v
}

// GetOr is like Get but returns def when the key is unset or cannot be
// converted.
func GetOr[T any](c *Config, key string, def T) T {
	v, err := GetE[T](c, key)
	if err != nil {
		return def
	}
	return v
}

// GetE returns the value at key as T, or an error naming the key.
func GetE[T any](c *Config, key string) (T, error) {
	var zero T
	raw := c.lookup(key)
	if raw == nil {
		return zero, fmt.Errorf("key %q not found", key)
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}
	if v, ok := convert[T](raw); ok {
		return v, nil
	}
	return zero, fmt.Errorf("cannot convert value at key %q to %T", key, zero)
}

func convert[T any](raw any) (T, bool) {
	var zero T
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out, err = cast.ToStringE(raw)
	case int:
		out, err = cast.ToIntE(raw)
	case int64:
		out, err = cast.ToInt64E(raw)
	case uint:
		out, err = cast.ToUintE(raw)
	case float64:
		out, err = cast.ToFloat64E(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	case []string:
		out, err = cast.ToStringSliceE(raw)
	case map[string]any:
		out, err = cast.ToStringMapE(raw)
	case map[string]string:
		out, err = cast.ToStringMapStringE(raw)
	case time.Duration:
		out, err = cast.ToDurationE(raw)
	case time.Time:
		out, err = cast.ToTimeE(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	v, ok := out.(T)
	return v, ok
}
