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
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/consul/api"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
)

// Option configures a [Config].
type Option func(c *Config) error

// Validator is implemented by bound structs that check themselves.
type Validator interface {
	Validate() error
}

// Config holds merged configuration values. It is safe for concurrent
// use.
type Config struct {
	mu         sync.RWMutex
	values     map[string]any
	sources    []Source
	dumpers    []dumper
	binding    any
	tagName    string
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
}

type dumper struct {
	path   string
	format Format
}

// WithSource adds a custom source.
func WithSource(s Source) Option {
	return func(c *Config) error {
		if s == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, s)
		return nil
	}
}

// WithFile reads a YAML, JSON or TOML file, chosen by extension. The path
// may reference environment variables.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		c.sources = append(c.sources, &fileSource{path: path, format: format})
		return nil
	}
}

// WithFileAs reads a file in the given format.
func WithFileAs(path string, format Format) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, &fileSource{path: os.ExpandEnv(path), format: format})
		return nil
	}
}

// WithContent reads values from data.
func WithContent(data []byte, format Format) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, &fileSource{data: data, format: format})
		return nil
	}
}

// WithEnv reads environment variables starting with prefix.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, envSource{prefix: prefix})
		return nil
	}
}

// WithConsul reads a key from the Consul KV store named by
// CONSUL_HTTP_ADDR, decoded by the key's extension. Without
// CONSUL_HTTP_ADDR the option does nothing.
func WithConsul(path string) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return NewError("consul-source", "create-client", err)
		}
		c.sources = append(c.sources, &consulSource{kv: client.KV(), path: path, format: format})
		return nil
	}
}

// WithConsulKV reads a key through kv.
func WithConsulKV(kv ConsulKV, path string, format Format) Option {
	return func(c *Config) error {
		if kv == nil {
			return errors.New("consul kv cannot be nil")
		}
		c.sources = append(c.sources, &consulSource{kv: kv, path: path, format: format})
		return nil
	}
}

// WithFileDumper makes [Config.Dump] write the merged values to path, in
// the format of its extension.
func WithFileDumper(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-dumper", "detect-format", err)
		}
		c.dumpers = append(c.dumpers, dumper{path: path, format: format})
		return nil
	}
}

// WithBinding decodes the values into the struct v points to on every
// Load.
func WithBinding(v any) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("binding target cannot be nil")
		}
		if reflect.TypeOf(v).Kind() != reflect.Pointer {
			return errors.New("binding target must be a pointer")
		}
		c.binding = v
		return nil
	}
}

// WithTag sets the struct tag used for binding. The default is "config".
func WithTag(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return errors.New("tag name cannot be empty")
		}
		c.tagName = name
		return nil
	}
}

// WithJSONSchema validates the merged values against schema.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return NewError("json-schema", "parse", err)
		}
		name := fmt.Sprintf("inline_%d.json", rand.Int())
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, doc); err != nil {
			return NewError("json-schema", "add", err)
		}
		s, err := compiler.Compile(name)
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		c.schema = s
		return nil
	}
}

// WithValidator adds a check run on the merged values before binding.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		c.validators = append(c.validators, fn)
		return nil
	}
}

// New creates a Config. Option errors are joined and returned with the
// partially configured Config.
func New(opts ...Option) (*Config, error) {
	c := &Config{values: map[string]any{}, tagName: "config"}
	var errs error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		errs = errors.Join(errs, opt(c))
	}
	return c, errs
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return c
}

// Load reads every source, validates the merged values and binds them.
// The previous values stay in place when any step fails.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}
	values, err := c.loadSources(ctx)
	if err != nil {
		return err
	}

	if c.schema != nil {
		if err := c.schema.Validate(values); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}
	for i, fn := range c.validators {
		if fn == nil {
			continue
		}
		if err := runValidator(fn, values); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding != nil {
		if err := c.bind(values); err != nil {
			return NewError("binding", "bind", err)
		}
	}
	c.values = values
	return nil
}

// MustLoad is like Load but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(values)
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conf, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err := mergo.Map(&merged, normalizeKeys(conf), mergo.WithOverride); err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}
	return merged, nil
}

// bind decodes into a fresh value with defaults applied, validates it and
// only then replaces the target.
func (c *Config) bind(values map[string]any) error {
	target := reflect.New(reflect.TypeOf(c.binding).Elem())
	if target.Elem().Kind() == reflect.Struct {
		if err := ApplyDefaults(target.Interface()); err != nil {
			return fmt.Errorf("apply defaults: %w", err)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if v, ok := target.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	reflect.ValueOf(c.binding).Elem().Set(target.Elem())
	return nil
}

func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// Dump writes the current values to every file dumper.
func (c *Config) Dump(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}
	values := c.Values()
	for _, d := range c.dumpers {
		data, err := d.format.encode(values)
		if err != nil {
			return NewError("file-dumper", "encode", err)
		}
		if err := os.WriteFile(d.path, data, 0o644); err != nil {
			return NewError("file-dumper", "write", err)
		}
	}
	return nil
}

// Values returns a copy of the top level of the merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// lookup finds a dotted, case-insensitive key.
func (c *Config) lookup(key string) any {
	if c == nil || key == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	key = strings.ToLower(key)
	if v, ok := c.values[key]; ok {
		return v
	}
	var cur any = c.values
	for seg := range strings.SplitSeq(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[seg]; !ok {
			return nil
		}
	}
	return cur
}

// Get returns the raw value at key, or nil.
func (c *Config) Get(key string) any { return c.lookup(key) }

// String returns the value at key as a string.
func (c *Config) String(key string) string { return cast.ToString(c.lookup(key)) }

// Bool returns the value at key as a bool.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.lookup(key)) }

// Int returns the value at key as an int.
func (c *Config) Int(key string) int { return cast.ToInt(c.lookup(key)) }

// Duration returns the value at key as a duration.
func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.lookup(key)) }

// StringSlice returns the value at key as a string slice.
func (c *Config) StringSlice(key string) []string { return cast.ToStringSlice(c.lookup(key)) }

// StringOr returns the value at key, or def when it is unset.
func (c *Config) StringOr(key, def string) string {
	if v := c.lookup(key); v != nil {
		return cast.ToString(v)
	}
	return def
}
