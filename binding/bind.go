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

package binding

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/nancyfx/nancy"
)

// DefaultMaxBodySize bounds decoded bodies.
const DefaultMaxBodySize = 10 << 20

// Option configures a bind.
type Option func(*config)

type config struct {
	maxBody    int64
	validate   bool
	strictJSON bool
	validator  *validator.Validate
}

// WithMaxBodySize sets the largest body read, in bytes.
func WithMaxBodySize(n int64) Option {
	return func(cfg *config) { cfg.maxBody = n }
}

// WithoutValidation skips validate tags.
func WithoutValidation() Option {
	return func(cfg *config) { cfg.validate = false }
}

// WithStrictJSON rejects JSON bodies with fields the target lacks.
func WithStrictJSON() Option {
	return func(cfg *config) { cfg.strictJSON = true }
}

// WithValidator replaces the validator, for example to add custom rules.
func WithValidator(v *validator.Validate) Option {
	return func(cfg *config) { cfg.validator = v }
}

var timeType = reflect.TypeFor[time.Time]()

// sourceTags lists the request sources in increasing precedence.
var sourceTags = []Source{SourceForm, SourceQuery, SourceHeader, SourceCookie, SourcePath}

// Into binds a new T from the request.
func Into[T any](c *nancy.Context, opts ...Option) (T, error) {
	var out T
	err := Bind(c, &out, opts...)
	return out, err
}

// Bind decodes the body of the request into out, sets tagged fields from
// the request and validates the result. out must point to a struct.
//
// The body decoder is chosen from Content-Type. Fields tagged `form`,
// `query`, `header`, `cookie` or `path` are then filled from those
// sources, overriding body values; later sources in that list win.
//
// Example:
//
//	type createUser struct {
//		Org  string `path:"org"`
//		Name string `json:"name" validate:"required"`
//	}
//
//	var in createUser
//	if err := binding.Bind(c, &in); err != nil {
//		return nil, err
//	}
func Bind(c *nancy.Context, out any, opts ...Option) error {
	cfg := &config{maxBody: DefaultMaxBodySize, validate: true}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.validator == nil {
		cfg.validator = defaultValidator()
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrOutMustBePointer
	}

	form, err := decodeBody(c, out, cfg)
	if err != nil {
		return err
	}
	if err := bindSources(c, rv.Elem(), form); err != nil {
		return err
	}
	if cfg.validate {
		return validateStruct(cfg.validator, out)
	}
	return nil
}

// decodeBody decodes the body into out. Form bodies are returned for the
// form tag instead.
func decodeBody(c *nancy.Context, out any, cfg *config) (map[string][]string, error) {
	req := c.Request
	if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Body == nil {
		return nil, nil
	}
	ct := req.Headers.ContentType()
	if ct == "" {
		return nil, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, &BindError{Source: SourceBody, Err: fmt.Errorf("%w: %s", ErrUnsupportedContentType, ct)}
	}

	raw := req.HTTP()
	switch mediaType {
	case "application/x-www-form-urlencoded":
		raw.Body = http.MaxBytesReader(c.Writer(), raw.Body, cfg.maxBody)
		form, err := req.Form()
		if err != nil {
			return nil, &BindError{Source: SourceForm, Err: bodyError(err)}
		}
		return form, nil
	case "multipart/form-data":
		raw.Body = http.MaxBytesReader(c.Writer(), raw.Body, cfg.maxBody)
		if err := raw.ParseMultipartForm(cfg.maxBody); err != nil {
			return nil, &BindError{Source: SourceForm, Err: bodyError(err)}
		}
		return raw.MultipartForm.Value, nil
	}

	decode, ok := decoders[mediaType]
	if !ok {
		return nil, &BindError{Source: SourceBody, Err: fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)}
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, cfg.maxBody+1))
	if err != nil {
		return nil, &BindError{Source: SourceBody, Err: err}
	}
	if int64(len(body)) > cfg.maxBody {
		return nil, &BindError{Source: SourceBody, Err: ErrBodyTooLarge}
	}
	if len(body) == 0 {
		return nil, nil
	}
	if err := decode(body, out, cfg); err != nil {
		return nil, &BindError{Source: SourceBody, Err: fmt.Errorf("decode %s: %w", mediaType, err)}
	}
	return nil, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrBodyTooLarge
	}
	return err
}

func lookup(c *nancy.Context, form map[string][]string, src Source, name string) ([]string, bool) {
	switch src {
	case SourcePath:
		v, ok := c.Parameters[name]
		return []string{v}, ok
	case SourceQuery:
		v, ok := c.Request.Query[name]
		return v, ok
	case SourceForm:
		v, ok := form[name]
		return v, ok
	case SourceHeader:
		v := c.Request.HTTP().Header.Values(name)
		return v, len(v) > 0
	case SourceCookie:
		v, ok := c.Request.Cookie(name)
		return []string{v}, ok
	}
	return nil, false
}

func bindSources(c *nancy.Context, v reflect.Value, form map[string][]string) error {
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			if err := bindSources(c, fv, form); err != nil {
				return err
			}
			continue
		}

		found := false
		for _, src := range sourceTags {
			name, ok := sf.Tag.Lookup(string(src))
			if !ok || name == "" || name == "-" {
				continue
			}
			vals, ok := lookup(c, form, src, name)
			if !ok || len(vals) == 0 {
				continue
			}
			if err := setField(fv, vals); err != nil {
				return &BindError{Field: sf.Name, Source: src, Value: strings.Join(vals, ","), Type: sf.Type, Err: err}
			}
			found = true
		}

		if def, ok := sf.Tag.Lookup("default"); ok && !found && fv.IsZero() {
			if err := setField(fv, []string{def}); err != nil {
				return &BindError{Field: sf.Name, Source: "default", Value: def, Type: sf.Type, Err: err}
			}
		}
	}
	return nil
}

func setField(v reflect.Value, vals []string) error {
	if v.Kind() == reflect.Pointer {
		elem := reflect.New(v.Type().Elem())
		if err := setField(elem.Elem(), vals); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8 {
		out := reflect.MakeSlice(v.Type(), len(vals), len(vals))
		for i, s := range vals {
			if err := setScalar(out.Index(i), s); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil
	}
	return setScalar(v, vals[0])
}

func setScalar(v reflect.Value, s string) error {
	if v.Type() == timeType {
		t, err := cast.ToTimeE(s)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))
		return nil
	}
	if v.CanAddr() {
		if u, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(s))
		}
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int64:
		if v.Type() == reflect.TypeFor[time.Duration]() {
			d, err := cast.ToDurationE(s)
			if err != nil {
				return err
			}
			v.SetInt(int64(d))
			return nil
		}
		fallthrough
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Slice:
		v.SetBytes([]byte(s))
	default:
		return fmt.Errorf("unsupported field type %s", v.Type())
	}
	return nil
}
