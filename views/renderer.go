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

package views

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Option configures a [Renderer].
type Option func(*Renderer)

// WithEngines replaces the view engines. Earlier engines win when two
// engines claim the same extension.
func WithEngines(engines ...Engine) Option {
	return func(r *Renderer) { r.engines = engines }
}

// WithLocations sets the directories searched, in order, for a view name.
// The default is "views" then the file system root.
func WithLocations(dirs ...string) Option {
	return func(r *Renderer) { r.locations = dirs }
}

// WithoutCache recompiles views, and re-indexes the file system, on every
// render. Useful during development.
func WithoutCache() Option {
	return func(r *Renderer) { r.cache = false }
}

// WithLogger sets the logger used for index and compile diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// Renderer resolves view names to files and renders them. It is safe for
// concurrent use.
type Renderer struct {
	fsys      fs.FS
	engines   []Engine
	locations []string
	cache     bool
	logger    *slog.Logger

	byExt map[string]Engine
	exts  []string

	mu    sync.RWMutex
	index map[string]string

	views sync.Map
	group singleflight.Group
}

// New creates a renderer over fsys. Without options it uses a
// [TemplateEngine] and a [StaticEngine].
func New(fsys fs.FS, opts ...Option) (*Renderer, error) {
	if fsys == nil {
		return nil, ErrNilFS
	}
	r := &Renderer{
		fsys:      fsys,
		engines:   []Engine{NewTemplateEngine(nil), StaticEngine{}},
		locations: []string{"views", ""},
		cache:     true,
		byExt:     make(map[string]Engine),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if len(r.engines) == 0 {
		return nil, ErrNoEngines
	}

	for _, e := range r.engines {
		for _, ext := range e.Extensions() {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if _, dup := r.byExt[ext]; dup {
				r.logger.Warn("view extension claimed by more than one engine", "extension", ext)
				continue
			}
			r.byExt[ext] = e
			r.exts = append(r.exts, ext)
		}
	}

	idx, err := r.buildIndex()
	if err != nil {
		return nil, err
	}
	r.index = idx
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(fsys fs.FS, opts ...Option) *Renderer {
	r, err := New(fsys, opts...)
	if err != nil {
		panic("views.MustNew: " + err.Error())
	}
	return r
}

// Extensions lists the extensions of the loaded engines.
func (r *Renderer) Extensions() []string { return slices.Clone(r.exts) }

// Names lists the indexed view files.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.index))
	for _, p := range r.index {
		names = append(names, p)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Render renders the named view with model.
func (r *Renderer) Render(w io.Writer, name string, model any) error {
	v, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return v.Render(w, model)
}

// Lookup returns the compiled view for name.
func (r *Renderer) Lookup(name string) (View, error) {
	key := strings.ToLower(strings.Trim(name, "/"))

	if !r.cache {
		idx, err := r.buildIndex()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.index = idx
		r.mu.Unlock()
		return r.compile(name, key)
	}

	if v, ok := r.views.Load(key); ok {
		return v.(View), nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		v, err := r.compile(name, key)
		if err != nil {
			return nil, err
		}
		r.views.Store(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(View), nil
}

func (r *Renderer) compile(name, key string) (View, error) {
	file, ok := r.locate(key)
	if !ok {
		return nil, &ViewNotFoundError{ViewName: name, AvailableExtensions: r.Extensions()}
	}

	src, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read view %s: %w", file, err)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(file), "."))
	v, err := r.byExt[ext].Compile(file, src)
	if err != nil {
		r.logger.Error("view failed to compile", "view", file, "error", err)
		return nil, err
	}
	r.logger.Debug("view compiled", "view", file)
	return v, nil
}

// locate finds the file for a lowercased view key. Keys may carry an
// extension.
func (r *Renderer) locate(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, loc := range r.locations {
		candidate := strings.ToLower(path.Join(loc, key))
		if file, ok := r.index[candidate]; ok {
			return file, true
		}
	}
	return "", false
}

// buildIndex maps every view file to its file name, keyed both with and
// without its extension, lowercased.
func (r *Renderer) buildIndex() (map[string]string, error) {
	idx := make(map[string]string)
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if _, ok := r.byExt[strings.ToLower(strings.TrimPrefix(ext, "."))]; !ok {
			return nil
		}
		lower := strings.ToLower(p)
		if _, exists := idx[lower]; !exists {
			idx[lower] = p
		}
		bare := strings.TrimSuffix(lower, strings.ToLower(ext))
		if _, exists := idx[bare]; !exists {
			idx[bare] = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index views: %w", err)
	}
	return idx, nil
}
