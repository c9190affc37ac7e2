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
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nancyfx/nancy"
)

// CacheObserver is told the outcome of every cache lookup. The metrics
// package provides one.
type CacheObserver interface {
	ObserveLookup(convention string, hit bool)
}

// Option configures a [Builder].
type Option func(*Builder)

// WithCache sets the response cache. Pass [NoCache] to disable caching.
func WithCache(c ResponseCache) Option {
	return func(b *Builder) { b.cache = c }
}

// WithSafePaths adds directories files may be served from, in addition to
// the application root passed to each convention.
func WithSafePaths(dirs ...string) Option {
	return func(b *Builder) { b.safeDirs = append(b.safeDirs, dirs...) }
}

// WithLogger sets the logger for rejected requests.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithObserver sets the cache observer.
func WithObserver(o CacheObserver) Option {
	return func(b *Builder) { b.observer = o }
}

// WithMimeTypes sets the content type table.
func WithMimeTypes(m *MimeTypes) Option {
	return func(b *Builder) { b.mime = m }
}

// Builder creates static content conventions sharing one cache and one
// allow-list.
type Builder struct {
	cache    ResponseCache
	safe     *SafePaths
	safeDirs []string
	logger   *slog.Logger
	observer CacheObserver
	mime     *MimeTypes
}

// NewBuilder creates a builder with an in-memory cache. It returns an
// error when a directory passed to WithSafePaths cannot be resolved.
//
// Example:
//
//	b, err := conventions.NewBuilder(
//		conventions.WithSafePaths("/srv/shared"),
//		conventions.WithLogger(logger),
//	)
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.cache == nil {
		b.cache = NewMemoryCache()
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.mime == nil {
		b.mime = NewMimeTypes(nil)
	}
	safe, err := NewSafePaths(b.safeDirs...)
	if err != nil {
		return nil, err
	}
	b.safe = safe
	return b, nil
}

// MustNewBuilder is like NewBuilder but panics on error.
func MustNewBuilder(opts ...Option) *Builder {
	b, err := NewBuilder(opts...)
	if err != nil {
		panic("conventions.MustNewBuilder: " + err.Error())
	}
	return b
}

// SafePaths returns the builder's allow-list.
func (b *Builder) SafePaths() *SafePaths { return b.safe }

// AddDirectory serves files below contentPath, relative to the application
// root, for requests under requestedPath. An empty contentPath uses
// requestedPath. When allowedExtensions is non-empty only files with one
// of those extensions are served.
//
// Example:
//
//	// GET /css/site.css serves <root>/assets/styles/site.css
//	e.AddStaticConvention(b.AddDirectory("css", "assets/styles", "css"))
//
// Parameters:
//   - requestedPath: URL prefix matched case-insensitively, slashes optional
//   - contentPath: directory relative to the application root
//   - allowedExtensions: extensions with or without the leading dot
func (b *Builder) AddDirectory(requestedPath, contentPath string, allowedExtensions ...string) nancy.StaticConvention {
	prefix := "/" + strings.Trim(requestedPath, "/")
	if contentPath == "" {
		contentPath = strings.Trim(requestedPath, "/")
	}
	exts := make([]string, 0, len(allowedExtensions))
	for _, e := range allowedExtensions {
		exts = append(exts, "."+strings.ToLower(strings.TrimPrefix(e, ".")))
	}
	name := "directory:" + prefix

	return func(c *nancy.Context, rootPath string) *nancy.Response {
		reqPath, ok := decodedPath(c)
		if !ok || !hasPathPrefix(reqPath, prefix) {
			return nil
		}
		rest := strings.TrimPrefix(reqPath[len(prefix):], "/")
		if rest == "" {
			return nil
		}
		if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(path.Ext(rest))) {
			c.Trace.Writef("static directory %s: extension of %s not allowed", prefix, rest)
			return nil
		}

		dir := filepath.Join(rootPath, filepath.FromSlash(contentPath))
		file := filepath.Join(dir, filepath.FromSlash(rest))
		if !within(dir, file) {
			b.reject(c, file)
			return nil
		}
		return b.lookup(c, name, rootPath+"\x00"+reqPath, func() Fetcher {
			return b.fileFetcher(c, file, rootPath)
		})
	}
}

// AddFile serves contentFile, relative to the application root, for
// requests to requestedFile.
func (b *Builder) AddFile(requestedFile, contentFile string) nancy.StaticConvention {
	target := "/" + strings.TrimLeft(requestedFile, "/")
	name := "file:" + target

	return func(c *nancy.Context, rootPath string) *nancy.Response {
		reqPath, ok := decodedPath(c)
		if !ok || !strings.EqualFold(reqPath, target) {
			return nil
		}
		file := filepath.Join(rootPath, filepath.FromSlash(contentFile))
		return b.lookup(c, name, rootPath+"\x00"+reqPath, func() Fetcher {
			return b.fileFetcher(c, file, rootPath)
		})
	}
}

// MapVirtualDirectory serves resources of assembly for requests under
// virtualDirectory. The virtual directory part of the request path is
// replaced by resourceNamespaceRoot and the remaining separators by dots:
// with virtual directory "Image" and namespace root "NS.Assets.Image",
// "/Image/sub/zip.png" is the resource "NS.Assets.Image.sub.zip.png".
// Resource names are matched exactly.
func (b *Builder) MapVirtualDirectory(virtualDirectory, resourceNamespaceRoot string, assembly Assembly) nancy.StaticConvention {
	vdir := strings.Trim(virtualDirectory, "/")
	name := "embedded:" + vdir

	return func(c *nancy.Context, _ string) *nancy.Response {
		c.Trace.Writef("embedded resource requested: %s", c.Request.Path)

		reqPath, ok := decodedPath(c)
		if !ok {
			return nil
		}
		requested := strings.TrimLeft(reqPath, "/")
		if len(requested) < len(vdir) || !strings.EqualFold(requested[:len(vdir)], vdir) {
			return nil
		}
		return b.lookup(c, name, requested, func() Fetcher {
			return b.resourceFetcher(c, requested, vdir, resourceNamespaceRoot, assembly)
		})
	}
}

func (b *Builder) lookup(c *nancy.Context, convention, key string, build func() Fetcher) *nancy.Response {
	f, cached := b.cache.GetOrAdd(convention+"\x00"+key, build)
	if b.observer != nil {
		b.observer.ObserveLookup(convention, cached)
	}
	if !cached {
		c.Trace.Writef("%s: %s was not cached", convention, key)
	}
	return f(c)
}

func (b *Builder) resourceFetcher(c *nancy.Context, requested, vdir, namespaceRoot string, assembly Assembly) Fetcher {
	resource := strings.ReplaceAll(namespaceRoot+requested[len(vdir):], "/", ".")
	c.Trace.Writef("looking for embedded resource %s", resource)

	if !slices.Contains(assembly.ManifestResourceNames(), resource) {
		c.Trace.Writef("embedded resource %s not in assembly manifest", resource)
		return func(*nancy.Context) *nancy.Response { return nil }
	}

	open := func() (io.ReadCloser, error) { return assembly.Open(resource) }
	contentType := b.mime.Detect(requested, open)
	return func(*nancy.Context) *nancy.Response {
		return nancy.Stream(contentType, open)
	}
}

func (b *Builder) fileFetcher(c *nancy.Context, file, rootPath string) Fetcher {
	if !b.safe.Contains(file, rootPath) {
		b.reject(c, file)
		return func(*nancy.Context) *nancy.Response { return nil }
	}
	return func(c *nancy.Context) *nancy.Response {
		resp, err := FileResponse(b.safe, file, b.mime, rootPath)
		if err != nil {
			c.Trace.Writef("static file %s unavailable: %v", file, err)
			return nil
		}
		return resp
	}
}

func (b *Builder) reject(c *nancy.Context, file string) {
	b.logger.Warn("static content request rejected", "path", c.Request.Path, "file", file)
	c.Trace.Writef("rejected %s: outside the content directory", c.Request.Path)
}

func decodedPath(c *nancy.Context) (string, bool) {
	p, err := url.PathUnescape(c.Request.Path)
	if err != nil || strings.ContainsRune(p, 0) {
		return "", false
	}
	return p, true
}

func hasPathPrefix(p, prefix string) bool {
	if len(p) < len(prefix) || !strings.EqualFold(p[:len(prefix)], prefix) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/'
}

func within(dir, file string) bool {
	rel, err := filepath.Rel(dir, file)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
