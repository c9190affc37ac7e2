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

// Package compression encodes response bodies with Brotli or gzip,
// following the client's Accept-Encoding.
package compression

import (
	"compress/gzip"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/nancyfx/nancy"
)

// Encoding names as they appear in Content-Encoding.
const (
	Brotli = "br"
	Gzip   = "gzip"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	gzipLevel    int
	brotliLevel  int
	disableGzip  bool
	disableBr    bool
	minSize      int
	contentTypes []string
}

// WithGzipLevel sets the gzip level, from [gzip.HuffmanOnly] to
// [gzip.BestCompression]. Default [gzip.DefaultCompression].
func WithGzipLevel(level int) Option {
	return func(cfg *config) { cfg.gzipLevel = level }
}

// WithBrotliLevel sets the Brotli quality, 0 to 11. Default 4.
func WithBrotliLevel(level int) Option {
	return func(cfg *config) { cfg.brotliLevel = level }
}

// WithoutGzip disables gzip.
func WithoutGzip() Option {
	return func(cfg *config) { cfg.disableGzip = true }
}

// WithoutBrotli disables Brotli.
func WithoutBrotli() Option {
	return func(cfg *config) { cfg.disableBr = true }
}

// WithMinSize skips bodies with a known length below n bytes. Default 1024.
func WithMinSize(n int) Option {
	return func(cfg *config) { cfg.minSize = n }
}

// WithContentTypes replaces the compressible media types. Entries ending
// in "/" match a whole type, such as "text/".
func WithContentTypes(types ...string) Option {
	return func(cfg *config) { cfg.contentTypes = types }
}

// New returns the compression middleware. It panics on invalid levels.
func New(opts ...Option) nancy.MiddlewareFunc {
	cfg := &config{
		gzipLevel:   gzip.DefaultCompression,
		brotliLevel: 4,
		minSize:     1024,
		contentTypes: []string{
			"text/",
			"application/json",
			"application/problem+json",
			"application/xml",
			"application/javascript",
			"image/svg+xml",
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.gzipLevel < gzip.HuffmanOnly || cfg.gzipLevel > gzip.BestCompression {
		panic(fmt.Sprintf("compression: invalid gzip level %d", cfg.gzipLevel))
	}
	if cfg.brotliLevel < brotli.BestSpeed || cfg.brotliLevel > brotli.BestCompression {
		panic(fmt.Sprintf("compression: invalid brotli level %d", cfg.brotliLevel))
	}

	var offered []string
	if !cfg.disableBr {
		offered = append(offered, Brotli)
	}
	if !cfg.disableGzip {
		offered = append(offered, Gzip)
	}

	return func(c *nancy.Context) {
		c.Next()

		resp := c.Response
		if resp == nil || resp.Contents == nil || !cfg.eligible(c, resp) {
			return
		}
		if resp.Headers == nil {
			resp.Headers = make(http.Header)
		}
		resp.Headers.Add("Vary", "Accept-Encoding")

		enc := negotiate(c.Request.Headers.AcceptEncoding(), offered)
		if enc == "" {
			return
		}
		c.Trace.Writef("compressing response with %s", enc)

		body := resp.Contents
		resp.Contents = func(w io.Writer) error {
			zw := cfg.writer(enc, w)
			if err := body(zw); err != nil {
				zw.Close()
				return err
			}
			return zw.Close()
		}
		resp.Headers.Set("Content-Encoding", enc)
		resp.Headers.Del("Content-Length")
		if etag := resp.Headers.Get("ETag"); etag != "" {
			resp.Headers.Set("ETag", encodedETag(etag, enc))
		}
	}
}

func (cfg *config) eligible(c *nancy.Context, resp *nancy.Response) bool {
	if c.Request.Method == http.MethodHead || resp.Headers.Get("Content-Encoding") != "" {
		return false
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status == http.StatusNoContent || status == http.StatusNotModified {
		return false
	}
	if n, err := strconv.Atoi(resp.Headers.Get("Content-Length")); err == nil && n < cfg.minSize {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.ContentType)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(cfg.contentTypes, func(t string) bool {
		if strings.HasSuffix(t, "/") {
			return strings.HasPrefix(mediaType, t)
		}
		return mediaType == t
	})
}

func (cfg *config) writer(enc string, w io.Writer) io.WriteCloser {
	if enc == Brotli {
		return brotli.NewWriterLevel(w, cfg.brotliLevel)
	}
	zw, _ := gzip.NewWriterLevel(w, cfg.gzipLevel)
	return zw
}

// negotiate picks the first offered encoding the client accepts. A
// quality of zero refuses an encoding; "*" accepts any not listed.
func negotiate(accepted, offered []string) string {
	quality := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		name, params, _ := strings.Cut(a, ";")
		name = strings.ToLower(strings.TrimSpace(name))
		quality[name] = !zeroQuality(params)
	}
	for _, enc := range offered {
		if ok, listed := quality[enc]; listed {
			if ok {
				return enc
			}
			continue
		}
		if quality["*"] {
			return enc
		}
	}
	return ""
}

func zeroQuality(params string) bool {
	for p := range strings.SplitSeq(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, "q") {
			q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return err == nil && q == 0
		}
	}
	return false
}

// encodedETag gives the encoded representation its own entity tag.
func encodedETag(etag, enc string) string {
	if strings.HasSuffix(etag, `"`) && len(etag) > 1 {
		return etag[:len(etag)-1] + "-" + enc + `"`
	}
	return etag + "-" + enc
}
