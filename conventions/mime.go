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
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

var builtinTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".gif":   "image/gif",
	".htm":   "text/html; charset=utf-8",
	".html":  "text/html; charset=utf-8",
	".ico":   "image/x-icon",
	".jpeg":  "image/jpeg",
	".jpg":   "image/jpeg",
	".js":    "text/javascript; charset=utf-8",
	".json":  "application/json",
	".map":   "application/json",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".svg":   "image/svg+xml",
	".txt":   "text/plain; charset=utf-8",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".xml":   "text/xml; charset=utf-8",
	".zip":   "application/zip",
}

// MimeTypes maps file extensions to content types.
type MimeTypes struct {
	overrides map[string]string
}

// NewMimeTypes creates a table. overrides are keyed by extension with the
// leading dot and take precedence over the built-in entries.
func NewMimeTypes(overrides map[string]string) *MimeTypes {
	m := &MimeTypes{overrides: make(map[string]string, len(overrides))}
	for ext, ct := range overrides {
		m.overrides[strings.ToLower(ext)] = ct
	}
	return m
}

// ByName returns the content type for a file name from its extension, or
// "" when the extension is unknown.
func (m *MimeTypes) ByName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if ct, ok := m.overrides[ext]; ok {
		return ct
	}
	if ct, ok := builtinTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// Detect returns the content type for name, sniffing the content opened by
// open when the extension is unknown.
func (m *MimeTypes) Detect(name string, open func() (io.ReadCloser, error)) string {
	if ct := m.ByName(name); ct != "" {
		return ct
	}
	rc, err := open()
	if err != nil {
		return defaultContentType
	}
	defer rc.Close()
	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return defaultContentType
	}
	return mt.String()
}
