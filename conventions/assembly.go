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
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"
)

// Assembly is a set of named embedded resources. Resource names are
// dotted, such as "Site.Assets.Images.logo.png".
type Assembly interface {
	ManifestResourceNames() []string
	Open(name string) (io.ReadCloser, error)
}

// FSAssembly exposes the files of an [fs.FS] as embedded resources. A file
// at "images/logo.png" under namespace "Site.Assets" is the resource
// "Site.Assets.images.logo.png".
type FSAssembly struct {
	fsys  fs.FS
	names []string
	files map[string]string
}

// NewFSAssembly indexes fsys under rootNamespace. An empty namespace
// yields names without a prefix.
func NewFSAssembly(fsys fs.FS, rootNamespace string) (*FSAssembly, error) {
	a := &FSAssembly{fsys: fsys, files: make(map[string]string)}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := strings.ReplaceAll(p, "/", ".")
		if rootNamespace != "" {
			name = rootNamespace + "." + name
		}
		a.files[name] = p
		a.names = append(a.names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index assembly %s: %w", rootNamespace, err)
	}
	return a, nil
}

// ManifestResourceNames lists the resource names in file system order.
func (a *FSAssembly) ManifestResourceNames() []string {
	return slices.Clone(a.names)
}

// Open opens a resource by its exact name.
func (a *FSAssembly) Open(name string) (io.ReadCloser, error) {
	p, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	return a.fsys.Open(p)
}
