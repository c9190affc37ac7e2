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
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// SafePaths is the allow-list of directories files may be served from.
type SafePaths struct {
	mu    sync.RWMutex
	roots []string
}

// NewSafePaths creates an allow-list. Relative directories are made
// absolute against the working directory.
func NewSafePaths(dirs ...string) (*SafePaths, error) {
	s := &SafePaths{}
	for _, d := range dirs {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add allows files below dir.
func (s *SafePaths) Add(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("safe path %q: %w", dir, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.roots, abs) {
		s.roots = append(s.roots, abs)
	}
	return nil
}

// Roots returns the allowed directories.
func (s *SafePaths) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roots)
}

// Contains reports whether name lies below one of the roots or extra.
func (s *SafePaths) Contains(name string, extra ...string) bool {
	_, _, ok := s.locate(name, extra)
	return ok
}

// Open opens name for reading if it lies below one of the roots or extra.
// The file is opened through an [os.Root], so symbolic links cannot lead
// out of the root either.
func (s *SafePaths) Open(name string, extra ...string) (*os.File, error) {
	root, rel, ok := s.locate(name, extra)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutsideSafePaths, name)
	}
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Open(rel)
}

func (s *SafePaths) locate(name string, extra []string) (root, rel string, ok bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", "", false
	}
	candidates := s.Roots()
	for _, e := range extra {
		if a, err := filepath.Abs(e); err == nil {
			candidates = append(candidates, a)
		}
	}
	for _, r := range candidates {
		rel, err := filepath.Rel(r, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return r, rel, true
	}
	return "", "", false
}
