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

// Package views locates and renders named views.
//
// A [Renderer] indexes the files of an [fs.FS] whose extensions belong to
// one of its engines and resolves view names against that index without
// regard to case. The extension may be omitted from the name:
//
//	r, err := views.New(os.DirFS("."), views.WithLocations("views", ""))
//	e := nancy.MustNew(nancy.WithViews(r))
//
// Compiled views are cached unless caching is disabled, in which case the
// file system is re-read on every render.
package views
