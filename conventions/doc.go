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

// Package conventions builds static content conventions for a Nancy
// engine.
//
// A convention maps a request path to a file on disk or to a resource
// embedded in an [Assembly]. Conventions built by one [Builder] share its
// [ResponseCache], which remembers how each requested path resolved so
// repeated requests skip the lookup:
//
//	b := conventions.NewBuilder(conventions.WithSafePaths("/srv/app"))
//	e.AddStaticConvention(b.AddDirectory("css", "assets/styles", "css"))
//	e.AddStaticConvention(b.MapVirtualDirectory("img", "Site.Assets.Images",
//	    conventions.NewFSAssembly(assets, "Site.Assets")))
//
// Files are only served from below a safe path. Requests that resolve
// elsewhere, for example through "..", are rejected.
package conventions
