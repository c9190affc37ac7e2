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

// Package binding fills structs from a request and validates them.
//
// The body is decoded first, chosen by Content-Type: JSON, XML, YAML,
// TOML, MessagePack, or url-encoded and multipart forms. Fields tagged
// with a request source are then set from it, overriding the body:
//
//	type UpdateOrder struct {
//		ID     int      `path:"id"`
//		Notify bool     `query:"notify" default:"true"`
//		Trace  string   `header:"X-Trace"`
//		Note   string   `json:"note" form:"note" validate:"max=200"`
//		Tags   []string `json:"tags" validate:"dive,required"`
//	}
//
//	func update(c *nancy.Context) (*nancy.Response, error) {
//		req, err := binding.Into[UpdateOrder](c)
//		if err != nil {
//			return nil, err
//		}
//		...
//	}
//
// Conversion failures are [BindError]s, rendered as 400 responses.
// Fields failing their validate tags produce a [ValidationError], rendered
// as 422 with the failing fields listed.
package binding
