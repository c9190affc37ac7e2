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

// Package errors formats errors returned by route handlers into HTTP
// responses.
//
// A [Formatter] maps a request and an error to a status, content type and
// body. The package provides:
//   - [RFC9457]: problem details (application/problem+json)
//   - [Simple]: {"error": "..."} JSON
//   - [HTML]: a status page for browsers
//   - [Negotiating]: picks one of the above from the Accept header
//
// Errors control the response by implementing optional interfaces:
// [ErrorType] for the status code, [ErrorCode] for a machine-readable code,
// [ErrorDetails] for structured details and [ErrorHeaders] for extra
// response headers.
//
//	type outOfStock struct{ sku string }
//
//	func (e outOfStock) Error() string   { return e.sku + " is out of stock" }
//	func (e outOfStock) HTTPStatus() int { return http.StatusConflict }
//	func (e outOfStock) Code() string    { return "out-of-stock" }
package errors
