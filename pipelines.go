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

package nancy

// BeforeHook runs before routing. Returning a non-nil response skips the
// route; after hooks still run.
type BeforeHook func(c *Context) *Response

// AfterHook runs once a response exists. It may replace c.Response.
type AfterHook func(c *Context)

// ErrorHook runs when a route returns an error. The first hook returning a
// non-nil response wins; otherwise the engine formats the error.
type ErrorHook func(c *Context, err error) *Response

// StaticConvention resolves a request to static content. rootPath is the
// application root directory. A nil response means the convention does
// not apply and the next one is tried.
type StaticConvention func(c *Context, rootPath string) *Response

func runBefore(c *Context, hooks []BeforeHook) *Response {
	for _, h := range hooks {
		if r := h(c); r != nil {
			return r
		}
	}
	return nil
}

func runAfter(c *Context, hooks []AfterHook) {
	for _, h := range hooks {
		h(c)
	}
}

func runOnError(c *Context, hooks []ErrorHook, err error) *Response {
	for _, h := range hooks {
		if r := h(c, err); r != nil {
			return r
		}
	}
	return nil
}
