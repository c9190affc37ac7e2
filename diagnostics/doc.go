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

// Package diagnostics provides the password protected diagnostics
// dashboard of a Nancy application.
//
// The dashboard keeps no server-side session state. A successful login
// issues a cookie holding an encrypted [Session] prefixed with the base64
// HMAC of the ciphertext:
//
//	cookie value = base64(HMAC-SHA256(ciphertext)) + ciphertext
//
// Every request validates the HMAC in constant time, decrypts and decodes
// the session, checks its expiry and its salted password hash, and
// re-issues the cookie with a fresh expiry. Any failure shows the login
// page. Without a password the dashboard only shows a "Diagnostics
// Disabled" page.
//
// The dashboard is an [http.Handler] meant to be mounted on an engine:
//
//	d, err := diagnostics.New(settings.Diagnostics.Password,
//	    diagnostics.WithInfo(engine.Info))
//	engine.Mount(settings.Diagnostics.Path, d)
package diagnostics
