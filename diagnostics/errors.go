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

package diagnostics

import "errors"

var (
	// ErrInvalidCookie is returned for a cookie that is malformed or whose
	// HMAC does not match.
	ErrInvalidCookie = errors.New("invalid diagnostics cookie")

	// ErrSessionExpired is returned for a session past its expiry.
	ErrSessionExpired = errors.New("diagnostics session expired")

	// ErrWrongPassword is returned when a session hash does not match the
	// configured password.
	ErrWrongPassword = errors.New("diagnostics session password mismatch")

	// ErrDisabled is returned when no diagnostics password is configured.
	ErrDisabled = errors.New("diagnostics disabled")

	// ErrInvalidCiphertext is returned when decryption fails.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrInvalidKey is returned for a key of the wrong length.
	ErrInvalidKey = errors.New("invalid key length")
)
