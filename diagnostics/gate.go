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

import (
	"crypto/hmac"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

// Gate issues and validates diagnostics session cookies. It is safe for
// concurrent use.
type Gate struct {
	password   string
	cookieName string
	cookiePath string
	timeout    time.Duration
	crypto     *Cryptography
	serializer Serializer
	now        func() time.Time
}

// Enabled reports whether a password is configured.
func (g *Gate) Enabled() bool { return g.password != "" }

// CheckPassword compares password with the configured password in
// constant time. It is always false when diagnostics are disabled.
func (g *Gate) CheckPassword(password string) bool {
	if !g.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
}

// NewSession creates a session for the configured password with a fresh
// salt.
func (g *Gate) NewSession() (Session, error) {
	if !g.Enabled() {
		return Session{}, ErrDisabled
	}
	salt, err := GenerateRandomSalt()
	if err != nil {
		return Session{}, fmt.Errorf("generate salt: %w", err)
	}
	return Session{
		Hash:   GenerateSaltedHash(g.password, salt),
		Salt:   salt,
		Expiry: g.now().Add(g.timeout),
	}, nil
}

// Encode returns the cookie value for s.
func (g *Gate) Encode(s Session) (string, error) {
	plain, err := g.serializer.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	ciphertext, err := g.crypto.Encryption.Encrypt(plain)
	if err != nil {
		return "", fmt.Errorf("encrypt session: %w", err)
	}
	mac := base64.StdEncoding.EncodeToString(g.crypto.HMAC.Sign(ciphertext))
	return mac + ciphertext, nil
}

// Decode verifies and decrypts a cookie value. It does not check expiry
// or the password hash; see [Gate.Validate].
func (g *Gate) Decode(value string) (Session, error) {
	macLen := base64.StdEncoding.EncodedLen(g.crypto.HMAC.Size())
	if len(value) <= macLen {
		return Session{}, ErrInvalidCookie
	}
	mac, err := base64.StdEncoding.DecodeString(value[:macLen])
	if err != nil {
		return Session{}, ErrInvalidCookie
	}
	ciphertext := value[macLen:]
	if !hmac.Equal(mac, g.crypto.HMAC.Sign(ciphertext)) {
		return Session{}, ErrInvalidCookie
	}

	plain, err := g.crypto.Encryption.Decrypt(ciphertext)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	var s Session
	if err := g.serializer.Unmarshal(plain, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	return s, nil
}

// Validate decodes a cookie value and checks the session is current and
// was issued for the configured password.
func (g *Gate) Validate(value string) (Session, error) {
	if !g.Enabled() {
		return Session{}, ErrDisabled
	}
	s, err := g.Decode(value)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(g.now()) {
		return Session{}, ErrSessionExpired
	}
	if !hmac.Equal(s.Hash, GenerateSaltedHash(g.password, s.Salt)) {
		return Session{}, ErrWrongPassword
	}
	return s, nil
}

// Refresh extends s by the sliding timeout and returns its cookie.
func (g *Gate) Refresh(s Session) (*http.Cookie, error) {
	s.Expiry = g.now().Add(g.timeout)
	return g.Cookie(s)
}

// Cookie returns the session cookie for s.
func (g *Gate) Cookie(s Session) (*http.Cookie, error) {
	value, err := g.Encode(s)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     g.cookieName,
		Value:    value,
		Path:     g.cookiePath,
		Expires:  s.Expiry.UTC(),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}, nil
}

// ExpiredCookie returns a cookie that removes the session cookie.
func (g *Gate) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     g.cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
