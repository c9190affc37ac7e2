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

//go:build !integration

package diagnostics

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGate(t *testing.T, password string, c *Cryptography, now func() time.Time) *Gate {
	t.Helper()
	if c == nil {
		var err error
		c, err = RandomCryptography()
		require.NoError(t, err)
	}
	return &Gate{
		password:   password,
		cookieName: defaultCookieName,
		cookiePath: "/_Nancy/",
		timeout:    defaultTimeout,
		crypto:     c,
		serializer: MsgpackSerializer{},
		now:        now,
	}
}

func TestGate_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := testGate(t, "secret", nil, func() time.Time { return now })

	s, err := g.NewSession()
	require.NoError(t, err)
	assert.Len(t, s.Salt, saltSize)
	assert.True(t, s.Expiry.Equal(now.Add(defaultTimeout)))

	value, err := g.Encode(s)
	require.NoError(t, err)

	got, err := g.Validate(value)
	require.NoError(t, err)
	assert.Equal(t, s.Hash, got.Hash)
	assert.Equal(t, s.Salt, got.Salt)
	assert.True(t, s.Expiry.Equal(got.Expiry))
}

func TestGate_FreshSaltPerSession(t *testing.T) {
	t.Parallel()

	g := testGate(t, "secret", nil, time.Now)
	a, err := g.NewSession()
	require.NoError(t, err)
	b, err := g.NewSession()
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestGate_Validate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	crypto, err := RandomCryptography()
	require.NoError(t, err)
	g := testGate(t, "secret", crypto, func() time.Time { return now })
	other := testGate(t, "other", crypto, func() time.Time { return now })

	valid, err := g.NewSession()
	require.NoError(t, err)
	good, err := g.Encode(valid)
	require.NoError(t, err)

	expired := valid
	expired.Expiry = now.Add(-10 * time.Minute)
	stale, err := g.Encode(expired)
	require.NoError(t, err)

	foreign, err := other.NewSession()
	require.NoError(t, err)
	wrong, err := g.Encode(foreign)
	require.NoError(t, err)

	tampered := []byte(good)
	last := len(tampered) - 3
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	tests := []struct {
		name  string
		value string
		err   error
	}{
		{"valid", good, nil},
		{"expired", stale, ErrSessionExpired},
		{"wrong password", wrong, ErrWrongPassword},
		{"empty", "", ErrInvalidCookie},
		{"hmac only", good[:44], ErrInvalidCookie},
		{"garbage", strings.Repeat("x", 80), ErrInvalidCookie},
		{"tampered ciphertext", string(tampered), ErrInvalidCookie},
		{"swapped signature", strings.Repeat("A", 44) + good[44:], ErrInvalidCookie},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := g.Validate(tt.value)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGate_Disabled(t *testing.T) {
	t.Parallel()

	g := testGate(t, "", nil, time.Now)
	assert.False(t, g.Enabled())
	assert.False(t, g.CheckPassword(""))

	_, err := g.NewSession()
	require.ErrorIs(t, err, ErrDisabled)
	_, err = g.Validate("anything")
	require.ErrorIs(t, err, ErrDisabled)
}

func TestGate_Cookies(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	g := testGate(t, "secret", nil, func() time.Time { return clock })

	assert.True(t, g.CheckPassword("secret"))
	assert.False(t, g.CheckPassword("Secret"))

	s, err := g.NewSession()
	require.NoError(t, err)
	c, err := g.Cookie(s)
	require.NoError(t, err)
	assert.Equal(t, "__ncd", c.Name)
	assert.Equal(t, "/_Nancy/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, c.Expires.Equal(now.Add(defaultTimeout)))

	clock = now.Add(5 * time.Minute)
	refreshed, err := g.Refresh(s)
	require.NoError(t, err)
	assert.True(t, refreshed.Expires.Equal(clock.Add(defaultTimeout)))
	assert.NotEqual(t, c.Value, refreshed.Value)

	gone := g.ExpiredCookie()
	assert.Equal(t, -1, gone.MaxAge)
	assert.Empty(t, gone.Value)
}
