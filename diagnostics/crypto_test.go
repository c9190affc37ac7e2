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
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESEncryptionProvider(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{7}, 32)
	p, err := NewAESEncryptionProvider(key)
	require.NoError(t, err)

	tests := []struct {
		name  string
		plain []byte
	}{
		{"empty", nil},
		{"short", []byte("nancy")},
		{"block aligned", bytes.Repeat([]byte("a"), 32)},
		{"binary", []byte{0, 1, 2, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ct, err := p.Encrypt(tt.plain)
			require.NoError(t, err)
			got, err := p.Decrypt(ct)
			require.NoError(t, err)
			assert.Equal(t, len(tt.plain), len(got))
			assert.True(t, bytes.Equal(tt.plain, got))
		})
	}

	a, err := p.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := p.Encrypt([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "every ciphertext gets a fresh IV")
}

func TestAESEncryptionProvider_Rejects(t *testing.T) {
	t.Parallel()

	_, err := NewAESEncryptionProvider([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKey)

	p, err := NewAESEncryptionProvider(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"not base64", "***"},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"not block aligned", base64.StdEncoding.EncodeToString(make([]byte, 40))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Decrypt(tt.ciphertext)
			assert.ErrorIs(t, err, ErrInvalidCiphertext)
		})
	}

	other, err := NewAESEncryptionProvider(bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)
	ct, err := other.Encrypt([]byte("secret session"))
	require.NoError(t, err)
	got, err := p.Decrypt(ct)
	if err == nil {
		assert.NotEqual(t, "secret session", string(got))
	}
}

func TestHMACSHA256Provider(t *testing.T) {
	t.Parallel()

	_, err := NewHMACSHA256Provider([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKey)

	p, err := NewHMACSHA256Provider(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	assert.Equal(t, 32, p.Size())
	assert.Len(t, p.Sign("data"), 32)
	assert.Equal(t, p.Sign("data"), p.Sign("data"))
	assert.NotEqual(t, p.Sign("data"), p.Sign("date"))
}

func TestPassphraseKeyGenerator(t *testing.T) {
	t.Parallel()

	gen := PassphraseKeyGenerator{Passphrase: "correct horse", Salt: []byte("nancy-diagnostics"), Iterations: 100}
	a, err := gen.Key(64)
	require.NoError(t, err)
	b, err := gen.Key(64)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	other, err := PassphraseKeyGenerator{Passphrase: "battery staple", Salt: gen.Salt, Iterations: 100}.Key(64)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	_, err = PassphraseKeyGenerator{Salt: gen.Salt}.Key(32)
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = PassphraseKeyGenerator{Passphrase: "x", Salt: []byte("salt")}.Key(32)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestPassphraseCryptographyIsShared(t *testing.T) {
	t.Parallel()

	gen := PassphraseKeyGenerator{Passphrase: "shared", Salt: []byte("nancy-diagnostics"), Iterations: 100}
	first, err := NewCryptography(gen)
	require.NoError(t, err)
	second, err := NewCryptography(gen)
	require.NoError(t, err)

	gateA := testGate(t, "pw", first, time.Now)
	gateB := testGate(t, "pw", second, time.Now)

	s, err := gateA.NewSession()
	require.NoError(t, err)
	value, err := gateA.Encode(s)
	require.NoError(t, err)

	_, err = gateB.Validate(value)
	assert.NoError(t, err)
}
