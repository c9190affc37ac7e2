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
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize = 32

	// DefaultIterations is the PBKDF2 iteration count for passphrase keys
	// and password hashes.
	DefaultIterations = 10000
)

// EncryptionProvider encrypts session payloads. Ciphertext is base64 text
// so it can be carried in a cookie.
type EncryptionProvider interface {
	Encrypt(plain []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// HMACProvider signs ciphertext.
type HMACProvider interface {
	Sign(data string) []byte
	Size() int
}

// KeyGenerator produces key material.
type KeyGenerator interface {
	Key(n int) ([]byte, error)
}

// RandomKeyGenerator draws keys from crypto/rand. Sessions signed with
// random keys do not survive a restart.
type RandomKeyGenerator struct{}

func (RandomKeyGenerator) Key(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// PassphraseKeyGenerator derives keys from a passphrase with PBKDF2, so
// every instance of an application shares the same keys.
type PassphraseKeyGenerator struct {
	Passphrase string
	Salt       []byte
	Iterations int
}

// Key derives n bytes. Consecutive calls return the same bytes; callers
// needing several keys ask for them at once and split the result.
func (g PassphraseKeyGenerator) Key(n int) ([]byte, error) {
	if g.Passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidKey)
	}
	if len(g.Salt) < 8 {
		return nil, fmt.Errorf("%w: salt must be at least 8 bytes", ErrInvalidKey)
	}
	iter := g.Iterations
	if iter <= 0 {
		iter = DefaultIterations
	}
	return pbkdf2.Key([]byte(g.Passphrase), g.Salt, iter, n, sha256.New), nil
}

// AESEncryptionProvider encrypts with AES-256-CBC and PKCS#7 padding. A
// random IV is prepended to every ciphertext.
type AESEncryptionProvider struct {
	block cipher.Block
}

// NewAESEncryptionProvider creates a provider for a 32 byte key.
func NewAESEncryptionProvider(key []byte) (*AESEncryptionProvider, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: aes key is %d bytes, want %d", ErrInvalidKey, len(key), keySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &AESEncryptionProvider{block: block}, nil
}

func (p *AESEncryptionProvider) Encrypt(plain []byte) (string, error) {
	bs := p.block.BlockSize()
	pad := bs - len(plain)%bs
	padded := append(bytes.Clone(plain), bytes.Repeat([]byte{byte(pad)}, pad)...)

	out := make([]byte, bs+len(padded))
	iv := out[:bs]
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	cipher.NewCBCEncrypter(p.block, iv).CryptBlocks(out[bs:], padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (p *AESEncryptionProvider) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}
	bs := p.block.BlockSize()
	if len(raw) < 2*bs || len(raw)%bs != 0 {
		return nil, ErrInvalidCiphertext
	}
	iv, body := raw[:bs], raw[bs:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(p.block, iv).CryptBlocks(plain, body)

	pad := int(plain[len(plain)-1])
	if pad == 0 || pad > bs {
		return nil, ErrInvalidCiphertext
	}
	for _, b := range plain[len(plain)-pad:] {
		if int(b) != pad {
			return nil, ErrInvalidCiphertext
		}
	}
	return plain[:len(plain)-pad], nil
}

// HMACSHA256Provider signs with HMAC-SHA256.
type HMACSHA256Provider struct {
	key []byte
}

// NewHMACSHA256Provider creates a provider for a key of at least 32 bytes.
func NewHMACSHA256Provider(key []byte) (*HMACSHA256Provider, error) {
	if len(key) < keySize {
		return nil, fmt.Errorf("%w: hmac key is %d bytes, want at least %d", ErrInvalidKey, len(key), keySize)
	}
	return &HMACSHA256Provider{key: bytes.Clone(key)}, nil
}

func (p *HMACSHA256Provider) Sign(data string) []byte {
	mac := hmac.New(sha256.New, p.key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func (p *HMACSHA256Provider) Size() int { return sha256.Size }

// Cryptography pairs the encryption and signing of session cookies.
type Cryptography struct {
	Encryption EncryptionProvider
	HMAC       HMACProvider
}

// NewCryptography derives an encryption key and a signing key from gen.
func NewCryptography(gen KeyGenerator) (*Cryptography, error) {
	keys, err := gen.Key(2 * keySize)
	if err != nil {
		return nil, fmt.Errorf("generate keys: %w", err)
	}
	enc, err := NewAESEncryptionProvider(keys[:keySize])
	if err != nil {
		return nil, err
	}
	mac, err := NewHMACSHA256Provider(keys[keySize:])
	if err != nil {
		return nil, err
	}
	return &Cryptography{Encryption: enc, HMAC: mac}, nil
}

// RandomCryptography uses fresh random keys.
func RandomCryptography() (*Cryptography, error) {
	return NewCryptography(RandomKeyGenerator{})
}
