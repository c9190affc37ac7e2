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
	"crypto/rand"
	"crypto/sha256"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/pbkdf2"
)

const saltSize = 32

// Session is the state carried, encrypted, in the diagnostics cookie.
type Session struct {
	Hash   []byte    `msgpack:"hash"`
	Salt   []byte    `msgpack:"salt"`
	Expiry time.Time `msgpack:"expiry"`
}

// Expired reports whether the session expired at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.Expiry) }

// GenerateRandomSalt returns a fresh random salt.
func GenerateRandomSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// GenerateSaltedHash hashes password with salt.
func GenerateSaltedHash(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, DefaultIterations, sha256.Size, sha256.New)
}

// Serializer encodes sessions.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// MsgpackSerializer encodes with MessagePack.
type MsgpackSerializer struct{}

func (MsgpackSerializer) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgpackSerializer) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
