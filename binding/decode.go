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

package binding

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// decodeFunc decodes a complete, non-empty body into out.
type decodeFunc func(body []byte, out any, cfg *config) error

var decoders = map[string]decodeFunc{
	"application/json":        decodeJSON,
	"text/json":               decodeJSON,
	"application/xml":         decodeXML,
	"text/xml":                decodeXML,
	"application/yaml":        decodeYAML,
	"application/x-yaml":      decodeYAML,
	"text/yaml":               decodeYAML,
	"application/toml":        decodeTOML,
	"application/msgpack":     decodeMsgpack,
	"application/x-msgpack":   decodeMsgpack,
	"application/vnd.msgpack": decodeMsgpack,
}

func decodeJSON(body []byte, out any, cfg *config) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if cfg.strictJSON {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after the JSON document")
	}
	return nil
}

func decodeXML(body []byte, out any, _ *config) error {
	return xml.Unmarshal(body, out)
}

func decodeYAML(body []byte, out any, _ *config) error {
	err := yaml.NewDecoder(bytes.NewReader(body)).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeTOML(body []byte, out any, _ *config) error {
	_, err := toml.NewDecoder(bytes.NewReader(body)).Decode(out)
	return err
}

func decodeMsgpack(body []byte, out any, _ *config) error {
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	dec.SetCustomStructTag("json")
	return dec.Decode(out)
}
