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

import (
	_ "embed"
	"time"

	"github.com/nancyfx/nancy/config"
)

// SettingsSchema is the JSON Schema of [Settings] as loaded by the config
// package.
//
//go:embed settings.schema.json
var SettingsSchema []byte

// Settings is the application configuration.
type Settings struct {
	Server      ServerSettings      `config:"server"`
	Logging     LoggingSettings     `config:"logging"`
	Diagnostics DiagnosticsSettings `config:"diagnostics"`
	Metrics     MetricsSettings     `config:"metrics"`
	Traces      TracesSettings      `config:"traces"`

	// Static lists directories served by the static content conventions.
	Static []StaticDirectory `config:"static"`

	// RootPath is the application root. Static content paths are
	// relative to it.
	RootPath string `config:"root_path" default:"."`

	// DisableCaches turns off the static content and view caches.
	DisableCaches bool `config:"disable_caches"`

	// DisableErrorTraces hides server error details from responses.
	DisableErrorTraces bool `config:"disable_error_traces" default:"true"`

	// Tracing collects a per-request trace log and writes it at debug
	// level when the request completes.
	Tracing bool `config:"tracing"`
}

type ServerSettings struct {
	Address           string        `config:"address" default:":8080"`
	H2C               bool          `config:"h2c"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout" default:"5s"`
	ReadTimeout       time.Duration `config:"read_timeout" default:"15s"`
	WriteTimeout      time.Duration `config:"write_timeout" default:"30s"`
	IdleTimeout       time.Duration `config:"idle_timeout" default:"60s"`
	ShutdownTimeout   time.Duration `config:"shutdown_timeout" default:"10s"`

	// AllowedOrigins enables CORS for the listed origins; "*" allows any.
	AllowedOrigins []string `config:"allowed_origins"`
}

type LoggingSettings struct {
	Level  string `config:"level" default:"info"`
	Format string `config:"format" default:"console"`
}

// DiagnosticsSettings configures the diagnostics dashboard. An empty
// password disables it.
type DiagnosticsSettings struct {
	Path           string        `config:"path" default:"/_Nancy"`
	Password       string        `config:"password"`
	CookieName     string        `config:"cookie_name" default:"__ncd"`
	SlidingTimeout time.Duration `config:"sliding_timeout" default:"15m"`

	// Passphrase and Salt derive the cookie keys. A random key pair is
	// generated at startup when Passphrase is empty, so cookies do not
	// survive a restart.
	Passphrase string `config:"passphrase"`
	Salt       string `config:"salt" default:"nancy-diagnostics"`
}

// MetricsSettings selects where request metrics are exported.
type MetricsSettings struct {
	Enabled bool `config:"enabled" default:"true"`

	// Provider is "prometheus", "otlp" or "stdout".
	Provider       string        `config:"provider" default:"prometheus"`
	Path           string        `config:"path" default:"/metrics"`
	OTLPEndpoint   string        `config:"otlp_endpoint"`
	ExportInterval time.Duration `config:"export_interval" default:"30s"`
	ServiceName    string        `config:"service_name" default:"nancy"`
}

// TracesSettings selects where request spans are exported.
type TracesSettings struct {
	// Provider is "none", "stdout", "otlp" or "otlp-http".
	Provider   string  `config:"provider" default:"none"`
	Endpoint   string  `config:"endpoint"`
	Insecure   bool    `config:"insecure"`
	SampleRate float64 `config:"sample_rate" default:"1"`
}

type StaticDirectory struct {
	RequestPath string   `config:"request_path"`
	ContentPath string   `config:"content_path"`
	Extensions  []string `config:"extensions"`
}

// DefaultSettings returns settings populated from their default tags.
func DefaultSettings() Settings {
	var s Settings
	if err := config.ApplyDefaults(&s); err != nil {
		panic("nancy: invalid settings defaults: " + err.Error())
	}
	return s
}
