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
	"net/http"
	"runtime"
	"slices"
	"strings"
)

// Info describes a running engine for the diagnostics dashboard.
type Info struct {
	Version  string       `json:"version"`
	Settings InfoSettings `json:"settings"`
	Hosting  InfoHosting  `json:"hosting"`

	ViewEngines []string    `json:"viewEngines"`
	Processors  []string    `json:"responseProcessors"`
	Routes      []RouteInfo `json:"routes"`

	StaticConventions int `json:"staticConventions"`
}

type InfoSettings struct {
	CachesDisabled      bool   `json:"cachesDisabled"`
	TracesDisabled      bool   `json:"tracesDisabled"`
	CaseSensitivity     string `json:"caseSensitivity"`
	RootPath            string `json:"rootPath"`
	DiagnosticsPath     string `json:"diagnosticsPath"`
	RequestTracing      bool   `json:"requestTracing"`
	StaticDirectoryRoot string `json:"staticDirectoryRoot,omitempty"`
}

type InfoHosting struct {
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	H2C       bool   `json:"h2c"`
}

// RouteInfo is a registered route.
type RouteInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Mode   string `json:"mode"`
}

// Routes lists the registered routes in registration order.
func (e *Engine) Routes() []RouteInfo {
	routes := e.table.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteInfo{Method: r.Method, Path: r.Path, Mode: r.Template.Mode().String()})
	}
	return out
}

// Info reports the engine configuration.
func (e *Engine) Info() Info {
	e.mu.Lock()
	conventions := len(e.conventions)
	e.mu.Unlock()

	info := Info{
		Version: Version,
		Settings: InfoSettings{
			CachesDisabled:  e.settings.DisableCaches,
			TracesDisabled:  e.settings.DisableErrorTraces,
			CaseSensitivity: "insensitive",
			RootPath:        e.settings.RootPath,
			DiagnosticsPath: e.settings.Diagnostics.Path,
			RequestTracing:  e.settings.Tracing,
		},
		Hosting: InfoHosting{
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			H2C:       e.settings.Server.H2C,
		},
		Routes:            e.Routes(),
		StaticConventions: conventions,
	}
	if e.views != nil {
		info.ViewEngines = slices.Clone(e.views.Extensions())
	}
	for _, p := range e.processors {
		info.Processors = append(info.Processors, strings.Join(p.MediaTypes(), ", "))
	}
	return info
}

// InfoHandler serves [Engine.Info] as JSON.
func (e *Engine) InfoHandler() Handler {
	return func(*Context) (*Response, error) {
		return JSON(http.StatusOK, e.Info())
	}
}
