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

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"

	"github.com/nancyfx/nancy"
	"github.com/nancyfx/nancy/metrics"
	"github.com/nancyfx/nancy/tracing"
)

type bannerInfo struct {
	Address     string
	H2C         bool
	Metrics     string
	Traces      string
	Diagnostics string
	Static      []string
	Info        nancy.Info
}

func (srv *server) banner() bannerInfo {
	b := bannerInfo{
		Address: srv.settings.Server.Address,
		H2C:     srv.settings.Server.H2C,
		Info:    srv.engine.Info(),
	}
	if srv.recorder != nil {
		b.Metrics = string(srv.recorder.Provider())
		if srv.recorder.Provider() == metrics.PrometheusProvider {
			b.Metrics += " " + srv.settings.Metrics.Path
		}
	}
	if p := srv.tracer.Provider(); p != tracing.NoneProvider {
		b.Traces = string(p)
	}
	if srv.settings.Diagnostics.Password != "" {
		b.Diagnostics = srv.settings.Diagnostics.Path
	}
	for _, d := range srv.settings.Static {
		b.Static = append(b.Static, "/"+strings.Trim(d.RequestPath, "/"))
	}
	return b
}

var methodColors = map[string]string{
	http.MethodGet:    "10",
	http.MethodPost:   "12",
	http.MethodPut:    "11",
	http.MethodDelete: "9",
	http.MethodPatch:  "13",
}

// printBanner writes the startup banner. Colors are downsampled to what w
// supports and stripped when w is not a terminal.
func printBanner(w io.Writer, b bannerInfo) {
	out := colorprofile.NewWriter(w, os.Environ())

	gradient := []string{"12", "14", "10", "11"}
	var art strings.Builder
	for _, line := range figure.NewFigure("Nancy", "", false).Slicify() {
		for i, r := range line {
			art.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(gradient[i%len(gradient)])).
				Bold(true).
				Render(string(r)))
		}
		art.WriteString("\n")
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	off := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	row := func(name, v string) string {
		if v == "" {
			return label.Render(name+":") + "  " + off.Render("Disabled") + "\n"
		}
		return label.Render(name+":") + "  " + value.Render(v) + "\n"
	}

	addr := b.Address
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	protocol := "HTTP/1.1"
	if b.H2C {
		protocol += ", h2c"
	}

	var body strings.Builder
	body.WriteString(row("Version", b.Info.Version))
	body.WriteString(row("Address", "http://"+addr))
	body.WriteString(row("Protocol", protocol))
	body.WriteString(row("Metrics", b.Metrics))
	body.WriteString(row("Tracing", b.Traces))
	body.WriteString(row("Diagnostics", b.Diagnostics))
	body.WriteString(row("Views", strings.Join(b.Info.ViewEngines, ", ")))
	body.WriteString(row("Static", strings.Join(b.Static, ", ")))

	fmt.Fprintln(out)
	fmt.Fprint(out, art.String())
	fmt.Fprint(out, body.String())
	if len(b.Info.Routes) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, routesTable(b.Info.Routes))
	}
	fmt.Fprintln(out)
}

func routesTable(routes []nancy.RouteInfo) string {
	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		method := r.Method
		if color, ok := methodColors[method]; ok {
			method = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(method)
		}
		rows = append(rows, []string{method, r.Path, r.Mode})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Method", "Path", "Mode").
		Rows(rows...).
		String()
}
