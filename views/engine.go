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

package views

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// Engine compiles view sources of the extensions it declares.
type Engine interface {
	// Extensions lists the file extensions handled, without dots.
	Extensions() []string

	Compile(name string, source []byte) (View, error)
}

// View is a compiled view.
type View interface {
	Render(w io.Writer, model any) error
}

// ViewFunc adapts a function to [View].
type ViewFunc func(w io.Writer, model any) error

func (f ViewFunc) Render(w io.Writer, model any) error { return f(w, model) }

// TemplateEngine renders html/template views. Models are passed as the
// template's dot.
type TemplateEngine struct {
	extensions []string
	funcs      template.FuncMap
}

// NewTemplateEngine creates an engine for .html and .gohtml files. funcs
// may be nil.
func NewTemplateEngine(funcs template.FuncMap) *TemplateEngine {
	base := template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join":  strings.Join,
	}
	for k, v := range funcs {
		base[k] = v
	}
	return &TemplateEngine{extensions: []string{"html", "gohtml"}, funcs: base}
}

func (e *TemplateEngine) Extensions() []string { return e.extensions }

func (e *TemplateEngine) Compile(name string, source []byte) (View, error) {
	t, err := template.New(name).Funcs(e.funcs).Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("compile view %s: %w", name, err)
	}
	return ViewFunc(func(w io.Writer, model any) error {
		return t.Execute(w, model)
	}), nil
}

// StaticEngine serves .htm files verbatim, ignoring the model.
type StaticEngine struct{}

func (StaticEngine) Extensions() []string { return []string{"htm"} }

func (StaticEngine) Compile(_ string, source []byte) (View, error) {
	return ViewFunc(func(w io.Writer, _ any) error {
		_, err := w.Write(source)
		return err
	}), nil
}
