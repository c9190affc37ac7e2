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

package errors

import (
	"bytes"
	"html/template"
	"net/http"
)

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Status}} {{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 4em auto; max-width: 48em; color: #333; }
h1 { font-weight: normal; }
pre { background: #f5f5f5; padding: 1em; overflow: auto; }
</style>
</head>
<body>
<h1>{{.Status}} - {{.Title}}</h1>
<p>{{.Message}}</p>
{{- if .Trace}}
<pre>{{.Trace}}</pre>
{{- end}}
</body>
</html>
`))

// HTML renders errors as a small HTML status page.
type HTML struct {
	// ShowTraces includes the error text on 5xx pages. Client errors always
	// show their message.
	ShowTraces bool

	// StatusResolver overrides [StatusOf] when set.
	StatusResolver func(err error) int
}

// NewHTML creates an HTML formatter.
func NewHTML(showTraces bool) *HTML { return &HTML{ShowTraces: showTraces} }

// Format implements [Formatter].
func (f *HTML) Format(_ *http.Request, err error) Response {
	status := StatusOf(err)
	if f.StatusResolver != nil {
		status = f.StatusResolver(err)
	}

	data := struct {
		Status  int
		Title   string
		Message string
		Trace   string
	}{Status: status, Title: http.StatusText(status)}

	switch {
	case status < http.StatusInternalServerError:
		data.Message = err.Error()
	case f.ShowTraces:
		data.Message = "Something went wrong while processing the request."
		data.Trace = err.Error()
	default:
		data.Message = "Something went wrong while processing the request."
	}

	var buf bytes.Buffer
	if execErr := statusPage.Execute(&buf, data); execErr != nil {
		buf.Reset()
		buf.WriteString(http.StatusText(status))
	}

	return Response{
		Status:      status,
		ContentType: "text/html; charset=utf-8",
		Raw:         buf.Bytes(),
		Headers:     HeadersOf(err),
	}
}
