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

package routing

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode is the compilation mode selected for a template.
type Mode uint8

const (
	// ModeLiteral templates are compared as plain text.
	ModeLiteral Mode = iota
	// ModeSimple templates contain {name} placeholders.
	ModeSimple
	// ModeRaw templates are regular expressions.
	ModeRaw
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeSimple:
		return "simple"
	case ModeRaw:
		return "raw"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// rawMarkers select raw mode for templates without placeholders. Other
// regex metacharacters are literal text in a route.
const rawMarkers = `([\`

// namedGroups mark a raw template even when it also holds braces.
var namedGroups = []string{"(?<", "(?P<"}

// placeholderPattern matches a {name} placeholder in a simple template.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Template is a compiled route template. It is immutable and safe for
// concurrent use.
type Template struct {
	raw        string
	normalized string
	mode       Mode
	re         *regexp.Regexp
	params     []string
}

// MatchResult is the outcome of matching a path against a template.
type MatchResult struct {
	IsMatch    bool
	Parameters map[string]string
}

// noMatch returns a negative result with an empty parameter map.
func noMatch() MatchResult {
	return MatchResult{Parameters: map[string]string{}}
}

// Compile compiles a route template.
func Compile(template string) (*Template, error) {
	t := &Template{
		raw:        template,
		normalized: normalizePath(template),
	}

	switch {
	case isRaw(t.normalized):
		t.mode = ModeRaw
		re, err := regexp.Compile("(?i)^(?:" + t.normalized + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidTemplate, template, err)
		}
		t.re = re
		for _, name := range re.SubexpNames() {
			if name != "" {
				t.params = append(t.params, name)
			}
		}

	case hasPlaceholder(t.normalized):
		t.mode = ModeSimple
		expr, params, err := compileSimple(t.normalized)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidTemplate, template, err)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidTemplate, template, err)
		}
		t.re = re
		t.params = params

	default:
		t.mode = ModeLiteral
	}

	return t, nil
}

// isRaw reports whether template is a regular expression: it declares a
// named group, or it has no placeholder and uses a group, class or escape.
func isRaw(template string) bool {
	for _, g := range namedGroups {
		if strings.Contains(template, g) {
			return true
		}
	}
	return !hasPlaceholder(template) && strings.ContainsAny(template, rawMarkers)
}

// hasPlaceholder reports whether template holds a {name} placeholder. All
// digit braces are regex repetition counts.
func hasPlaceholder(template string) bool {
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if strings.Trim(m[1], "0123456789") != "" {
			return true
		}
	}
	return false
}

// MustCompile is like Compile but panics if the template is invalid.
func MustCompile(template string) *Template {
	t, err := Compile(template)
	if err != nil {
		panic("routing: " + err.Error())
	}
	return t
}

// compileSimple escapes the literal text of a template and replaces every
// placeholder with a greedy named capture group.
func compileSimple(template string) (string, []string, error) {
	var b strings.Builder
	b.WriteString("(?i)^")

	var params []string
	seen := make(map[string]bool)
	last := 0

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(template, -1) {
		name := template[loc[2]:loc[3]]
		if seen[name] {
			return "", nil, fmt.Errorf("duplicate parameter %q", name)
		}
		seen[name] = true
		params = append(params, name)

		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		b.WriteString("(?P<")
		b.WriteString(name)
		b.WriteString(">.+)")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("$")

	return b.String(), params, nil
}

// normalizePath removes trailing slashes. The root path stays "/" and an
// empty path becomes "/". A slash escaped with a backslash is kept.
func normalizePath(p string) string {
	for len(p) > 1 && p[len(p)-1] == '/' && p[len(p)-2] != '\\' {
		p = p[:len(p)-1]
	}
	if p == "" {
		return "/"
	}
	return p
}

// Match matches a request path against the template.
func (t *Template) Match(path string) MatchResult {
	path = normalizePath(path)

	// The root path only ever matches the root template.
	if path == "/" || t.normalized == "/" {
		if path == t.normalized {
			return MatchResult{IsMatch: true, Parameters: map[string]string{}}
		}
		return noMatch()
	}

	if t.mode == ModeLiteral {
		if strings.EqualFold(path, t.normalized) {
			return MatchResult{IsMatch: true, Parameters: map[string]string{}}
		}
		return noMatch()
	}

	groups := t.re.FindStringSubmatch(path)
	if groups == nil {
		return noMatch()
	}

	params := make(map[string]string, len(t.params))
	for i, name := range t.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		params[name] = groups[i]
	}

	return MatchResult{IsMatch: true, Parameters: params}
}

// String returns the template as it was written.
func (t *Template) String() string { return t.raw }

// Mode returns the compilation mode.
func (t *Template) Mode() Mode { return t.mode }

// Params returns the parameter names in template order.
func (t *Template) Params() []string {
	out := make([]string, len(t.params))
	copy(out, t.params)
	return out
}

// Pattern returns the compiled regular expression, or "" for literal templates.
func (t *Template) Pattern() string {
	if t.re == nil {
		return ""
	}
	return t.re.String()
}
