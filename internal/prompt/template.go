// Package prompt renders flow prompt templates.
//
// Templates use pongo2 (Django) syntax: {{ field }} substitutes a context
// value and {% if field %}...{% else %}...{% endif %} includes a block only
// when the field is truthy. Missing fields render as the empty string.
// Empty strings, null and false are falsy; numbers are rendered as text
// before evaluation so 0 stays truthy.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Context is the data one invocation renders against.
type Context map[string]any

// Template is a compiled prompt template. It is safe for concurrent use.
type Template struct {
	source string
	tpl    *pongo2.Template
}

// Compile parses text. Syntax errors surface here, once, so that Render
// never has to fail.
func Compile(text string) (*Template, error) {
	// Prompts are plain text; autoescaping would turn & into &amp;.
	wrapped := "{% autoescape off %}" + text + "{% endautoescape %}"
	tpl, err := pongo2.FromString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("compile prompt template: %w", err)
	}
	return &Template{source: text, tpl: tpl}, nil
}

// MustCompile is Compile for templates embedded in the binary.
func MustCompile(text string) *Template {
	t, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Source returns the uncompiled template text.
func (t *Template) Source() string {
	return t.source
}

// Render expands the template. Missing fields and false conditions degrade
// to omitted text. An execution failure renders nothing; callers that must
// tell the difference use Execute.
func (t *Template) Render(ctx Context) string {
	out, err := t.Execute(ctx)
	if err != nil {
		return ""
	}
	return out
}

// Execute is Render that reports execution failures. Context keys that
// are not template identifiers, such as "job-id", are skipped since no
// template can refer to them.
func (t *Template) Execute(ctx Context) (string, error) {
	var buf bytes.Buffer
	if err := t.tpl.ExecuteWriter(normalize(ctx), &buf); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}

// Render compiles and renders text in one step. A template that does not
// compile renders as its literal text.
func Render(text string, ctx Context) string {
	t, err := Compile(text)
	if err != nil {
		return text
	}
	return t.Render(ctx)
}

func normalize(ctx Context) pongo2.Context {
	out := make(pongo2.Context, len(ctx))
	for k, v := range ctx {
		if !isIdentifier(k) {
			continue
		}
		out[k] = stringify(v)
	}
	return out
}

// isIdentifier reports whether name is usable as a pongo2 variable.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// stringify turns every value into what the prompt should contain while
// keeping nil and booleans so conditionals see their truthiness.
func stringify(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case []string:
		return strings.Join(val, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
