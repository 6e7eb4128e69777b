// Package tmpl is the thin façade spec.md §6 calls for over the
// lower-level lex/parse/exec/value/funcs packages: a Render
// one-shot entry point, and a Template type for parse-once,
// execute-many use with user-registered functions.
package tmpl

import (
	"bytes"
	"io"

	"github.com/mna/gotl/exec"
	"github.com/mna/gotl/funcs"
	"github.com/mna/gotl/parse"
	"github.com/mna/gotl/value"
)

// Template is a parsed forest plus the function registry it executes
// against. The zero value is not usable; construct one with Parse.
// A *Template may be shared across concurrent Execute/Render calls:
// the forest is read-only after parsing, and each call gets its own
// exec.State per spec.md §5's concurrency model.
type Template struct {
	name   string
	forest *parse.Forest
	funcs  *funcs.Registry
}

// Parse parses text under name, returning a Template ready to execute.
func Parse(name, text string) (*Template, error) {
	forest, err := parse.Parse(name, text)
	if err != nil {
		return nil, err
	}
	return &Template{name: name, forest: forest, funcs: funcs.NewRegistry()}, nil
}

// AddFunctions registers user functions; a name already present, built
// in or user-registered, is shadowed by this call.
func (t *Template) AddFunctions(fns map[string]funcs.Func) {
	t.funcs.Add(fns)
}

// Execute renders the template's main definition, writing to w.
func (t *Template) Execute(w io.Writer, dot value.Value) error {
	return exec.New(t.forest, t.funcs).Execute(w, dot)
}

// ExecuteTemplate renders the named tree within the forest instead of
// the main definition, for templates that define more than one named
// body via {{define}}/{{block}}.
func (t *Template) ExecuteTemplate(w io.Writer, name string, dot value.Value) error {
	return exec.New(t.forest, t.funcs).ExecuteTemplate(w, name, dot)
}

// Render executes the template and returns the result as a string.
func (t *Template) Render(dot value.Value) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, dot); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render is the one-shot entry point: parse text under name, execute
// it against dot, and return the rendered output.
func Render(name, text string, dot value.Value) (string, error) {
	t, err := Parse(name, text)
	if err != nil {
		return "", err
	}
	return t.Render(dot)
}
