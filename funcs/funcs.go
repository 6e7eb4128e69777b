// Package funcs implements the evaluator's function registry: a search
// path of name-to-callable mappings, the built-ins named in §4.5, and
// the handful the original gtmpl-rust implementation carries alongside
// them (see SPEC_FULL.md §5).
package funcs

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mna/gotl/value"
)

// Func is a registered callable: it receives its arguments already
// evaluated and returns a result or an error.
type Func func(args []value.Value) (value.Value, error)

// Registry is a search path of name->Func mappings. Built-ins occupy
// the bottom of the path; Add layers a user map on top, and lookup
// scans from the top down so later registrations shadow earlier ones.
type Registry struct {
	layers []map[string]Func
}

// NewRegistry returns a registry seeded with the built-ins. "call" is
// added as its own layer just above the other built-ins because,
// unlike the rest of them, it needs to look functions up by name
// through the registry itself.
func NewRegistry() *Registry {
	r := &Registry{layers: []map[string]Func{builtins}}
	r.layers = append(r.layers, map[string]Func{
		"call": func(args []value.Value) (value.Value, error) {
			if len(args) < 1 || args[0].Kind() != value.KindString {
				return value.Value{}, fmt.Errorf("call: first argument must be a function name")
			}
			fn, ok := r.Lookup(args[0].AsString())
			if !ok {
				return value.Value{}, fmt.Errorf("call: function %q not defined", args[0].AsString())
			}
			return fn(args[1:])
		},
	})
	return r
}

// Add layers funcs on top of the registry; names in funcs shadow any
// earlier registration, including built-ins.
func (r *Registry) Add(funcs map[string]Func) {
	r.layers = append(r.layers, funcs)
}

// Lookup returns the function registered for name, searching from the
// most recently added layer down to the built-ins.
func (r *Registry) Lookup(name string) (Func, bool) {
	for i := len(r.layers) - 1; i >= 0; i-- {
		if fn, ok := r.layers[i][name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Has reports whether name is registered at all.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

var builtins = map[string]Func{
	"eq":       eq,
	"ne":       ne,
	"lt":       lt,
	"le":       le,
	"gt":       gt,
	"ge":       ge,
	"len":      Len,
	"and":      and,
	"or":       or,
	"not":      not,
	"urlquery": urlquery,
	"print":    Print,
	"printf":   Printf,
	"println":  Println,
	"index":    index,
	"slice":    slice,
}

// Names returns the names registered in r, across every layer, for
// diagnostics.
func (r *Registry) Names() []string {
	seen := map[string]bool{}
	var names []string
	for _, layer := range r.layers {
		for name := range layer {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func requireArity(name string, args []value.Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return fmt.Errorf("wrong number of args for %s", name)
	}
	return nil
}

func eq(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, fmt.Errorf("eq requires at least 2 arguments")
	}
	first := args[0]
	for _, a := range args[1:] {
		if !first.Equal(a) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func ne(args []value.Value) (value.Value, error) {
	if err := requireArity("ne", args, 2, 2); err != nil {
		return value.Value{}, err
	}
	eqv, err := eq(args)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(!eqv.AsBool()), nil
}

func orderedCompare(name string, args []value.Value, ok func(int) bool) (value.Value, error) {
	if err := requireArity(name, args, 2, 2); err != nil {
		return value.Value{}, err
	}
	c, err := args[0].Compare(args[1])
	if err != nil {
		return value.Value{}, fmt.Errorf("%s: %w", name, err)
	}
	return value.Bool(ok(c)), nil
}

func lt(args []value.Value) (value.Value, error) {
	return orderedCompare("lt", args, func(c int) bool { return c < 0 })
}
func le(args []value.Value) (value.Value, error) {
	return orderedCompare("le", args, func(c int) bool { return c <= 0 })
}
func gt(args []value.Value) (value.Value, error) {
	return orderedCompare("gt", args, func(c int) bool { return c > 0 })
}
func ge(args []value.Value) (value.Value, error) {
	return orderedCompare("ge", args, func(c int) bool { return c >= 0 })
}

// Len implements the len built-in. Per SPEC_FULL.md §5.1, string length
// is measured in bytes, not Unicode scalars.
func Len(args []value.Value) (value.Value, error) {
	if err := requireArity("len", args, 1, 1); err != nil {
		return value.Value{}, err
	}
	n, err := args[0].Len()
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(n)), nil
}

func and(args []value.Value) (value.Value, error) {
	if err := requireArity("and", args, 1, -1); err != nil {
		return value.Value{}, err
	}
	result := args[0]
	for _, a := range args {
		result = a
		if !a.Truthy() {
			return result, nil
		}
	}
	return result, nil
}

func or(args []value.Value) (value.Value, error) {
	if err := requireArity("or", args, 1, -1); err != nil {
		return value.Value{}, err
	}
	result := args[0]
	for _, a := range args {
		result = a
		if a.Truthy() {
			return result, nil
		}
	}
	return result, nil
}

func not(args []value.Value) (value.Value, error) {
	if err := requireArity("not", args, 1, 1); err != nil {
		return value.Value{}, err
	}
	return value.Bool(!args[0].Truthy()), nil
}

func urlquery(args []value.Value) (value.Value, error) {
	if err := requireArity("urlquery", args, 1, 1); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind() != value.KindString {
		return value.Value{}, fmt.Errorf("urlquery: argument must be a string")
	}
	return value.String(url.QueryEscape(args[0].AsString())), nil
}

func formatArg(v value.Value) string {
	s, err := v.Format()
	if err != nil {
		return fmt.Sprintf("%%!format(%s)", v.Kind())
	}
	return s
}

// Print concatenates its arguments' formatted forms with a space
// between operands when neither is a string, mirroring fmt.Sprint.
func Print(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	var sb strings.Builder
	for i, p := range args {
		if i > 0 && p.Kind() != value.KindString && args[i-1].Kind() != value.KindString {
			sb.WriteByte(' ')
		}
		sb.WriteString(parts[i])
	}
	return value.String(sb.String()), nil
}

// Println joins its arguments' formatted forms with a space and a
// trailing newline, mirroring fmt.Sprintln.
func Println(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	return value.String(strings.Join(parts, " ") + "\n"), nil
}

// Printf formats args[1:] according to the format string in args[0],
// mirroring fmt.Sprintf with each value's Format() substituted for %v.
func Printf(args []value.Value) (value.Value, error) {
	if len(args) == 0 || args[0].Kind() != value.KindString {
		return value.Value{}, fmt.Errorf("printf: first argument must be a format string")
	}
	format := args[0].AsString()
	rest := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		rest[i] = formatArg(a)
	}
	return value.String(fmt.Sprintf(format, rest...)), nil
}

func index(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, fmt.Errorf("index: requires at least 2 arguments")
	}
	cur := args[0]
	for _, key := range args[1:] {
		v, err := cur.Index(key)
		if err != nil {
			return value.Value{}, err
		}
		cur = v
	}
	return cur, nil
}

func slice(args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return value.Value{}, fmt.Errorf("slice: wrong number of arguments")
	}
	if args[0].Kind() != value.KindArray {
		return value.Value{}, fmt.Errorf("slice: first argument must be an array")
	}
	arr := args[0].AsArray()
	lo, hi := 0, len(arr)
	if len(args) > 1 {
		if !args[1].IsNumber() {
			return value.Value{}, fmt.Errorf("slice: index must be a number")
		}
		lo = int(args[1].Float64())
	}
	if len(args) > 2 {
		if !args[2].IsNumber() {
			return value.Value{}, fmt.Errorf("slice: index must be a number")
		}
		hi = int(args[2].Float64())
	}
	if lo < 0 || hi > len(arr) || lo > hi {
		return value.Value{}, fmt.Errorf("slice: index out of range")
	}
	return value.Array(arr[lo:hi]...), nil
}
