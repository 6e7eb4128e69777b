// Package diag renders the error types exported by lex, parse, and exec
// as colorized, human-facing diagnostics, the way parser.FormatError
// does for the teacher's YAML parser.
package diag

import (
	"bytes"
	"io"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/xerrors"
)

// PrettyPrinter is implemented by an error that knows how to render
// itself as a location plus a message, optionally colorized. lex.Error,
// parse.Error, and exec.Error all implement it.
type PrettyPrinter interface {
	error
	PrettyPrint(w io.Writer, colored bool)
}

// FormatError renders e using its PrettyPrinter implementation, if it
// (or something in its xerrors chain) has one; otherwise it falls back
// to e.Error().
func FormatError(e error, colored bool) string {
	var pp PrettyPrinter
	if xerrors.As(e, &pp) {
		var buf bytes.Buffer
		pp.PrettyPrint(&buf, colored)
		return buf.String()
	}
	return e.Error()
}

// Location writes a bold "name:line:" prefix, then msg in red, to w.
// Shared by lex.Error/parse.Error/exec.Error's PrettyPrint methods so
// all three diagnostics line up visually.
func Location(w io.Writer, name string, line int, msg string, colored bool) {
	prefix := name + ": "
	if line > 0 {
		prefix = name + ":" + strconv.Itoa(line) + ": "
	}
	if !colored {
		io.WriteString(w, prefix)
		io.WriteString(w, msg)
		return
	}

	bold := color.New(color.Bold, color.FgHiWhite).SprintFunc()
	red := color.New(color.FgHiRed).SprintFunc()
	io.WriteString(w, bold(prefix))
	io.WriteString(w, red(msg))
}
