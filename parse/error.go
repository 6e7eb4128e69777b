package parse

import (
	"fmt"
	"io"

	"golang.org/x/xerrors"

	"github.com/mna/gotl/internal/diag"
)

// Error is a parse-time failure: an unexpected token, a malformed
// pipeline, a duplicate template definition, or an undeclared variable
// reference. Its Error() form matches spec.md §4.3's diagnostic shape:
// "template: <parse_name>:<line>:<msg>". When Err is set (typically a
// *lex.Error bubbled up through the token stream), Error chains onto it
// via xerrors so callers can xerrors.As/Is through to the root cause.
type Error struct {
	ParseName string
	Line      int
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("template: %s:%d: %s", e.ParseName, e.Line, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// FormatError implements xerrors.Formatter so a caller printing with
// "%+v" sees the full chain down to the lex error, if any.
func (e *Error) FormatError(p xerrors.Printer) error {
	p.Printf("template: %s:%d: %s", e.ParseName, e.Line, e.Msg)
	return e.Err
}

func (e *Error) Format(f fmt.State, c rune) { xerrors.FormatError(e, f, c) }

// PrettyPrint implements diag.PrettyPrinter. When Err is itself a
// diag.PrettyPrinter (a *lex.Error), its rendering is appended so the
// lexical cause is visible alongside the parse-level message.
func (e *Error) PrettyPrint(w io.Writer, colored bool) {
	diag.Location(w, "template: "+e.ParseName, e.Line, e.Msg, colored)
	if pp, ok := e.Err.(diag.PrettyPrinter); ok {
		io.WriteString(w, "\n\tcaused by: ")
		pp.PrettyPrint(w, colored)
	}
}
