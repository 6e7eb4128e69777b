package exec

import (
	"fmt"
	"io"

	"golang.org/x/xerrors"

	"github.com/mna/gotl/internal/diag"
)

// Error is a failure raised while walking a parsed tree: a missing
// field, a function call that errored, an out-of-range index, an
// invalid range target, or recursion past the depth limit. Its format
// mirrors parse.Error so a caller formatting both sees one family of
// diagnostic. When Err is set (the error from a failed value Field/Format
// call, or the error returned by a registered function), Error chains
// onto it via xerrors so callers can xerrors.As/Is through to the root
// cause.
type Error struct {
	Name string // name of the tree being executed when the error occurred
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("template: %s: %s", e.Name, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// FormatError implements xerrors.Formatter so a caller printing with
// "%+v" sees the full chain down to the underlying cause, if any.
func (e *Error) FormatError(p xerrors.Printer) error {
	p.Printf("template: %s: %s", e.Name, e.Msg)
	return e.Err
}

func (e *Error) Format(f fmt.State, c rune) { xerrors.FormatError(e, f, c) }

// PrettyPrint implements diag.PrettyPrinter.
func (e *Error) PrettyPrint(w io.Writer, colored bool) {
	diag.Location(w, "template: "+e.Name, 0, e.Msg, colored)
}
