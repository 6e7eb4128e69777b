package lex

import (
	"fmt"
	"io"

	"github.com/mna/gotl/internal/diag"
)

// Error is a lexical failure: an unterminated string, action, or
// comment, or an unrecognized character. The lexer itself reports this
// as a terminal ItemError in its item stream; Error gives the parser,
// which is the only consumer of that stream, a typed value to wrap and
// propagate.
type Error struct {
	Name string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template: %s:%d: %s", e.Name, e.Line, e.Msg)
}

// PrettyPrint implements diag.PrettyPrinter.
func (e *Error) PrettyPrint(w io.Writer, colored bool) {
	diag.Location(w, "template: "+e.Name, e.Line, e.Msg, colored)
}
