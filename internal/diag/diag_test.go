package diag_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/gotl/internal/diag"
	"github.com/mna/gotl/lex"
	"github.com/mna/gotl/parse"
)

func TestFormatErrorUsesPrettyPrinter(t *testing.T) {
	err := &lex.Error{Name: "t", Line: 3, Msg: "unterminated string"}
	out := diag.FormatError(err, false)
	assert.Equal(t, "template: t:3: unterminated string", out)
}

func TestFormatErrorFallsBackToError(t *testing.T) {
	err := errors.New("plain failure")
	assert.Equal(t, "plain failure", diag.FormatError(err, false))
}

func TestParseErrorPrettyPrintIncludesLexCause(t *testing.T) {
	cause := &lex.Error{Name: "t", Line: 2, Msg: "bad char"}
	err := &parse.Error{ParseName: "t", Line: 2, Msg: cause.Error(), Err: cause}

	var buf bytes.Buffer
	err.PrettyPrint(&buf, false)
	assert.Contains(t, buf.String(), "t:2:")
	assert.Contains(t, buf.String(), "caused by")
	assert.Contains(t, buf.String(), "bad char")
}
