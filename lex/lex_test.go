// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typesOf(items []Item) []Type {
	types := make([]Type, len(items))
	for i, it := range items {
		types[i] = it.Type
	}
	return types
}

func TestLexText(t *testing.T) {
	items := Tokenize("text", "now is the time")
	require.Len(t, items, 2)
	assert.Equal(t, ItemText, items[0].Type)
	assert.Equal(t, "now is the time", items[0].Val)
	assert.Equal(t, ItemEOF, items[1].Type)
}

func TestLexEmpty(t *testing.T) {
	items := Tokenize("empty", "")
	require.Len(t, items, 1)
	assert.Equal(t, ItemEOF, items[0].Type)
}

func TestLexSimpleAction(t *testing.T) {
	items := Tokenize("action", "hello {{.}} world")
	assert.Equal(t,
		[]Type{ItemText, ItemLeftDelim, ItemDot, ItemRightDelim, ItemText, ItemEOF},
		typesOf(items),
	)
}

func TestLexField(t *testing.T) {
	items := Tokenize("field", "{{.Name.First}}")
	require.Len(t, items, 4)
	assert.Equal(t, ItemField, items[1].Type)
	assert.Equal(t, ".Name.First", items[1].Val)
}

func TestLexVariable(t *testing.T) {
	items := Tokenize("var", "{{$v := .X}}")
	assert.Equal(t,
		[]Type{ItemLeftDelim, ItemVariable, ItemSpace, ItemColonEquals, ItemSpace, ItemField, ItemRightDelim, ItemEOF},
		typesOf(items),
	)
}

func TestLexKeywords(t *testing.T) {
	for word, typ := range keywords {
		items := Tokenize("kw", "{{"+word+"}}")
		require.Len(t, items, 4, word)
		assert.Equal(t, typ, items[1].Type, word)
	}
}

func TestLexPipe(t *testing.T) {
	items := Tokenize("pipe", "{{.X | len}}")
	assert.Equal(t,
		[]Type{ItemLeftDelim, ItemField, ItemSpace, ItemPipe, ItemSpace, ItemIdentifier, ItemRightDelim, ItemEOF},
		typesOf(items),
	)
}

func TestLexStrings(t *testing.T) {
	items := Tokenize("str", `{{"a\"b"}}{{` + "`raw`" + `}}`)
	require.True(t, len(items) >= 2)
	assert.Equal(t, ItemString, items[1].Type)
}

func TestLexUnterminatedString(t *testing.T) {
	items := Tokenize("bad", `{{"abc}}`)
	last := items[len(items)-1]
	assert.Equal(t, ItemError, last.Type)
	assert.Contains(t, last.Val, "unterminated quoted string")
}

func TestLexUnclosedAction(t *testing.T) {
	items := Tokenize("bad", `{{if`)
	last := items[len(items)-1]
	assert.Equal(t, ItemError, last.Type)
	assert.Contains(t, last.Val, "unclosed action")
}

func TestLexNumbers(t *testing.T) {
	for _, n := range []string{"1", "1.5", "0x1F", "-3", "+3", "0b101", "0o17"} {
		items := Tokenize("num", "{{"+n+"}}")
		require.Len(t, items, 4, n)
		assert.Equal(t, ItemNumber, items[1].Type, n)
		assert.Equal(t, n, items[1].Val, n)
	}
}

func TestLexTrimMarkers(t *testing.T) {
	items := Tokenize("trim", "A {{- .X -}} B")
	require.Len(t, items, 6)
	assert.Equal(t, ItemText, items[0].Type)
	assert.Equal(t, "A", items[0].Val)
	assert.Equal(t, ItemText, items[4].Type)
	assert.Equal(t, "B", items[4].Val)
}

func TestLexComment(t *testing.T) {
	items := Tokenize("comment", "A{{/* ignored */}}B")
	require.Len(t, items, 3)
	assert.Equal(t, "A", items[0].Val)
	assert.Equal(t, "B", items[1].Val)
}

func TestLexLineNumbers(t *testing.T) {
	items := Tokenize("lines", "a\n{{.X}}\nb")
	var fieldItem Item
	for _, it := range items {
		if it.Type == ItemField {
			fieldItem = it
		}
	}
	assert.Equal(t, 2, fieldItem.Line)
}
