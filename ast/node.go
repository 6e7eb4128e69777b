// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the parse tree for gotl templates: a closed set of
// typed node variants, each tagged with the position and the id of the
// tree that owns it.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a byte offset into the source text a node was parsed from.
type Pos int

// Type identifies the concrete kind of a Node.
type Type int

const (
	NodeText Type = iota
	NodeList
	NodeAction
	NodeIf
	NodeWith
	NodeRange
	NodeTemplate
	NodePipe
	NodeCommand
	NodeField
	NodeChain
	NodeIdentifier
	NodeVariable
	NodeDot
	NodeNil
	NodeBool
	NodeNumber
	NodeString

	// nodeElse and nodeEnd are parse-time sentinels. They are produced by
	// the parser to signal where a body ends and are never retained in a
	// finished tree.
	nodeElse
	nodeEnd
)

func (t Type) String() string {
	switch t {
	case NodeText:
		return "text"
	case NodeList:
		return "list"
	case NodeAction:
		return "action"
	case NodeIf:
		return "if"
	case NodeWith:
		return "with"
	case NodeRange:
		return "range"
	case NodeTemplate:
		return "template"
	case NodePipe:
		return "pipe"
	case NodeCommand:
		return "command"
	case NodeField:
		return "field"
	case NodeChain:
		return "chain"
	case NodeIdentifier:
		return "identifier"
	case NodeVariable:
		return "variable"
	case NodeDot:
		return "dot"
	case NodeNil:
		return "nil"
	case NodeBool:
		return "bool"
	case NodeNumber:
		return "number"
	case NodeString:
		return "string"
	case nodeElse:
		return "else"
	case nodeEnd:
		return "end"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Node is an element of a parse tree.
type Node interface {
	Type() Type
	Pos() Pos
	Tree() int
	// Format renders the node back to a syntactically faithful string,
	// used in diagnostics.
	Format() string
}

type base struct {
	pos  Pos
	tree int
}

func (b base) Pos() Pos  { return b.pos }
func (b base) Tree() int { return b.tree }

// sentinel is the shape of the Else/End parse-time markers.
type sentinel struct {
	base
	typ Type
}

func (s *sentinel) Type() Type     { return s.typ }
func (s *sentinel) Format() string { return "{{" + s.typ.String() + "}}" }

// NewElse and NewEnd construct the parse-time sentinel nodes that signal
// where an {{if}}/{{with}}/{{range}}/{{define}} body ends.
func NewElse(tree int, pos Pos) Node { return &sentinel{base{pos, tree}, nodeElse} }
func NewEnd(tree int, pos Pos) Node  { return &sentinel{base{pos, tree}, nodeEnd} }

// IsEnd and IsElse let the parser recognize the sentinels without
// exposing the unexported type.
func IsEnd(n Node) bool  { return n.Type() == nodeEnd }
func IsElse(n Node) bool { return n.Type() == nodeElse }

// Text is literal text copied verbatim to the output.
type Text struct {
	base
	Text string
}

func NewText(tree int, pos Pos, text string) *Text {
	return &Text{base{pos, tree}, text}
}
func (t *Text) Type() Type     { return NodeText }
func (t *Text) Format() string { return t.Text }

// List holds a sequence of nodes executed in order.
type List struct {
	base
	Nodes []Node
}

func NewList(tree int, pos Pos) *List { return &List{base: base{pos, tree}} }
func (l *List) Append(n Node)         { l.Nodes = append(l.Nodes, n) }
func (l *List) Type() Type            { return NodeList }
func (l *List) Format() string {
	var sb strings.Builder
	for _, n := range l.Nodes {
		sb.WriteString(n.Format())
	}
	return sb.String()
}

// Action is a bare `{{ pipeline }}`.
type Action struct {
	base
	Pipe *Pipe
}

func NewAction(tree int, pos Pos, pipe *Pipe) *Action {
	return &Action{base{pos, tree}, pipe}
}
func (a *Action) Type() Type     { return NodeAction }
func (a *Action) Format() string { return "{{" + a.Pipe.Format() + "}}" }

// Branch is the shared shape of If, With, and Range.
type Branch struct {
	base
	typ      Type
	Pipe     *Pipe
	List     *List
	ElseList *List // nil if no {{else}}
}

func (b *Branch) Type() Type { return b.typ }
func (b *Branch) Format() string {
	var sb strings.Builder
	sb.WriteString("{{")
	sb.WriteString(b.typ.String())
	sb.WriteByte(' ')
	sb.WriteString(b.Pipe.Format())
	sb.WriteString("}}")
	sb.WriteString(b.List.Format())
	if b.ElseList != nil {
		sb.WriteString("{{else}}")
		sb.WriteString(b.ElseList.Format())
	}
	sb.WriteString("{{end}}")
	return sb.String()
}

type If struct{ Branch }
type With struct{ Branch }
type Range struct{ Branch }

func NewIf(tree int, pos Pos, pipe *Pipe, list, elseList *List) *If {
	return &If{Branch{base{pos, tree}, NodeIf, pipe, list, elseList}}
}
func NewWith(tree int, pos Pos, pipe *Pipe, list, elseList *List) *With {
	return &With{Branch{base{pos, tree}, NodeWith, pipe, list, elseList}}
}
func NewRange(tree int, pos Pos, pipe *Pipe, list, elseList *List) *Range {
	return &Range{Branch{base{pos, tree}, NodeRange, pipe, list, elseList}}
}

// Template is a `{{template "name" pipeline?}}` invocation.
type Template struct {
	base
	Name string
	Pipe *Pipe // nil if no argument pipeline was given
}

func NewTemplate(tree int, pos Pos, name string, pipe *Pipe) *Template {
	return &Template{base{pos, tree}, name, pipe}
}
func (t *Template) Type() Type { return NodeTemplate }
func (t *Template) Format() string {
	var sb strings.Builder
	sb.WriteString("{{template ")
	sb.WriteString(strconv.Quote(t.Name))
	if t.Pipe != nil {
		sb.WriteByte(' ')
		sb.WriteString(t.Pipe.Format())
	}
	sb.WriteString("}}")
	return sb.String()
}

// Pipe is a pipeline: optional variable declarations followed by one or
// more commands.
type Pipe struct {
	base
	Decl []*Variable // 0, 1, or 2 declared variables, in lexical order
	Cmds []*Command
}

func NewPipe(tree int, pos Pos) *Pipe { return &Pipe{base: base{pos, tree}} }
func (p *Pipe) Append(c *Command)     { p.Cmds = append(p.Cmds, c) }
func (p *Pipe) Type() Type            { return NodePipe }
func (p *Pipe) Format() string {
	var sb strings.Builder
	if len(p.Decl) > 0 {
		for i, v := range p.Decl {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.Format())
		}
		sb.WriteString(" := ")
	}
	for i, c := range p.Cmds {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(c.Format())
	}
	return sb.String()
}

// Command is one stage of a pipeline: a head expression followed by
// zero or more argument expressions.
type Command struct {
	base
	Args []Node
}

func NewCommand(tree int, pos Pos) *Command { return &Command{base: base{pos, tree}} }
func (c *Command) Append(n Node)            { c.Args = append(c.Args, n) }
func (c *Command) Type() Type               { return NodeCommand }
func (c *Command) Format() string {
	var sb strings.Builder
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p, ok := a.(*Pipe); ok {
			sb.WriteByte('(')
			sb.WriteString(p.Format())
			sb.WriteByte(')')
			continue
		}
		sb.WriteString(a.Format())
	}
	return sb.String()
}

// Field is a dot-separated chain of names applied to the current dot,
// e.g. ".a.b.c" -> Idents == []string{"a", "b", "c"}.
type Field struct {
	base
	Idents []string
}

// NewField accepts dotted with or without its leading period (the lexer's
// field text and the parser's own chain-rewriting both include it).
func NewField(tree int, pos Pos, dotted string) *Field {
	dotted = strings.TrimPrefix(dotted, ".")
	return &Field{base{pos, tree}, strings.Split(dotted, ".")}
}
func (f *Field) Type() Type { return NodeField }
func (f *Field) Format() string {
	var sb strings.Builder
	for _, id := range f.Idents {
		sb.WriteByte('.')
		sb.WriteString(id)
	}
	return sb.String()
}

// Chain is a term followed by one or more trailing field accesses,
// e.g. "(pipeline).a.b".
type Chain struct {
	base
	Node   Node
	Fields []string
}

func NewChain(tree int, pos Pos, node Node) *Chain {
	return &Chain{base: base{pos, tree}, Node: node}
}
func (c *Chain) Add(field string) { c.Fields = append(c.Fields, field) }
func (c *Chain) Type() Type        { return NodeChain }
func (c *Chain) Format() string {
	var sb strings.Builder
	if p, ok := c.Node.(*Pipe); ok {
		sb.WriteByte('(')
		sb.WriteString(p.Format())
		sb.WriteByte(')')
	} else {
		sb.WriteString(c.Node.Format())
	}
	for _, f := range c.Fields {
		sb.WriteByte('.')
		sb.WriteString(f)
	}
	return sb.String()
}

// Identifier names a registered function.
type Identifier struct {
	base
	Name string
}

func NewIdentifier(tree int, pos Pos, name string) *Identifier {
	return &Identifier{base{pos, tree}, name}
}
func (i *Identifier) Type() Type     { return NodeIdentifier }
func (i *Identifier) Format() string { return i.Name }

// Variable is a `$name(.field)*` reference.
type Variable struct {
	base
	Idents []string
}

func NewVariable(tree int, pos Pos, dotted string) *Variable {
	return &Variable{base{pos, tree}, strings.Split(dotted, ".")}
}
func (v *Variable) Type() Type { return NodeVariable }
func (v *Variable) Format() string {
	return strings.Join(v.Idents, ".")
}

// Dot is the cursor, `.`.
type Dot struct{ base }

func NewDot(tree int, pos Pos) *Dot { return &Dot{base{pos, tree}} }
func (d *Dot) Type() Type           { return NodeDot }
func (d *Dot) Format() string       { return "." }

// Nil is the untyped nil constant.
type Nil struct{ base }

func NewNil(tree int, pos Pos) *Nil { return &Nil{base{pos, tree}} }
func (n *Nil) Type() Type           { return NodeNil }
func (n *Nil) Format() string       { return "nil" }

// Bool is a boolean constant.
type Bool struct {
	base
	Val bool
}

func NewBool(tree int, pos Pos, v bool) *Bool { return &Bool{base{pos, tree}, v} }
func (b *Bool) Type() Type                    { return NodeBool }
func (b *Bool) Format() string {
	if b.Val {
		return "true"
	}
	return "false"
}

// Number is a numeric constant, stored under every representation it can
// assume, mirroring the source language's "ideal constant" behavior.
type Number struct {
	base
	IsInt   bool
	IsUint  bool
	IsFloat bool
	Int64   int64
	Uint64  uint64
	Float64 float64
	Text    string
}

func (n *Number) Type() Type     { return NodeNumber }
func (n *Number) Format() string { return n.Text }

// NewNumber parses text (as produced by the lexer's number scanner) into
// a Number node.
func NewNumber(tree int, pos Pos, text string) (*Number, error) {
	n := &Number{base: base{pos, tree}, Text: text}
	u, uerr := strconv.ParseUint(text, 0, 64)
	if uerr == nil {
		n.IsUint = true
		n.Uint64 = u
	}
	i, ierr := strconv.ParseInt(text, 0, 64)
	if ierr == nil {
		n.IsInt = true
		n.Int64 = i
		if i == 0 {
			n.IsUint = true
			n.Uint64 = u
		}
	}
	switch {
	case n.IsInt:
		n.IsFloat = true
		n.Float64 = float64(n.Int64)
	case n.IsUint:
		n.IsFloat = true
		n.Float64 = float64(n.Uint64)
	default:
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil {
			return nil, fmt.Errorf("illegal number syntax: %q", text)
		}
		if !strings.ContainsAny(text, ".eEpP") {
			return nil, fmt.Errorf("integer overflow: %q", text)
		}
		n.IsFloat = true
		n.Float64 = f
		if !n.IsInt && float64(int64(f)) == f {
			n.IsInt = true
			n.Int64 = int64(f)
		}
		if !n.IsUint && f >= 0 && float64(uint64(f)) == f {
			n.IsUint = true
			n.Uint64 = uint64(f)
		}
	}
	return n, nil
}

// NewCharNumber builds the Number node for a 'c' character constant: its
// own syntax, but a plain rune value like any other integer.
func NewCharNumber(tree int, pos Pos, r rune, text string) *Number {
	return &Number{
		base:    base{pos, tree},
		IsInt:   true,
		IsUint:  true,
		IsFloat: true,
		Int64:   int64(r),
		Uint64:  uint64(r),
		Float64: float64(r),
		Text:    text,
	}
}

// String is a string constant; Val has already had quote processing
// applied.
type String struct {
	base
	Quoted string
	Val    string
}

func NewString(tree int, pos Pos, quoted, val string) *String {
	return &String{base{pos, tree}, quoted, val}
}
func (s *String) Type() Type     { return NodeString }
func (s *String) Format() string { return s.Quoted }
