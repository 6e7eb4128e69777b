// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse builds a forest of named parse trees from a template's
// lexical item stream, with full pipeline and variable-declaration
// syntax (spec.md §4.3).
package parse

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/mna/gotl/ast"
	"github.com/mna/gotl/lex"
)

// parser holds the state of one recursive-descent parse of a single
// source text, which may define more than one named tree via
// {{define}}/{{block}}.
type parser struct {
	parseName string
	lex       *lex.Lexer
	token     [3]lex.Item // three-item lookahead
	peekCount int
	forest    *Forest
	tree      *Tree // the tree currently being built
}

// Parse parses text, naming its main tree name. Nested {{define}} and
// {{block}} bodies become additional trees in the returned forest.
func Parse(name, text string) (forest *Forest, err error) {
	return ParseDelims(name, text, "", "")
}

// ParseDelims is Parse with explicit action delimiters; an empty string
// for either uses the default "{{"/"}}".
func ParseDelims(name, text, leftDelim, rightDelim string) (forest *Forest, err error) {
	p := &parser{parseName: name, forest: NewForest()}
	defer p.recover(&err)

	p.lex = lex.New(name, text, leftDelim, rightDelim)
	p.tree = p.forest.allocTree(name, name)
	p.tree.Vars = []string{"$"}
	p.parse()
	if err := p.forest.define(p.tree); err != nil {
		p.error(err)
	}
	return p.forest, nil
}

// --- token stream -----------------------------------------------------

func (p *parser) next() lex.Item {
	if p.peekCount > 0 {
		p.peekCount--
	} else {
		p.token[0] = p.lex.NextItem()
	}
	return p.token[p.peekCount]
}

func (p *parser) backup() { p.peekCount++ }

func (p *parser) backup2(t1 lex.Item) {
	p.token[1] = t1
	p.peekCount = 2
}

func (p *parser) backup3(t2, t1 lex.Item) {
	p.token[1] = t1
	p.token[2] = t2
	p.peekCount = 3
}

func (p *parser) peek() lex.Item {
	if p.peekCount > 0 {
		return p.token[p.peekCount-1]
	}
	p.peekCount = 1
	p.token[0] = p.lex.NextItem()
	return p.token[0]
}

func (p *parser) nextNonSpace() (item lex.Item) {
	for {
		item = p.next()
		if item.Type != lex.ItemSpace {
			break
		}
	}
	return item
}

func (p *parser) peekNonSpace() lex.Item {
	item := p.nextNonSpace()
	p.backup()
	return item
}

// --- error handling -----------------------------------------------------

func (p *parser) errorf(format string, args ...interface{}) {
	panic(&Error{ParseName: p.parseName, Line: p.token[0].Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) error(err error) {
	panic(&Error{ParseName: p.parseName, Line: p.token[0].Line, Msg: err.Error(), Err: err})
}

func (p *parser) unexpected(item lex.Item, context string) {
	p.errorf("unexpected %s in %s", item, context)
}

// lexError converts a terminal lex.ItemError token into a *lex.Error and
// propagates it as the cause of a parse.Error.
func (p *parser) lexError(item lex.Item) {
	p.error(&lex.Error{Name: p.parseName, Line: item.Line, Msg: item.Val})
}

func (p *parser) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	if p.lex != nil {
		p.lex.Drain()
	}
	*errp = e.(error)
}

func (p *parser) expect(expected lex.Type, context string) lex.Item {
	item := p.nextNonSpace()
	if item.Type != expected {
		p.unexpected(item, context)
	}
	return item
}

func (p *parser) expectOneOf(a, b lex.Type, context string) lex.Item {
	item := p.nextNonSpace()
	if item.Type != a && item.Type != b {
		p.unexpected(item, context)
	}
	return item
}

// --- variable scope -----------------------------------------------------

func (p *parser) pushVars() int { return len(p.tree.Vars) }

func (p *parser) popVars(n int) { p.tree.Vars = p.tree.Vars[:n] }

func (p *parser) declareVar(name string) {
	p.tree.Vars = append(p.tree.Vars, name)
}

// useVar resolves a $name reference, erroring if it was never declared
// in the current tree's parse-time scope.
func (p *parser) useVar(pos ast.Pos, dotted string) *ast.Variable {
	v := ast.NewVariable(p.tree.ID, pos, dotted)
	for _, name := range p.tree.Vars {
		if name == v.Idents[0] {
			return v
		}
	}
	p.errorf("undefined variable %q", v.Idents[0])
	return nil
}

// --- grammar -----------------------------------------------------

// parse is the top-level loop: text/action interleaved with {{define}}
// blocks, which spin off their own tree. Runs to EOF.
func (p *parser) parse() {
	p.tree.Root = ast.NewList(p.tree.ID, 0)
	for p.peek().Type != lex.ItemEOF {
		if p.peek().Type == lex.ItemLeftDelim {
			delim := p.next()
			if p.nextNonSpace().Type == lex.ItemDefine {
				p.parseDefinition()
				continue
			}
			p.backup2(delim)
		}
		n := p.textOrAction()
		if n == nil {
			continue
		}
		if ast.IsEnd(n) || ast.IsElse(n) {
			p.errorf("unexpected %s", n.Format())
		}
		p.tree.Root.Append(n)
	}
}

// parseDefinition parses a {{define "name"}} ... {{end}} and installs
// it as a new tree in the forest. The "define" keyword is already
// consumed.
func (p *parser) parseDefinition() {
	const context = "define clause"
	nameItem := p.expectOneOf(lex.ItemString, lex.ItemRawString, context)
	name, err := strconv.Unquote(nameItem.Val)
	if err != nil {
		p.error(err)
	}
	p.expect(lex.ItemRightDelim, context)

	outer := p.tree
	p.tree = p.forest.allocTree(name, outer.ParseName)
	p.tree.Vars = []string{"$"}

	list, next := p.itemList()
	if !ast.IsEnd(next) {
		p.errorf("unexpected %s in %s", next.Format(), context)
	}
	p.tree.Root = list
	if err := p.forest.define(p.tree); err != nil {
		p.error(err)
	}
	p.tree = outer
}

// itemList parses textOrAction* up to {{end}} or {{else}}, which it
// returns separately rather than appending to the list.
func (p *parser) itemList() (list *ast.List, next ast.Node) {
	list = ast.NewList(p.tree.ID, ast.Pos(p.peek().Pos))
	for p.peekNonSpace().Type != lex.ItemEOF {
		n := p.textOrAction()
		if n == nil {
			continue
		}
		if ast.IsEnd(n) || ast.IsElse(n) {
			return list, n
		}
		list.Append(n)
	}
	p.errorf("unexpected EOF")
	return nil, nil
}

func (p *parser) textOrAction() ast.Node {
	item := p.nextNonSpace()
	switch item.Type {
	case lex.ItemText:
		return ast.NewText(p.tree.ID, ast.Pos(item.Pos), item.Val)
	case lex.ItemLeftDelim:
		return p.action()
	default:
		p.unexpected(item, "input")
		return nil
	}
}

// action dispatches on the first non-space item inside the delimiters.
// Left delim is already consumed.
func (p *parser) action() ast.Node {
	item := p.nextNonSpace()
	switch item.Type {
	case lex.ItemElse:
		return p.elseControl()
	case lex.ItemEnd:
		return p.endControl()
	case lex.ItemIf:
		return p.ifControl(item)
	case lex.ItemRange:
		return p.rangeControl(item)
	case lex.ItemWith:
		return p.withControl(item)
	case lex.ItemTemplate:
		return p.templateControl(item)
	case lex.ItemBlock:
		return p.blockControl(item)
	}
	p.backup()
	pos := ast.Pos(p.peek().Pos)
	pipe := p.pipeline("command")
	return ast.NewAction(p.tree.ID, pos, pipe)
}

// pipeline parses declarations? command ('|' command)*.
func (p *parser) pipeline(context string) *ast.Pipe {
	pipe := ast.NewPipe(p.tree.ID, ast.Pos(p.peekNonSpace().Pos))

decls:
	if v := p.peekNonSpace(); v.Type == lex.ItemVariable {
		p.next()
		tokenAfterVariable := p.peek()
		next := p.peekNonSpace()
		switch {
		case next.Type == lex.ItemColonEquals:
			p.nextNonSpace()
			pipe.Decl = append(pipe.Decl, ast.NewVariable(p.tree.ID, ast.Pos(v.Pos), v.Val))
			p.declareVar(v.Val)
		case next.Type == lex.ItemChar && next.Val == ",":
			p.nextNonSpace()
			pipe.Decl = append(pipe.Decl, ast.NewVariable(p.tree.ID, ast.Pos(v.Pos), v.Val))
			p.declareVar(v.Val)
			if context == "range" && len(pipe.Decl) < 2 {
				switch p.peekNonSpace().Type {
				case lex.ItemVariable:
					goto decls
				default:
					p.errorf("range can only initialize variables")
				}
			}
			p.errorf("too many declarations in %s", context)
		case tokenAfterVariable.Type == lex.ItemSpace:
			p.backup3(v, tokenAfterVariable)
		default:
			p.backup2(v)
		}
	}

	for {
		switch item := p.nextNonSpace(); item.Type {
		case lex.ItemRightDelim, lex.ItemRightParen:
			p.checkPipeline(pipe, context)
			if item.Type == lex.ItemRightParen {
				p.backup()
			}
			return pipe
		case lex.ItemBool, lex.ItemCharConstant, lex.ItemDot, lex.ItemField, lex.ItemIdentifier,
			lex.ItemNumber, lex.ItemNil, lex.ItemRawString, lex.ItemString, lex.ItemVariable, lex.ItemLeftParen:
			p.backup()
			pipe.Append(p.command())
		default:
			p.unexpected(item, context)
		}
	}
}

func (p *parser) checkPipeline(pipe *ast.Pipe, context string) {
	if len(pipe.Cmds) == 0 {
		p.errorf("missing value for %s", context)
	}
	for i, c := range pipe.Cmds[1:] {
		switch c.Args[0].Type() {
		case ast.NodeBool, ast.NodeDot, ast.NodeNil, ast.NodeNumber, ast.NodeString:
			p.errorf("non executable command in pipeline stage %d", i+2)
		}
	}
}

// parseControl parses "pipeline itemList ({{else}} itemList)? {{end}}"
// shared by if/with/range.
func (p *parser) parseControl(allowElseIf bool, context string) (pipe *ast.Pipe, list, elseList *ast.List) {
	mark := p.pushVars()
	defer p.popVars(mark)

	pipe = p.pipeline(context)
	var next ast.Node
	list, next = p.itemList()
	switch {
	case ast.IsEnd(next):
	case ast.IsElse(next):
		if allowElseIf && p.peek().Type == lex.ItemIf {
			p.next()
			elseList = ast.NewList(p.tree.ID, ast.Pos(p.peek().Pos))
			elseList.Append(p.ifControl(lex.Item{}))
			return pipe, list, elseList
		}
		elseList, next = p.itemList()
		if !ast.IsEnd(next) {
			p.errorf("expected end; found %s", next.Format())
		}
	}
	return pipe, list, elseList
}

func (p *parser) ifControl(lex.Item) ast.Node {
	pipe, list, elseList := p.parseControl(true, "if")
	return ast.NewIf(p.tree.ID, pipe.Pos(), pipe, list, elseList)
}

func (p *parser) rangeControl(lex.Item) ast.Node {
	pipe, list, elseList := p.parseControl(false, "range")
	return ast.NewRange(p.tree.ID, pipe.Pos(), pipe, list, elseList)
}

func (p *parser) withControl(lex.Item) ast.Node {
	pipe, list, elseList := p.parseControl(false, "with")
	return ast.NewWith(p.tree.ID, pipe.Pos(), pipe, list, elseList)
}

func (p *parser) endControl() ast.Node {
	p.expect(lex.ItemRightDelim, "end")
	return ast.NewEnd(p.tree.ID, 0)
}

func (p *parser) elseControl() ast.Node {
	peek := p.peekNonSpace()
	if peek.Type == lex.ItemIf {
		return ast.NewElse(p.tree.ID, 0)
	}
	p.expect(lex.ItemRightDelim, "else")
	return ast.NewElse(p.tree.ID, 0)
}

// blockControl is {{block "name" pipeline}} itemList {{end}}: sugar for
// defining a new template and invoking it at the current point.
func (p *parser) blockControl(lex.Item) ast.Node {
	const context = "block clause"
	nameItem := p.nextNonSpace()
	name := p.parseTemplateName(nameItem, context)
	pipe := p.pipeline(context)

	outer := p.tree
	p.tree = p.forest.allocTree(name, outer.ParseName)
	p.tree.Vars = []string{"$"}

	list, next := p.itemList()
	if !ast.IsEnd(next) {
		p.errorf("unexpected %s in %s", next.Format(), context)
	}
	p.tree.Root = list
	if err := p.forest.define(p.tree); err != nil {
		p.error(err)
	}
	invokePos := pipe.Pos()
	p.tree = outer

	return ast.NewTemplate(p.tree.ID, invokePos, name, pipe)
}

func (p *parser) templateControl(lex.Item) ast.Node {
	const context = "template clause"
	nameItem := p.nextNonSpace()
	name := p.parseTemplateName(nameItem, context)
	var pipe *ast.Pipe
	if p.nextNonSpace().Type != lex.ItemRightDelim {
		p.backup()
		pipe = p.pipeline(context)
	}
	return ast.NewTemplate(p.tree.ID, ast.Pos(nameItem.Pos), name, pipe)
}

func (p *parser) parseTemplateName(item lex.Item, context string) string {
	switch item.Type {
	case lex.ItemString, lex.ItemRawString:
		s, err := strconv.Unquote(item.Val)
		if err != nil {
			p.error(err)
		}
		return s
	default:
		p.unexpected(item, context)
		return ""
	}
}

// command parses operand (space operand)*, consuming the trailing pipe
// or leaving the right delimiter for the caller.
func (p *parser) command() *ast.Command {
	cmd := ast.NewCommand(p.tree.ID, ast.Pos(p.peekNonSpace().Pos))
	for {
		p.peekNonSpace()
		operand := p.operand()
		if operand != nil {
			cmd.Append(operand)
		}
		switch item := p.next(); item.Type {
		case lex.ItemSpace:
			continue
		case lex.ItemError:
			p.lexError(item)
		case lex.ItemRightDelim, lex.ItemRightParen:
			p.backup()
		case lex.ItemPipe:
		default:
			p.errorf("unexpected %s in operand", item)
		}
		break
	}
	if len(cmd.Args) == 0 {
		p.errorf("empty command")
	}
	return cmd
}

// operand parses term .Field*.
func (p *parser) operand() ast.Node {
	node := p.term()
	if node == nil {
		return nil
	}
	if p.peek().Type != lex.ItemField {
		return node
	}
	chain := ast.NewChain(p.tree.ID, node.Pos(), node)
	for p.peek().Type == lex.ItemField {
		f := p.next()
		chain.Add(f.Val[1:]) // drop leading period
	}
	switch n := node.(type) {
	case *ast.Field:
		return ast.NewField(p.tree.ID, node.Pos(), "."+joinFields(n.Idents, chain.Fields))
	case *ast.Variable:
		return ast.NewVariable(p.tree.ID, node.Pos(), joinVar(n.Idents, chain.Fields))
	case *ast.Bool, *ast.String, *ast.Number, *ast.Nil, *ast.Dot:
		p.errorf("unexpected . after term %q", node.Format())
		return nil
	default:
		return chain
	}
}

func joinFields(base, more []string) string {
	s := ""
	for i, f := range base {
		if i > 0 {
			s += "."
		}
		s += f
	}
	for _, f := range more {
		s += "." + f
	}
	return s
}

func joinVar(base, more []string) string {
	s := base[0]
	for _, f := range base[1:] {
		s += "." + f
	}
	for _, f := range more {
		s += "." + f
	}
	return s
}

// term parses a literal, function identifier, ., $, or a parenthesized
// pipeline.
func (p *parser) term() ast.Node {
	item := p.nextNonSpace()
	pos := ast.Pos(item.Pos)
	switch item.Type {
	case lex.ItemError:
		p.lexError(item)
	case lex.ItemIdentifier:
		return ast.NewIdentifier(p.tree.ID, pos, item.Val)
	case lex.ItemDot:
		return ast.NewDot(p.tree.ID, pos)
	case lex.ItemNil:
		return ast.NewNil(p.tree.ID, pos)
	case lex.ItemVariable:
		return p.useVar(pos, item.Val)
	case lex.ItemField:
		return ast.NewField(p.tree.ID, pos, item.Val)
	case lex.ItemBool:
		return ast.NewBool(p.tree.ID, pos, item.Val == "true")
	case lex.ItemCharConstant:
		n, err := parseCharConstant(p.tree.ID, pos, item.Val)
		if err != nil {
			p.error(err)
		}
		return n
	case lex.ItemNumber:
		n, err := ast.NewNumber(p.tree.ID, pos, item.Val)
		if err != nil {
			p.error(err)
		}
		return n
	case lex.ItemLeftParen:
		pipe := p.pipeline("parenthesized pipeline")
		if next := p.next(); next.Type != lex.ItemRightParen {
			p.errorf("unclosed right paren: unexpected %s", next)
		}
		return pipe
	case lex.ItemString, lex.ItemRawString:
		s, err := strconv.Unquote(item.Val)
		if err != nil {
			p.error(err)
		}
		return ast.NewString(p.tree.ID, pos, item.Val, s)
	}
	p.backup()
	return nil
}

func parseCharConstant(tree int, pos ast.Pos, text string) (*ast.Number, error) {
	r, _, tail, err := strconv.UnquoteChar(text[1:], '\'')
	if err != nil {
		return nil, err
	}
	if tail != "'" {
		return nil, fmt.Errorf("malformed character constant: %s", text)
	}
	return ast.NewCharNumber(tree, pos, r, text), nil
}
