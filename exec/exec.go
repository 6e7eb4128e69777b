// Package exec walks a parsed forest against a runtime value, writing
// the rendered output to an io.Writer (spec.md §4.6).
package exec

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/xerrors"

	"github.com/mna/gotl/ast"
	"github.com/mna/gotl/funcs"
	"github.com/mna/gotl/parse"
	"github.com/mna/gotl/value"
)

// maxExecDepth bounds {{template}} recursion so a self-referential
// template fails cleanly instead of exhausting the stack.
const maxExecDepth = 100000

// variable is one entry in the push-down scope stack: a $name bound to
// a value, visible to every node walked until its frame is popped.
type variable struct {
	name string
	val  value.Value
}

// State executes one forest against a function registry. It is
// reusable across multiple Execute calls; each call starts with a
// clean variable stack and recursion depth.
type State struct {
	forest *parse.Forest
	funcs  *funcs.Registry

	wr       io.Writer
	vars     []variable
	depth    int
	treeName string
}

// New returns a State bound to forest and the function registry used to
// resolve identifiers in pipelines.
func New(forest *parse.Forest, fr *funcs.Registry) *State {
	return &State{forest: forest, funcs: fr}
}

// Execute renders the forest's main tree (id 1) with dot as the initial
// context.
func (s *State) Execute(w io.Writer, dot value.Value) error {
	main, ok := s.forest.Main()
	if !ok {
		return &Error{Name: "<nil>", Msg: "no template defined"}
	}
	return s.ExecuteTemplate(w, main.Name, dot)
}

// ExecuteTemplate renders the named tree.
func (s *State) ExecuteTemplate(w io.Writer, name string, dot value.Value) (err error) {
	tree, ok := s.forest.Tree(name)
	if !ok {
		return &Error{Name: name, Msg: fmt.Sprintf("template %q not defined", name)}
	}
	defer errRecover(&err)

	s.wr = w
	s.vars = s.vars[:0]
	s.depth = 0
	s.treeName = tree.ParseName

	s.push("$", dot)
	s.walk(dot, tree.Root)
	return nil
}

func errRecover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	*errp = e.(error)
}

func (s *State) errorf(format string, args ...interface{}) {
	panic(&Error{Name: s.treeName, Msg: fmt.Sprintf(format, args...)})
}

// error wraps err as the cause of an exec.Error, preserving it for
// xerrors.As/Is chains instead of flattening it into a message string.
func (s *State) error(err error) {
	panic(&Error{Name: s.treeName, Msg: err.Error(), Err: err})
}

func (s *State) writeError(err error) {
	panic(&Error{Name: s.treeName, Msg: fmt.Sprintf("io error: %s", err), Err: err})
}

// --- variable scope -----------------------------------------------------

func (s *State) push(name string, val value.Value) { s.vars = append(s.vars, variable{name, val}) }
func (s *State) mark() int                          { return len(s.vars) }
func (s *State) pop(mark int)                       { s.vars = s.vars[:mark] }

func (s *State) varValue(name string) (value.Value, bool) {
	for i := len(s.vars) - 1; i >= 0; i-- {
		if s.vars[i].name == name {
			return s.vars[i].val, true
		}
	}
	return value.Value{}, false
}

// --- tree walk -----------------------------------------------------

func (s *State) walk(dot value.Value, n ast.Node) {
	switch node := n.(type) {
	case *ast.List:
		for _, c := range node.Nodes {
			s.walk(dot, c)
		}
	case *ast.Text:
		if _, err := io.WriteString(s.wr, node.Text); err != nil {
			s.writeError(err)
		}
	case *ast.Action:
		val := s.evalPipeline(dot, node.Pipe)
		if len(node.Pipe.Decl) == 0 {
			s.printValue(val)
		} else {
			for _, d := range node.Pipe.Decl {
				s.push(d.Idents[0], val)
			}
		}
	case *ast.If:
		s.walkIfOrWith(node.Pipe, node.List, node.ElseList, dot, false)
	case *ast.With:
		s.walkIfOrWith(node.Pipe, node.List, node.ElseList, dot, true)
	case *ast.Range:
		s.walkRange(dot, node)
	case *ast.Template:
		s.walkTemplate(dot, node)
	default:
		s.errorf("unknown node in tree: %s", n.Format())
	}
}

func (s *State) printValue(val value.Value) {
	str, err := val.Format()
	if err != nil {
		s.error(err)
	}
	if _, err := io.WriteString(s.wr, str); err != nil {
		s.writeError(err)
	}
}

func (s *State) walkIfOrWith(pipe *ast.Pipe, list, elseList *ast.List, dot value.Value, isWith bool) {
	mark := s.mark()
	defer s.pop(mark)

	val := s.evalPipeline(dot, pipe)
	for _, d := range pipe.Decl {
		s.push(d.Idents[0], val)
	}
	if val.Truthy() {
		if isWith {
			s.walk(val, list)
		} else {
			s.walk(dot, list)
		}
		return
	}
	if elseList != nil {
		s.walk(dot, elseList)
	}
}

func (s *State) walkRange(dot value.Value, r *ast.Range) {
	mark := s.mark()
	defer s.pop(mark)

	val := s.evalPipeline(dot, r.Pipe)

	// A single declaration binds the element ({{range $v := x}}); two
	// declarations bind index/key first, element/value second
	// ({{range $k, $v := x}}), so ranging {"a":1,"b":2} as $k, $v gives
	// "a1b2".
	iterate := func(index, elem value.Value) {
		m := s.mark()
		switch len(r.Pipe.Decl) {
		case 1:
			s.push(r.Pipe.Decl[0].Idents[0], elem)
		case 2:
			s.push(r.Pipe.Decl[0].Idents[0], index)
			s.push(r.Pipe.Decl[1].Idents[0], elem)
		}
		s.walk(elem, r.List)
		s.pop(m)
	}

	switch val.Kind() {
	case value.KindArray:
		arr := val.AsArray()
		if len(arr) == 0 {
			break
		}
		for i, e := range arr {
			iterate(value.Int(int64(i)), e)
		}
		return
	case value.KindObject:
		obj := val.AsObject()
		if obj.Len() == 0 {
			break
		}
		for _, k := range obj.Keys() {
			e, _ := obj.Get(k)
			iterate(value.String(k), e)
		}
		return
	case value.KindInt, value.KindUint:
		n := int64(val.Float64())
		if n <= 0 {
			break
		}
		for i := int64(0); i < n; i++ {
			iterate(value.Int(i), value.Int(i))
		}
		return
	default:
		s.errorf("range can't iterate over value of type %s", val.Kind())
	}
	if r.ElseList != nil {
		s.walk(dot, r.ElseList)
	}
}

func (s *State) walkTemplate(dot value.Value, node *ast.Template) {
	tree, ok := s.forest.Tree(node.Name)
	if !ok {
		s.errorf("template %q not defined", node.Name)
	}
	newDot := dot
	if node.Pipe != nil {
		newDot = s.evalPipeline(dot, node.Pipe)
	}

	s.depth++
	if s.depth > maxExecDepth {
		s.errorf("exceeded maximum template depth (%d)", maxExecDepth)
	}
	savedName := s.treeName
	mark := s.mark()

	s.treeName = tree.ParseName
	s.push("$", newDot)
	s.walk(newDot, tree.Root)

	s.pop(mark)
	s.treeName = savedName
	s.depth--
}

// --- pipeline/expression evaluation -----------------------------------------------------

func (s *State) evalPipeline(dot value.Value, pipe *ast.Pipe) value.Value {
	var val value.Value
	for i, cmd := range pipe.Cmds {
		val = s.evalCommand(dot, cmd, val, i > 0)
	}
	return val
}

func (s *State) evalCommand(dot value.Value, cmd *ast.Command, final value.Value, useFinal bool) value.Value {
	switch head := cmd.Args[0].(type) {
	case *ast.Identifier:
		return s.evalCall(dot, head, cmd.Args[1:], final, useFinal)
	default:
		if len(cmd.Args) > 1 {
			s.errorf("can't give argument to non-function %s", head.Format())
		}
		return s.evalArg(dot, head)
	}
}

func (s *State) evalCall(dot value.Value, ident *ast.Identifier, rest []ast.Node, final value.Value, useFinal bool) value.Value {
	fn, ok := s.funcs.Lookup(ident.Name)
	if !ok {
		s.errorf("function %q not defined", ident.Name)
	}
	args := make([]value.Value, 0, len(rest)+1)
	for _, a := range rest {
		args = append(args, s.evalArg(dot, a))
	}
	if useFinal {
		args = append(args, final)
	}
	result, err := fn(args)
	if err != nil {
		s.error(xerrors.Errorf("error calling %s: %w", ident.Name, err))
	}
	return result
}

func (s *State) evalArg(dot value.Value, n ast.Node) value.Value {
	switch node := n.(type) {
	case *ast.Dot:
		return dot
	case *ast.Nil:
		return value.Null
	case *ast.Bool:
		return value.Bool(node.Val)
	case *ast.Number:
		return numberValue(node)
	case *ast.String:
		return value.String(node.Val)
	case *ast.Field:
		return s.evalFieldChain(dot, node.Idents)
	case *ast.Variable:
		return s.evalVariable(node)
	case *ast.Chain:
		return s.evalChain(dot, node)
	case *ast.Identifier:
		return s.evalCall(dot, node, nil, value.Value{}, false)
	case *ast.Pipe:
		return s.evalPipeline(dot, node)
	default:
		s.errorf("can't evaluate %s", n.Format())
		return value.Value{}
	}
}

func numberValue(n *ast.Number) value.Value {
	switch {
	case n.IsInt:
		return value.Int(n.Int64)
	case n.IsUint:
		return value.Uint(n.Uint64)
	default:
		return value.Float(n.Float64)
	}
}

func (s *State) evalFieldChain(receiver value.Value, idents []string) value.Value {
	cur := receiver
	for _, id := range idents {
		v, err := cur.Field(id)
		if err != nil {
			s.error(err)
		}
		cur = v
	}
	return cur
}

func (s *State) evalVariable(node *ast.Variable) value.Value {
	val, ok := s.varValue(node.Idents[0])
	if !ok {
		s.errorf("undefined variable %q", node.Idents[0])
	}
	if len(node.Idents) > 1 {
		return s.evalFieldChain(val, node.Idents[1:])
	}
	return val
}

func (s *State) evalChain(dot value.Value, node *ast.Chain) value.Value {
	base := s.evalArg(dot, node.Node)
	if len(node.Fields) == 0 {
		return base
	}
	return s.evalFieldChain(base, node.Fields)
}
