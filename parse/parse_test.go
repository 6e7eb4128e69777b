package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/gotl/ast"
)

func mainTree(t *testing.T, forest *Forest) *Tree {
	t.Helper()
	tree, ok := forest.Main()
	require.True(t, ok)
	return tree
}

func TestParseText(t *testing.T) {
	forest, err := Parse("t", "hello world")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	require.Len(t, tree.Root.Nodes, 1)
	text, ok := tree.Root.Nodes[0].(*ast.Text)
	require.True(t, ok)
	assert.Equal(t, "hello world", text.Text)
}

func TestParseSimpleAction(t *testing.T) {
	forest, err := Parse("t", "{{.Name}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	require.Len(t, tree.Root.Nodes, 1)
	action, ok := tree.Root.Nodes[0].(*ast.Action)
	require.True(t, ok)
	require.Len(t, action.Pipe.Cmds, 1)
	field, ok := action.Pipe.Cmds[0].Args[0].(*ast.Field)
	require.True(t, ok)
	assert.Equal(t, []string{"Name"}, field.Idents)
}

func TestParseFieldChain(t *testing.T) {
	forest, err := Parse("t", "{{.A.B.C}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	action := tree.Root.Nodes[0].(*ast.Action)
	field := action.Pipe.Cmds[0].Args[0].(*ast.Field)
	assert.Equal(t, []string{"A", "B", "C"}, field.Idents)
}

func TestParsePipeline(t *testing.T) {
	forest, err := Parse("t", "{{.Name | printf \"%s\"}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	action := tree.Root.Nodes[0].(*ast.Action)
	require.Len(t, action.Pipe.Cmds, 2)
	ident, ok := action.Pipe.Cmds[1].Args[0].(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "printf", ident.Name)
}

func TestParseVariableDeclaration(t *testing.T) {
	forest, err := Parse("t", "{{$v := .X}}{{$v}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	require.Len(t, tree.Root.Nodes, 2)
	first := tree.Root.Nodes[0].(*ast.Action)
	require.Len(t, first.Pipe.Decl, 1)
	assert.Equal(t, []string{"$v"}, first.Pipe.Decl[0].Idents)

	second := tree.Root.Nodes[1].(*ast.Action)
	variable := second.Pipe.Cmds[0].Args[0].(*ast.Variable)
	assert.Equal(t, []string{"$v"}, variable.Idents)
}

func TestParseUndeclaredVariableErrors(t *testing.T) {
	_, err := Parse("t", "{{$v}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
}

func TestParseRangeTwoDecls(t *testing.T) {
	forest, err := Parse("t", "{{range $k, $v := .Items}}{{$k}}{{$v}}{{end}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	rng := tree.Root.Nodes[0].(*ast.Range)
	require.Len(t, rng.Pipe.Decl, 2)
	assert.Equal(t, []string{"$k"}, rng.Pipe.Decl[0].Idents)
	assert.Equal(t, []string{"$v"}, rng.Pipe.Decl[1].Idents)
}

func TestParseTwoDeclsOutsideRangeErrors(t *testing.T) {
	_, err := Parse("t", "{{$k, $v := .Items}}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many declarations")
}

func TestParseIfElse(t *testing.T) {
	forest, err := Parse("t", "{{if .Cond}}yes{{else}}no{{end}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	ifNode := tree.Root.Nodes[0].(*ast.If)
	require.NotNil(t, ifNode.ElseList)
	assert.Equal(t, "yes", ifNode.List.Nodes[0].(*ast.Text).Text)
	assert.Equal(t, "no", ifNode.ElseList.Nodes[0].(*ast.Text).Text)
}

func TestParseElseIf(t *testing.T) {
	forest, err := Parse("t", "{{if .A}}a{{else if .B}}b{{end}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	ifNode := tree.Root.Nodes[0].(*ast.If)
	require.NotNil(t, ifNode.ElseList)
	require.Len(t, ifNode.ElseList.Nodes, 1)
	_, ok := ifNode.ElseList.Nodes[0].(*ast.If)
	assert.True(t, ok)
}

func TestParseWith(t *testing.T) {
	forest, err := Parse("t", "{{with .User}}{{.Name}}{{end}}")
	require.NoError(t, err)
	tree := mainTree(t, forest)
	_, ok := tree.Root.Nodes[0].(*ast.With)
	assert.True(t, ok)
}

func TestParseDefineAndTemplate(t *testing.T) {
	forest, err := Parse("t", `{{define "sub"}}hi{{end}}{{template "sub" .}}`)
	require.NoError(t, err)
	main := mainTree(t, forest)
	tmplNode := main.Root.Nodes[0].(*ast.Template)
	assert.Equal(t, "sub", tmplNode.Name)
	require.NotNil(t, tmplNode.Pipe)

	sub, ok := forest.Tree("sub")
	require.True(t, ok)
	assert.Equal(t, "hi", sub.Root.Nodes[0].(*ast.Text).Text)
}

func TestParseBlock(t *testing.T) {
	forest, err := Parse("t", `{{block "sub" .}}hi{{end}}`)
	require.NoError(t, err)
	main := mainTree(t, forest)
	tmplNode := main.Root.Nodes[0].(*ast.Template)
	assert.Equal(t, "sub", tmplNode.Name)

	sub, ok := forest.Tree("sub")
	require.True(t, ok)
	assert.Equal(t, "hi", sub.Root.Nodes[0].(*ast.Text).Text)
}

func TestParseDuplicateDefinitionErrors(t *testing.T) {
	_, err := Parse("t", `{{define "x"}}a{{end}}{{define "x"}}b{{end}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple definition")
}

func TestParseNonExecutablePipelineStageErrors(t *testing.T) {
	_, err := Parse("t", `{{.X | "literal"}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non executable command")
}

func TestParseErrorFormat(t *testing.T) {
	_, err := Parse("mytmpl", "{{if}}")
	require.Error(t, err)
	perr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "mytmpl", perr.ParseName)
	assert.Contains(t, perr.Error(), "template: mytmpl:")
}

func TestParseNumberAndString(t *testing.T) {
	forest, err := Parse("t", `{{printf "%d" 42}}`)
	require.NoError(t, err)
	tree := mainTree(t, forest)
	action := tree.Root.Nodes[0].(*ast.Action)
	num, ok := action.Pipe.Cmds[0].Args[2].(*ast.Number)
	require.True(t, ok)
	assert.Equal(t, int64(42), num.Int64)
}

func TestParseParenthesizedPipeline(t *testing.T) {
	forest, err := Parse("t", `{{(.X).Y}}`)
	require.NoError(t, err)
	tree := mainTree(t, forest)
	action := tree.Root.Nodes[0].(*ast.Action)
	chain, ok := action.Pipe.Cmds[0].Args[0].(*ast.Chain)
	require.True(t, ok)
	assert.Equal(t, []string{"Y"}, chain.Fields)
}
