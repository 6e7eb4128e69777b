package funcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/gotl/value"
)

func TestEq(t *testing.T) {
	r := NewRegistry()
	fn, ok := r.Lookup("eq")
	require.True(t, ok)

	v, err := fn([]value.Value{value.String("a"), value.String("a"), value.String("a")})
	require.NoError(t, err)
	assert.True(t, v.AsBool())

	v, err = fn([]value.Value{value.String("a"), value.String("b")})
	require.NoError(t, err)
	assert.False(t, v.AsBool())
}

func TestNe(t *testing.T) {
	r := NewRegistry()
	fn, _ := r.Lookup("ne")
	v, err := fn([]value.Value{value.Int(1), value.Int(2)})
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestOrderedComparisons(t *testing.T) {
	r := NewRegistry()
	for name, want := range map[string]bool{"lt": true, "le": true, "gt": false, "ge": false} {
		fn, ok := r.Lookup(name)
		require.True(t, ok)
		v, err := fn([]value.Value{value.Int(1), value.Int(2)})
		require.NoError(t, err)
		assert.Equal(t, want, v.AsBool(), name)
	}
}

func TestAndOr(t *testing.T) {
	r := NewRegistry()
	and, _ := r.Lookup("and")
	v, err := and([]value.Value{value.Bool(true), value.Int(0), value.String("unreached")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.AsInt())

	or, _ := r.Lookup("or")
	v, err = or([]value.Value{value.Bool(false), value.Int(0), value.String("hit")})
	require.NoError(t, err)
	assert.Equal(t, "hit", v.AsString())
}

func TestNot(t *testing.T) {
	r := NewRegistry()
	not, _ := r.Lookup("not")
	v, err := not([]value.Value{value.Bool(false)})
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestLenBuiltin(t *testing.T) {
	r := NewRegistry()
	fn, _ := r.Lookup("len")
	v, err := fn([]value.Value{value.String("hello")})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.AsInt())
}

func TestUrlquery(t *testing.T) {
	r := NewRegistry()
	fn, _ := r.Lookup("urlquery")
	v, err := fn([]value.Value{value.String("a b/c")})
	require.NoError(t, err)
	assert.Equal(t, "a+b%2Fc", v.AsString())
}

func TestIndex(t *testing.T) {
	r := NewRegistry()
	fn, _ := r.Lookup("index")
	v, err := fn([]value.Value{value.Array(value.Int(10), value.Int(20)), value.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.AsInt())
}

func TestSlice(t *testing.T) {
	r := NewRegistry()
	fn, _ := r.Lookup("slice")
	v, err := fn([]value.Value{value.Array(value.Int(1), value.Int(2), value.Int(3)), value.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(2), value.Int(3)}, v.AsArray())
}

func TestCall(t *testing.T) {
	r := NewRegistry()
	fn, ok := r.Lookup("call")
	require.True(t, ok)
	v, err := fn([]value.Value{value.String("not"), value.Bool(false)})
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestUserFunctionShadowsBuiltin(t *testing.T) {
	r := NewRegistry()
	r.Add(map[string]Func{
		"len": func(args []value.Value) (value.Value, error) {
			return value.Int(-1), nil
		},
	})
	fn, _ := r.Lookup("len")
	v, err := fn([]value.Value{value.String("xx")})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v.AsInt())
}

func TestPrintf(t *testing.T) {
	v, err := Printf([]value.Value{value.String("%s=%s"), value.String("a"), value.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, "a=1", v.AsString())
}
