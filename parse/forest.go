package parse

import (
	"fmt"

	"github.com/mna/gotl/ast"
)

// Tree is one named parse unit: the main template (always id 1) or a
// nested {{define}}/{{block}} body.
type Tree struct {
	ID        int
	Name      string
	ParseName string // human-readable name used in diagnostics
	Root      *ast.List
	Vars      []string // names in scope during parsing only
}

// Forest is the result of parsing: a set of named trees plus the
// id<->name bookkeeping the spec calls for.
type Forest struct {
	byID   map[int]string
	byName map[string]*Tree
	nextID int
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{
		byID:   map[int]string{},
		byName: map[string]*Tree{},
		nextID: 1,
	}
}

// allocTree reserves the next tree id and returns a Tree for name.
func (f *Forest) allocTree(name, parseName string) *Tree {
	id := f.nextID
	f.nextID++
	f.byID[id] = name
	return &Tree{ID: id, Name: name, ParseName: parseName}
}

// define installs t into the forest under its Name. A name may be
// defined at most once with a non-empty root; a second non-empty
// definition is an error.
func (f *Forest) define(t *Tree) error {
	if existing, ok := f.byName[t.Name]; ok {
		if len(existing.Root.Nodes) != 0 && len(t.Root.Nodes) != 0 {
			return fmt.Errorf("template: multiple definition of template %q", t.Name)
		}
		if len(existing.Root.Nodes) != 0 {
			// Keep the earlier, non-empty definition; this one has an
			// empty body (e.g. {{define "x"}}{{end}}).
			return nil
		}
	}
	f.byName[t.Name] = t
	f.byID[t.ID] = t.Name
	return nil
}

// Tree returns the named tree, if any.
func (f *Forest) Tree(name string) (*Tree, bool) {
	t, ok := f.byName[name]
	return t, ok
}

// Main returns the tree with id 1, the entry point of a Parse call.
func (f *Forest) Main() (*Tree, bool) {
	name, ok := f.byID[1]
	if !ok {
		return nil, false
	}
	return f.Tree(name)
}

// NameOf returns the tree name registered for a node's tree id, for use
// in diagnostics that only carry the id.
func (f *Forest) NameOf(id int) (string, bool) {
	name, ok := f.byID[id]
	return name, ok
}

// Merge installs every tree from other into f, renumbering ids to
// avoid collision with f's own trees. Used by bundle.FromFS to combine
// one parse.Forest per file into a single forest so templates in
// different files can {{template}} one another by name.
func (f *Forest) Merge(other *Forest) error {
	for _, name := range other.Names() {
		t, _ := other.Tree(name)
		id := f.nextID
		f.nextID++
		merged := &Tree{ID: id, Name: t.Name, ParseName: t.ParseName, Root: t.Root}
		if err := f.define(merged); err != nil {
			return err
		}
	}
	return nil
}

// Names returns every defined tree name.
func (f *Forest) Names() []string {
	names := make([]string, 0, len(f.byName))
	for name := range f.byName {
		names = append(names, name)
	}
	return names
}
