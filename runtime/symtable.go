package runtime

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// Symbol table for variables. Every scope record of the vault carries a
// symbol table.

// --- Tags -------------------------------------------------------

// Tag is the binding type to be stored into symbol tables. It may be a
// little surprising this type is not called 'Variable', but a tag is just a
// named cell: it holds a value, a function, a native routine or a reference
// to a named scope. Tags are mutable; assignment changes the value of the
// tag found by name resolution.
//
type Tag struct {
	name  string
	Value Value
}

// NewTag creates a new tag, holding None.
func NewTag(nm string) *Tag {
	return &Tag{
		name:  nm,
		Value: None(),
	}
}

// WithValue sets the initial value of a tag. Use as
//
//    tag := NewTag("myTag").WithValue(Number(1))
//
func (s *Tag) WithValue(v Value) *Tag {
	s.Value = v
	return s
}

// String is a debug Stringer for symbols.
func (s *Tag) String() string {
	return fmt.Sprintf("<tag '%s'=%v>", s.Name(), s.Value)
}

// Name gets the tag's name.
func (s *Tag) Name() string {
	return s.name
}

// === Symbol Tables =========================================================

// SymbolTable is a symbol table to store tags (map-like semantics).
type SymbolTable struct {
	Table map[string]*Tag
}

// NewSymbolTable creates an empty symbol table.
//
func NewSymbolTable() *SymbolTable {
	var symtab = SymbolTable{
		Table: make(map[string]*Tag),
	}
	return &symtab
}

// ResolveTag checks for a tag in the symbol table.
// Returns a tag or nil.
//
func (t *SymbolTable) ResolveTag(tagname string) *Tag {
	return t.Table[tagname]
}

// ResolveOrDefineTag finds
// a tag in the table, inserts a new one if not found.
// Creates non-existent tags on the fly.
// Returns the tag and a flag, signalling wether the tag
// has already been present.
//
func (t *SymbolTable) ResolveOrDefineTag(tagname string) (*Tag, bool) {
	if len(tagname) == 0 {
		return nil, false
	}
	found := true
	tag := t.ResolveTag(tagname)
	if tag == nil { // if not already there, insert it
		tag, _ = t.DefineTag(tagname)
		found = false
	}
	return tag, found
}

// DefineTag creates a new tag to store into the symbol table.
// The tag's name may not be empty
// Overwrites existing tag with this name, if any.
// Returns the new tag and the previously stored tag (or nil).
//
func (t *SymbolTable) DefineTag(tagname string) (*Tag, *Tag) {
	if len(tagname) == 0 {
		return nil, nil
	}
	tag := NewTag(tagname)
	old := t.InsertTag(tag)
	return tag, old
}

// InsertTag inserts a pre-created symbol.
func (t *SymbolTable) InsertTag(tag *Tag) *Tag {
	old := t.ResolveTag(tag.name)
	t.Table[tag.name] = tag
	return old
}

// RemoveTag removes a tag from the table. Returns the removed tag or nil.
func (t *SymbolTable) RemoveTag(tagname string) *Tag {
	old := t.Table[tagname]
	delete(t.Table, tagname)
	return old
}

// Clear removes all tags.
func (t *SymbolTable) Clear() {
	t.Table = make(map[string]*Tag)
}

// Size counts the tags in a symbol table.
func (t *SymbolTable) Size() int {
	return len(t.Table)
}

// Names returns the names of all tags, in sorted order.
func (t *SymbolTable) Names() []string {
	set := treeset.NewWith(utils.StringComparator)
	for k := range t.Table {
		set.Add(k)
	}
	names := make([]string, 0, set.Size())
	for _, k := range set.Values() {
		names = append(names, k.(string))
	}
	return names
}

// Each iterates over each tag in the table in order of tag names,
// executing a mapper function.
func (t *SymbolTable) Each(mapper func(string, *Tag)) {
	for _, k := range t.Names() {
		mapper(k, t.Table[k])
	}
}
