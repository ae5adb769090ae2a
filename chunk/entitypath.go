package chunk

import (
	"iter"
	"strings"
)

// EntityPath is a normalized "/"-separated address. The root is "/".
type EntityPath string

const RootPath EntityPath = "/"

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func NewEntityPath(path string) EntityPath {
	return EntityPath("/" + strings.Join(splitPath(path), "/"))
}

func EntityPathFromParts(parts ...string) EntityPath {
	return NewEntityPath(strings.Join(parts, "/"))
}

func (p EntityPath) String() string {
	return string(p)
}

func (p EntityPath) Parts() []string {
	return splitPath(string(p))
}

func (p EntityPath) IsRoot() bool {
	return len(splitPath(string(p))) == 0
}

func (p EntityPath) Parent() (EntityPath, bool) {
	parts := p.Parts()
	if len(parts) == 0 {
		return "", false
	}
	return EntityPathFromParts(parts[:len(parts)-1]...), true
}

func (p EntityPath) IsDescendantOf(ancestor EntityPath) bool {
	mine := p.Parts()
	theirs := ancestor.Parts()
	if len(mine) <= len(theirs) {
		return false
	}
	for i := range theirs {
		if mine[i] != theirs[i] {
			return false
		}
	}
	return true
}

// Ancestors yields the path itself followed by each parent up to the root.
func (p EntityPath) Ancestors() iter.Seq[EntityPath] {
	return func(yield func(EntityPath) bool) {
		path := NewEntityPath(string(p))
		for {
			if !yield(path) {
				return
			}
			parent, ok := path.Parent()
			if !ok {
				return
			}
			path = parent
		}
	}
}
