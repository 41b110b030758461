// Package xmldoc parses instance documents into an untyped element tree.
// The tree carries structure and source positions only; it knows nothing
// about schemas.
package xmldoc

import "strings"

// Name is a namespace-qualified element name.
type Name struct {
	Space string
	Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Node is one element.
type Node struct {
	Name     Name
	Text     string
	Children []*Node
	Line     int
	Column   int
}

// HasChildren reports whether the element has element content.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// HasText reports whether the element carries non-whitespace character data.
func (n *Node) HasText() bool {
	return strings.TrimSpace(n.Text) != ""
}

// Tree is a parsed document: its top-level elements in document order.
type Tree struct {
	Roots []*Node
}
