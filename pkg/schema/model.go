// Package schema holds the compiled, immutable representation of a YANG
// module's data definitions.
package schema

import (
	"fmt"
	"math/big"
	"strings"
)

// Kind classifies a schema node.
type Kind uint8

const (
	KindContainer Kind = iota
	KindList
	KindLeaf
	KindLeafList
	KindChoice
	KindCase
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindList:
		return "list"
	case KindLeaf:
		return "leaf"
	case KindLeafList:
		return "leaf-list"
	case KindChoice:
		return "choice"
	case KindCase:
		return "case"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Base is the built-in type a leaf value is checked against.
type Base uint8

const (
	BaseString Base = iota
	BaseInteger
	BaseBoolean
	BaseEnumeration
	BaseLeafref
	BaseEmpty
)

// Range is an inclusive integer interval.
type Range struct {
	Min *big.Int
	Max *big.Int
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v *big.Int) bool {
	return r.Min.Cmp(v) <= 0 && v.Cmp(r.Max) <= 0
}

func (r Range) String() string {
	if r.Min.Cmp(r.Max) == 0 {
		return r.Min.String()
	}
	return r.Min.String() + ".." + r.Max.String()
}

// Type is the resolved value type of a leaf or leaf-list.
type Type struct {
	Name   string
	Base   Base
	Ranges []Range
	Enums  []string
	// Path is the absolute schema path of a leafref target, one name per step.
	Path []string
}

// InRange reports whether v satisfies at least one range. A type without
// ranges accepts every integer.
func (t *Type) InRange(v *big.Int) bool {
	if len(t.Ranges) == 0 {
		return true
	}
	for _, r := range t.Ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// HasEnum reports whether lit is one of the declared enumeration literals.
func (t *Type) HasEnum(lit string) bool {
	for _, e := range t.Enums {
		if e == lit {
			return true
		}
	}
	return false
}

// Node is one data definition.
type Node struct {
	Name     string
	Kind     Kind
	Type     *Type
	Min      int
	Max      int // 0 means unbounded
	Keys     []string
	Default  string
	Presence bool
	Children []*Node
	Line     int
	Column   int
}

// Mandatory reports whether at least one instance is required.
func (n *Node) Mandatory() bool {
	return n.Min > 0
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Model is a compiled module.
type Model struct {
	Name      string
	Namespace string
	Prefix    string
	Revision  string
	Roots     []*Node
}

// Lookup resolves an absolute data path (choice and case names omitted, as
// in instance data) to a node.
func (m *Model) Lookup(path []string) *Node {
	level := m.Roots
	var found *Node
	for _, step := range path {
		found = FindData(level, step)
		if found == nil {
			return nil
		}
		level = found.Children
	}
	return found
}

// FindData finds the data node named name among nodes, looking through
// choice and case nodes, which have no instance representation.
func FindData(nodes []*Node, name string) *Node {
	for _, n := range nodes {
		switch n.Kind {
		case KindChoice, KindCase:
			if found := FindData(n.Children, name); found != nil {
				return found
			}
		default:
			if n.Name == name {
				return n
			}
		}
	}
	return nil
}

// Check verifies the structural invariants of a model: list keys exist as
// mandatory leaf children and data names are unique per level.
func (m *Model) Check() error {
	if m == nil {
		return fmt.Errorf("nil model")
	}
	return checkLevel(m.Roots, "")
}

func checkLevel(nodes []*Node, parent string) error {
	seen := make(map[string]struct{})
	var walk func(level []*Node) error
	walk = func(level []*Node) error {
		for _, n := range level {
			if n == nil {
				return fmt.Errorf("nil node under %q", parent)
			}
			if n.Kind == KindChoice || n.Kind == KindCase {
				if err := walk(n.Children); err != nil {
					return err
				}
				continue
			}
			if _, dup := seen[n.Name]; dup {
				return fmt.Errorf("duplicate node %q under %q", n.Name, parent)
			}
			seen[n.Name] = struct{}{}
			if err := checkNode(n, join(parent, n.Name)); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(nodes)
}

func checkNode(n *Node, path string) error {
	switch n.Kind {
	case KindLeaf, KindLeafList:
		if n.Type == nil {
			return fmt.Errorf("%s %q has no type", n.Kind, path)
		}
		if len(n.Children) > 0 {
			return fmt.Errorf("%s %q has children", n.Kind, path)
		}
		return nil
	case KindList:
		if len(n.Keys) == 0 {
			return fmt.Errorf("list %q has no keys", path)
		}
		for _, k := range n.Keys {
			key := n.Child(k)
			if key == nil || key.Kind != KindLeaf {
				return fmt.Errorf("list %q key %q is not a leaf child", path, k)
			}
			if !key.Mandatory() {
				return fmt.Errorf("list %q key %q is not mandatory", path, k)
			}
		}
	}
	return checkLevel(n.Children, path)
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// PathString joins path steps with "/".
func PathString(path []string) string {
	return strings.Join(path, "/")
}
