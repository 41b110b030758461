package yangparse

import (
	"fmt"
	"strconv"
	"strings"

	yerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/pkg/schema"
)

const defaultMaxNodes = 1 << 16

var unsupportedStatements = map[string]struct{}{
	"import":       {},
	"include":      {},
	"augment":      {},
	"deviation":    {},
	"identity":     {},
	"anydata":      {},
	"anyxml":       {},
	"rpc":          {},
	"action":       {},
	"notification": {},
	"refine":       {},
}

var commonStatements = []string{"description", "reference", "status", "if-feature", "when", "must", "config"}

// allowed lists the non-data substatements accepted under each parent keyword.
var allowed = map[string][]string{
	"module":    {"yang-version", "namespace", "prefix", "revision", "contact", "organization", "typedef", "grouping", "feature", "extension"},
	"container": {"presence", "typedef", "grouping"},
	"list":      {"key", "unique", "min-elements", "max-elements", "ordered-by", "typedef", "grouping"},
	"leaf":      {"type", "units", "mandatory", "default"},
	"leaf-list": {"type", "units", "min-elements", "max-elements", "ordered-by", "default"},
	"choice":    {"mandatory", "default"},
	"case":      {},
	"grouping":  {"typedef", "grouping"},
	"uses":      {},
}

// Options bounds the resources a single compile may use.
type Options struct {
	MaxNesting int
	MaxNodes   int
}

// Parse compiles YANG module text into a schema model.
func Parse(src string, opts Options) (*schema.Model, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &yerrors.SyntaxError{Source: "schema", Message: "empty schema"}
	}
	root, err := parseStatements(src, opts.MaxNesting)
	if err != nil {
		return nil, err
	}
	c := &compiler{
		maxNodes:  opts.MaxNodes,
		typedefs:  make(map[*statement]bool),
		groupings: make(map[*statement]bool),
	}
	if c.maxNodes <= 0 {
		c.maxNodes = defaultMaxNodes
	}
	return c.compileModule(root)
}

type compiler struct {
	prefix    string
	maxNodes  int
	nodes     int
	typedefs  map[*statement]bool
	groupings map[*statement]bool
	leafrefs  []*leafrefUse
}

type leafrefUse struct {
	node *schema.Node
	stmt *statement
}

type scoped struct {
	stmt  *statement
	scope *scope
}

// scope holds the typedefs and groupings visible at one level; lookups walk
// outwards to the module scope.
type scope struct {
	parent    *scope
	typedefs  map[string]scoped
	groupings map[string]scoped
}

func newScope(parent *scope, owner *statement) (*scope, error) {
	sc := &scope{parent: parent}
	for _, sub := range owner.subs {
		var table *map[string]scoped
		switch sub.keyword {
		case "typedef":
			table = &sc.typedefs
		case "grouping":
			table = &sc.groupings
		default:
			continue
		}
		if !validIdentifier(sub.arg) {
			return nil, semantic(sub, fmt.Sprintf("invalid identifier %q", sub.arg))
		}
		if *table == nil {
			*table = make(map[string]scoped)
		}
		if _, dup := (*table)[sub.arg]; dup {
			return nil, semantic(sub, fmt.Sprintf("duplicate %s %q", sub.keyword, sub.arg))
		}
		(*table)[sub.arg] = scoped{stmt: sub, scope: sc}
	}
	return sc, nil
}

func (s *scope) typedef(name string) (scoped, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if td, ok := sc.typedefs[name]; ok {
			return td, true
		}
	}
	return scoped{}, false
}

func (s *scope) grouping(name string) (scoped, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if g, ok := sc.groupings[name]; ok {
			return g, true
		}
	}
	return scoped{}, false
}

func (c *compiler) compileModule(root *statement) (*schema.Model, error) {
	switch root.keyword {
	case "module":
	case "submodule":
		return nil, unsupported("submodule", root)
	default:
		return nil, semantic(root, fmt.Sprintf("expected module, got %q", root.keyword))
	}
	if !validIdentifier(root.arg) {
		return nil, semantic(root, fmt.Sprintf("invalid module name %q", root.arg))
	}

	m := &schema.Model{Name: root.arg}
	ns, ok := root.subArg("namespace")
	if !ok || ns == "" {
		return nil, semantic(root, "module has no namespace")
	}
	m.Namespace = ns
	prefix, ok := root.subArg("prefix")
	if !ok || !validIdentifier(prefix) {
		return nil, semantic(root, "module has no valid prefix")
	}
	m.Prefix = prefix
	c.prefix = prefix
	if v, ok := root.subArg("yang-version"); ok && v != "1" && v != "1.1" {
		return nil, semantic(root.sub("yang-version"), fmt.Sprintf("unsupported yang-version %q", v))
	}
	m.Revision = latestRevision(root)

	sc, err := newScope(nil, root)
	if err != nil {
		return nil, err
	}
	roots, err := c.compileDataDefs(root, sc, nil)
	if err != nil {
		return nil, err
	}
	m.Roots = roots
	if err := c.checkDuplicates(roots); err != nil {
		return nil, err
	}
	if err := c.resolveLeafrefs(m); err != nil {
		return nil, err
	}
	if err := m.Check(); err != nil {
		return nil, &yerrors.InternalError{Message: "compiled model violates invariants", Err: err}
	}
	return m, nil
}

func latestRevision(root *statement) string {
	latest := ""
	for _, sub := range root.subs {
		if sub.keyword == "revision" && sub.arg > latest {
			latest = sub.arg
		}
	}
	return latest
}

// compileDataDefs compiles the data definition substatements of owner in
// declaration order. path is the data path of owner.
func (c *compiler) compileDataDefs(owner *statement, sc *scope, path []string) ([]*schema.Node, error) {
	var out []*schema.Node
	for _, sub := range owner.subs {
		switch sub.keyword {
		case "container", "list", "leaf", "leaf-list", "choice":
			n, err := c.compileNode(sub, sc, path)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		case "uses":
			nodes, err := c.expandUses(sub, sc, path)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		case "case":
			if owner.keyword != "choice" {
				return nil, semantic(sub, "case outside choice")
			}
		default:
			if err := checkAllowed(owner, sub); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func checkAllowed(owner, sub *statement) error {
	if _, ok := unsupportedStatements[sub.keyword]; ok {
		return unsupported(sub.keyword, sub)
	}
	if isExtension(sub.keyword) {
		return nil
	}
	for _, kw := range commonStatements {
		if sub.keyword == kw {
			return nil
		}
	}
	for _, kw := range allowed[owner.keyword] {
		if sub.keyword == kw {
			return nil
		}
	}
	return semantic(sub, fmt.Sprintf("unexpected statement %q in %s", sub.keyword, owner.keyword))
}

func (c *compiler) newNode(stmt *statement, kind schema.Kind) (*schema.Node, error) {
	if !validIdentifier(stmt.arg) {
		return nil, semantic(stmt, fmt.Sprintf("invalid identifier %q", stmt.arg))
	}
	c.nodes++
	if c.nodes > c.maxNodes {
		return nil, yerrors.NewInternalf("schema expands to more than %d nodes", c.maxNodes)
	}
	return &schema.Node{Name: stmt.arg, Kind: kind, Line: stmt.line, Column: stmt.column}, nil
}

func (c *compiler) compileNode(stmt *statement, sc *scope, path []string) (*schema.Node, error) {
	switch stmt.keyword {
	case "container":
		return c.compileContainer(stmt, sc, path)
	case "list":
		return c.compileList(stmt, sc, path)
	case "leaf":
		return c.compileLeaf(stmt, sc, path)
	case "leaf-list":
		return c.compileLeafList(stmt, sc, path)
	case "choice":
		return c.compileChoice(stmt, sc, path)
	default:
		return nil, semantic(stmt, fmt.Sprintf("unexpected statement %q", stmt.keyword))
	}
}

func (c *compiler) compileContainer(stmt *statement, sc *scope, path []string) (*schema.Node, error) {
	n, err := c.newNode(stmt, schema.KindContainer)
	if err != nil {
		return nil, err
	}
	n.Max = 1
	n.Presence = stmt.sub("presence") != nil
	if n.Children, err = c.compileChildren(stmt, sc, childPath(path, n.Name)); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *compiler) compileList(stmt *statement, sc *scope, path []string) (*schema.Node, error) {
	n, err := c.newNode(stmt, schema.KindList)
	if err != nil {
		return nil, err
	}
	if n.Children, err = c.compileChildren(stmt, sc, childPath(path, n.Name)); err != nil {
		return nil, err
	}
	keyArg, _ := stmt.subArg("key")
	n.Keys = strings.Fields(keyArg)
	if len(n.Keys) == 0 {
		return nil, semantic(stmt, "list without key")
	}
	for i, k := range n.Keys {
		name, err := c.localName(k, stmt.sub("key"))
		if err != nil {
			return nil, err
		}
		n.Keys[i] = name
		for _, prev := range n.Keys[:i] {
			if prev == name {
				return nil, semantic(stmt.sub("key"), fmt.Sprintf("duplicate key %q", name))
			}
		}
		key := n.Child(name)
		if key == nil || key.Kind != schema.KindLeaf {
			return nil, semantic(stmt.sub("key"), fmt.Sprintf("key %q is not a leaf of list %q", name, n.Name))
		}
		if key.Type.Base == schema.BaseEmpty {
			return nil, semantic(stmt.sub("key"), fmt.Sprintf("key %q has type empty", name))
		}
		key.Min = 1
	}
	if n.Min, n.Max, err = elementBounds(stmt); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *compiler) compileLeaf(stmt *statement, sc *scope, path []string) (*schema.Node, error) {
	n, err := c.newNode(stmt, schema.KindLeaf)
	if err != nil {
		return nil, err
	}
	if err := c.checkLeafSubs(stmt); err != nil {
		return nil, err
	}
	n.Max = 1
	if err := c.compileLeafType(n, stmt, sc, path); err != nil {
		return nil, err
	}
	if v, ok := stmt.subArg("mandatory"); ok {
		mandatory, err := parseBool(v)
		if err != nil {
			return nil, semantic(stmt.sub("mandatory"), err.Error())
		}
		if mandatory {
			n.Min = 1
		}
	}
	if def, ok := stmt.subArg("default"); ok {
		if n.Min > 0 {
			return nil, semantic(stmt.sub("default"), "mandatory leaf with default")
		}
		if n.Type.Base != schema.BaseLeafref && n.Type.CheckValue(def) != schema.ValueOK {
			return nil, semantic(stmt.sub("default"), fmt.Sprintf("default %q is not a valid %s", def, n.Type.Name))
		}
		n.Default = def
	}
	return n, nil
}

func (c *compiler) compileLeafList(stmt *statement, sc *scope, path []string) (*schema.Node, error) {
	n, err := c.newNode(stmt, schema.KindLeafList)
	if err != nil {
		return nil, err
	}
	if err := c.checkLeafSubs(stmt); err != nil {
		return nil, err
	}
	if err := c.compileLeafType(n, stmt, sc, path); err != nil {
		return nil, err
	}
	if n.Min, n.Max, err = elementBounds(stmt); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *compiler) checkLeafSubs(stmt *statement) error {
	for _, sub := range stmt.subs {
		if err := checkAllowed(stmt, sub); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileLeafType(n *schema.Node, stmt *statement, sc *scope, path []string) error {
	typeStmt := stmt.sub("type")
	if typeStmt == nil {
		return semantic(stmt, fmt.Sprintf("%s %q has no type", stmt.keyword, stmt.arg))
	}
	rt, err := c.resolveType(typeStmt, sc)
	if err != nil {
		return err
	}
	n.Type = rt.t
	if rt.t.Base == schema.BaseLeafref {
		target, err := c.leafrefPath(rt.leafref, childPath(path, n.Name), typeStmt)
		if err != nil {
			return err
		}
		n.Type.Path = target
		c.leafrefs = append(c.leafrefs, &leafrefUse{node: n, stmt: typeStmt})
	}
	return nil
}

func (c *compiler) compileChoice(stmt *statement, sc *scope, path []string) (*schema.Node, error) {
	n, err := c.newNode(stmt, schema.KindChoice)
	if err != nil {
		return nil, err
	}
	if v, ok := stmt.subArg("mandatory"); ok {
		mandatory, err := parseBool(v)
		if err != nil {
			return nil, semantic(stmt.sub("mandatory"), err.Error())
		}
		if mandatory {
			n.Min = 1
		}
	}
	n.Max = 1
	seen := make(map[string]struct{})
	for _, sub := range stmt.subs {
		var cs *schema.Node
		switch sub.keyword {
		case "case":
			if cs, err = c.newNode(sub, schema.KindCase); err != nil {
				return nil, err
			}
			if cs.Children, err = c.compileDataDefs(sub, sc, path); err != nil {
				return nil, err
			}
		case "container", "list", "leaf", "leaf-list", "choice":
			// short-hand case: the case takes the name of its only child
			if cs, err = c.newNode(sub, schema.KindCase); err != nil {
				return nil, err
			}
			child, err := c.compileNode(sub, sc, path)
			if err != nil {
				return nil, err
			}
			cs.Children = []*schema.Node{child}
		default:
			if err := checkAllowed(stmt, sub); err != nil {
				return nil, err
			}
			continue
		}
		if _, dup := seen[cs.Name]; dup {
			return nil, semantic(sub, fmt.Sprintf("duplicate case %q", cs.Name))
		}
		seen[cs.Name] = struct{}{}
		n.Children = append(n.Children, cs)
	}
	if def, ok := stmt.subArg("default"); ok {
		if n.Min > 0 {
			return nil, semantic(stmt.sub("default"), "mandatory choice with default")
		}
		if _, ok := seen[def]; !ok {
			return nil, semantic(stmt.sub("default"), fmt.Sprintf("default case %q not found", def))
		}
		n.Default = def
	}
	return n, nil
}

func (c *compiler) compileChildren(stmt *statement, sc *scope, path []string) ([]*schema.Node, error) {
	inner, err := newScope(sc, stmt)
	if err != nil {
		return nil, err
	}
	children, err := c.compileDataDefs(stmt, inner, path)
	if err != nil {
		return nil, err
	}
	if err := c.checkDuplicates(children); err != nil {
		return nil, err
	}
	return children, nil
}

func (c *compiler) expandUses(stmt *statement, sc *scope, path []string) ([]*schema.Node, error) {
	name, err := c.localName(stmt.arg, stmt)
	if err != nil {
		return nil, err
	}
	g, ok := sc.grouping(name)
	if !ok {
		return nil, semantic(stmt, fmt.Sprintf("unknown grouping %q", name))
	}
	if c.groupings[g.stmt] {
		return nil, semantic(stmt, fmt.Sprintf("grouping %q uses itself", name))
	}
	for _, sub := range stmt.subs {
		if err := checkAllowed(stmt, sub); err != nil {
			return nil, err
		}
	}
	c.groupings[g.stmt] = true
	defer delete(c.groupings, g.stmt)

	inner, err := newScope(g.scope, g.stmt)
	if err != nil {
		return nil, err
	}
	return c.compileDataDefs(g.stmt, inner, path)
}

// checkDuplicates enforces unique data names within one level. Choice names
// share the level namespace and their cases are looked through.
func (c *compiler) checkDuplicates(level []*schema.Node) error {
	seen := make(map[string]struct{})
	var walk func(nodes []*schema.Node) error
	walk = func(nodes []*schema.Node) error {
		for _, n := range nodes {
			if n.Kind != schema.KindCase {
				if _, dup := seen[n.Name]; dup {
					return &yerrors.SemanticError{
						Node:    n.Kind.String() + " " + n.Name,
						Message: fmt.Sprintf("duplicate sibling name %q", n.Name),
						Line:    n.Line,
						Column:  n.Column,
					}
				}
				seen[n.Name] = struct{}{}
			}
			if n.Kind == schema.KindChoice || n.Kind == schema.KindCase {
				if err := walk(n.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(level)
}

// leafrefPath turns an absolute or relative leafref path into an absolute
// data path. self is the data path of the leaf holding the reference.
func (c *compiler) leafrefPath(raw string, self []string, stmt *statement) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.ContainsAny(raw, "[]") {
		return nil, unsupported("leafref path predicate", stmt)
	}
	var out []string
	if strings.HasPrefix(raw, "/") {
		raw = raw[1:]
	} else {
		out = append(out, self...)
	}
	for _, step := range strings.Split(raw, "/") {
		switch step {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return nil, semantic(stmt, fmt.Sprintf("leafref path %q escapes the module", raw))
			}
			out = out[:len(out)-1]
		default:
			name, err := c.localName(step, stmt)
			if err != nil {
				return nil, err
			}
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, semantic(stmt, "empty leafref path")
	}
	return out, nil
}

func (c *compiler) resolveLeafrefs(m *schema.Model) error {
	for _, use := range c.leafrefs {
		target := m.Lookup(use.node.Type.Path)
		if target == nil {
			return semantic(use.stmt, fmt.Sprintf("leafref target /%s not found", schema.PathString(use.node.Type.Path)))
		}
		if target.Kind != schema.KindLeaf && target.Kind != schema.KindLeafList {
			return semantic(use.stmt, fmt.Sprintf("leafref target /%s is a %s", schema.PathString(use.node.Type.Path), target.Kind))
		}
		if target == use.node {
			return semantic(use.stmt, "leafref refers to itself")
		}
	}
	return nil
}

func (c *compiler) localName(ref string, stmt *statement) (string, error) {
	prefix, name, ok := strings.Cut(ref, ":")
	if !ok {
		return ref, nil
	}
	if prefix != c.prefix {
		return "", semantic(stmt, fmt.Sprintf("unknown prefix %q", prefix))
	}
	return name, nil
}

func elementBounds(stmt *statement) (int, int, error) {
	minimum, maximum := 0, 0
	if v, ok := stmt.subArg("min-elements"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, semantic(stmt.sub("min-elements"), fmt.Sprintf("invalid min-elements %q", v))
		}
		minimum = n
	}
	if v, ok := stmt.subArg("max-elements"); ok && v != "unbounded" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, semantic(stmt.sub("max-elements"), fmt.Sprintf("invalid max-elements %q", v))
		}
		maximum = n
	}
	if maximum > 0 && minimum > maximum {
		return 0, 0, semantic(stmt, fmt.Sprintf("min-elements %d exceeds max-elements %d", minimum, maximum))
	}
	return minimum, maximum, nil
}

func parseBool(v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", v)
	}
}

func childPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

func isExtension(keyword string) bool {
	return strings.Contains(keyword, ":")
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
