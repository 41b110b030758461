package validate

import (
	"github.com/jacoelho/yang/pkg/schema"
	"github.com/jacoelho/yang/pkg/xmldoc"
)

// collectLeafrefTargets gathers, for every leaf referenced by a leafref in
// the model, the set of values its instances carry in the tree.
func collectLeafrefTargets(m *schema.Model, tree *xmldoc.Tree) map[*schema.Node]map[string]struct{} {
	targets := make(map[*schema.Node]map[string]struct{})
	var paths [][]string
	var walk func(nodes []*schema.Node)
	walk = func(nodes []*schema.Node) {
		for _, n := range nodes {
			if n.Type != nil && n.Type.Base == schema.BaseLeafref {
				paths = append(paths, n.Type.Path)
			}
			walk(n.Children)
		}
	}
	walk(m.Roots)

	for _, path := range paths {
		target := m.Lookup(path)
		if target == nil {
			continue
		}
		if _, done := targets[target]; done {
			continue
		}
		values := make(map[string]struct{})
		collectValues(m, tree.Roots, path, values)
		targets[target] = values
	}
	return targets
}

func collectValues(m *schema.Model, nodes []*xmldoc.Node, path []string, values map[string]struct{}) {
	if len(path) == 0 {
		return
	}
	for _, n := range nodes {
		if n.Name.Local != path[0] || !matchesNamespace(m, n) {
			continue
		}
		if len(path) == 1 {
			if !n.HasChildren() {
				values[n.Text] = struct{}{}
			}
			continue
		}
		collectValues(m, n.Children, path[1:], values)
	}
}
