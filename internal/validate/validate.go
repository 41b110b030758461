// Package validate checks an instance tree against a compiled schema model
// and collects every violation it can find in one depth-first pass.
package validate

import (
	"strings"

	yerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/pkg/schema"
	"github.com/jacoelho/yang/pkg/xmldoc"
)

const defaultMaxDepth = 256

const (
	msgUnknownNode     = "unknown node"
	msgInvalidValue    = "invalid value"
	msgInvalidEnum     = "invalid enum value"
	msgDuplicateKey    = "duplicate key"
	msgMissing         = "missing mandatory node"
	msgTooMany         = "too many instances"
	msgTooFew          = "too few elements"
	msgTooManyElements = "too many elements"
	msgDuplicateValue  = "duplicate leaf-list value"
	msgChoiceConflict  = "conflicting choice cases"
	msgMissingLeafref  = "missing leafref target"
	msgUnexpectedText  = "unexpected text"
)

// Options configures a validation run.
type Options struct {
	// MaxDepth limits recursion; 0 uses the default of 256.
	MaxDepth     int
	UnknownNodes UnknownPolicy
}

// Run validates tree against model. Diagnostics come back in visit order:
// document order depth-first, with each level's own checks after its
// children. The error is non-nil only for an *errors.InternalError.
func Run(model *schema.Model, tree *xmldoc.Tree, opts Options) ([]yerrors.Diagnostic, error) {
	if model == nil || tree == nil {
		return nil, yerrors.NewInternalf("validate called with nil model or tree")
	}
	if err := model.Check(); err != nil {
		return nil, &yerrors.InternalError{Message: "malformed schema model", Err: err}
	}
	v := &validator{
		model:    model,
		opts:     opts,
		maxDepth: opts.MaxDepth,
	}
	if v.maxDepth <= 0 {
		v.maxDepth = defaultMaxDepth
	}
	v.targets = collectLeafrefTargets(model, tree)
	if err := v.level(model.Roots, tree.Roots, nil); err != nil {
		return nil, err
	}
	return v.diags, nil
}

type validator struct {
	model    *schema.Model
	opts     Options
	maxDepth int
	path     pathStack
	diags    []yerrors.Diagnostic
	targets  map[*schema.Node]map[string]struct{}
}

// levelState records what one schema level matched in the data.
type levelState struct {
	counts    map[*schema.Node]int
	instances map[*schema.Node][]*xmldoc.Node
	order     []*schema.Node
	cases     map[*schema.Node][]*schema.Node // choice -> active cases in appearance order
}

func (v *validator) report(code yerrors.ErrorCode, msg, path string, at *xmldoc.Node) {
	d := yerrors.NewDiagnostic(code, msg, path)
	if at != nil {
		d.Line, d.Column = at.Line, at.Column
	}
	v.diags = append(v.diags, d)
}

func (v *validator) level(schemaLevel []*schema.Node, nodes []*xmldoc.Node, parent *xmldoc.Node) error {
	st := &levelState{
		counts:    make(map[*schema.Node]int),
		instances: make(map[*schema.Node][]*xmldoc.Node),
		cases:     make(map[*schema.Node][]*schema.Node),
	}
	owners := choiceOwners(schemaLevel)

	for _, n := range nodes {
		sn := v.match(schemaLevel, n)
		if sn == nil {
			v.unknown(n)
			continue
		}
		if st.counts[sn] == 0 {
			st.order = append(st.order, sn)
			markCases(st, owners[sn])
		}
		st.counts[sn]++
		st.instances[sn] = append(st.instances[sn], n)
		if err := v.node(sn, n); err != nil {
			return err
		}
	}

	for _, sn := range st.order {
		switch sn.Kind {
		case schema.KindList:
			v.duplicateKeys(sn, st.instances[sn])
		case schema.KindLeafList:
			v.duplicateValues(sn, st.instances[sn])
		}
	}
	v.cardinality(schemaLevel, st, parent)
	return nil
}

func (v *validator) match(schemaLevel []*schema.Node, n *xmldoc.Node) *schema.Node {
	if !matchesNamespace(v.model, n) {
		return nil
	}
	return schema.FindData(schemaLevel, n.Name.Local)
}

func matchesNamespace(m *schema.Model, n *xmldoc.Node) bool {
	return n.Name.Space == "" || n.Name.Space == m.Namespace
}

func (v *validator) unknown(n *xmldoc.Node) {
	switch v.opts.UnknownNodes {
	case UnknownIgnore:
		return
	case UnknownWarn:
		d := yerrors.NewDiagnostic(yerrors.ErrUnknownNode, msgUnknownNode, v.path.child(n.Name.Local))
		d.Severity = yerrors.SeverityWarning
		d.Line, d.Column = n.Line, n.Column
		v.diags = append(v.diags, d)
	default:
		v.report(yerrors.ErrUnknownNode, msgUnknownNode, v.path.child(n.Name.Local), n)
	}
}

func (v *validator) node(sn *schema.Node, n *xmldoc.Node) error {
	v.path.push(sn.Name)
	defer v.path.pop()
	if v.path.depth() > v.maxDepth {
		return yerrors.NewInternalf("validation depth exceeds %d at %s", v.maxDepth, v.path.String())
	}

	switch sn.Kind {
	case schema.KindLeaf, schema.KindLeafList:
		v.value(sn, n)
		return nil
	case schema.KindContainer, schema.KindList:
		if n.HasText() {
			v.report(yerrors.ErrUnexpectedText, msgUnexpectedText, v.path.String(), n)
		}
		return v.level(sn.Children, n.Children, n)
	default:
		return yerrors.NewInternalf("%s %q matched a data node", sn.Kind, sn.Name)
	}
}

func (v *validator) value(sn *schema.Node, n *xmldoc.Node) {
	if n.HasChildren() {
		v.report(yerrors.ErrInvalidValue, msgInvalidValue, v.path.String(), n)
		return
	}
	if sn.Type.Base == schema.BaseLeafref {
		target := v.model.Lookup(sn.Type.Path)
		if _, ok := v.targets[target][n.Text]; !ok {
			v.report(yerrors.ErrMissingLeafrefTarget, msgMissingLeafref, v.path.String(), n)
		}
		return
	}
	switch sn.Type.CheckValue(n.Text) {
	case schema.ValueInvalid:
		v.report(yerrors.ErrInvalidValue, msgInvalidValue, v.path.String(), n)
	case schema.ValueNotInEnum:
		v.report(yerrors.ErrInvalidEnumValue, msgInvalidEnum, v.path.String(), n)
	}
}

func (v *validator) duplicateKeys(sn *schema.Node, instances []*xmldoc.Node) {
	seen := make(map[string]struct{}, len(instances))
	path := v.path.child(sn.Name)
	for _, inst := range instances {
		tuple, ok := v.keyTuple(sn, inst)
		if !ok {
			continue
		}
		if _, dup := seen[tuple]; dup {
			v.report(yerrors.ErrDuplicateKey, msgDuplicateKey, path, inst)
			continue
		}
		seen[tuple] = struct{}{}
	}
}

// keyTuple joins the instance's canonical key values; ok is false when a
// key is missing, which is reported separately as a missing mandatory node.
func (v *validator) keyTuple(sn *schema.Node, inst *xmldoc.Node) (string, bool) {
	var b strings.Builder
	for i, key := range sn.Keys {
		var found *xmldoc.Node
		for _, c := range inst.Children {
			if c.Name.Local == key && matchesNamespace(v.model, c) {
				found = c
				break
			}
		}
		if found == nil {
			return "", false
		}
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(canonical(sn.Child(key).Type, found.Text))
	}
	return b.String(), true
}

// canonical maps a lexical value to its value-space form so that equal
// values compare equal. Integers drop leading zeros and a plus sign;
// invalid values stay as written.
func canonical(t *schema.Type, lexical string) string {
	if t == nil || t.Base != schema.BaseInteger {
		return lexical
	}
	if n, ok := schema.ParseInteger(lexical); ok {
		return n.String()
	}
	return lexical
}

func (v *validator) duplicateValues(sn *schema.Node, instances []*xmldoc.Node) {
	seen := make(map[string]struct{}, len(instances))
	path := v.path.child(sn.Name)
	for _, inst := range instances {
		value := canonical(sn.Type, inst.Text)
		if _, dup := seen[value]; dup {
			v.report(yerrors.ErrDuplicateLeafListValue, msgDuplicateValue, path, inst)
			continue
		}
		seen[value] = struct{}{}
	}
}

func (v *validator) cardinality(schemaLevel []*schema.Node, st *levelState, parent *xmldoc.Node) {
	for _, sn := range schemaLevel {
		path := v.path.child(sn.Name)
		count := st.counts[sn]
		switch sn.Kind {
		case schema.KindChoice:
			active := st.cases[sn]
			switch {
			case len(active) == 0:
				if sn.Mandatory() {
					v.report(yerrors.ErrMissingMandatory, msgMissing, path, parent)
				}
				continue
			case len(active) > 1:
				v.report(yerrors.ErrChoiceConflict, msgChoiceConflict, path, st.instances[firstData(st, active[1])][0])
			}
			for _, cs := range active {
				v.cardinality(cs.Children, st, parent)
			}
		case schema.KindLeaf, schema.KindContainer:
			if count == 0 {
				if sn.Mandatory() {
					v.report(yerrors.ErrMissingMandatory, msgMissing, path, parent)
				}
				continue
			}
			if count > 1 {
				v.report(yerrors.ErrTooManyInstances, msgTooMany, path, st.instances[sn][1])
			}
		case schema.KindList, schema.KindLeafList:
			switch {
			case count == 0 && sn.Mandatory():
				v.report(yerrors.ErrMissingMandatory, msgMissing, path, parent)
			case count < sn.Min:
				v.report(yerrors.ErrTooFewElements, msgTooFew, path, parent)
			case sn.Max > 0 && count > sn.Max:
				v.report(yerrors.ErrTooManyElements, msgTooManyElements, path, st.instances[sn][sn.Max])
			}
		}
	}
}

// choiceOwners maps every data node reachable through choices of a level to
// its enclosing (choice, case) pairs, outermost first.
func choiceOwners(level []*schema.Node) map[*schema.Node][]*schema.Node {
	owners := make(map[*schema.Node][]*schema.Node)
	var walk func(nodes []*schema.Node, chain []*schema.Node)
	walk = func(nodes []*schema.Node, chain []*schema.Node) {
		for _, n := range nodes {
			if n.Kind != schema.KindChoice {
				if len(chain) > 0 {
					owners[n] = chain
				}
				continue
			}
			for _, cs := range n.Children {
				next := make([]*schema.Node, len(chain), len(chain)+2)
				copy(next, chain)
				walk(cs.Children, append(next, n, cs))
			}
		}
	}
	walk(level, nil)
	return owners
}

func markCases(st *levelState, chain []*schema.Node) {
	for i := 0; i+1 < len(chain); i += 2 {
		choice, cs := chain[i], chain[i+1]
		active := st.cases[choice]
		known := false
		for _, a := range active {
			if a == cs {
				known = true
				break
			}
		}
		if !known {
			st.cases[choice] = append(active, cs)
		}
	}
}

// firstData returns the first matched data node that belongs to case cs.
func firstData(st *levelState, cs *schema.Node) *schema.Node {
	for _, sn := range st.order {
		if belongsTo(cs, sn) {
			return sn
		}
	}
	return nil
}

func belongsTo(parent, target *schema.Node) bool {
	for _, c := range parent.Children {
		if c == target {
			return true
		}
		if (c.Kind == schema.KindChoice || c.Kind == schema.KindCase) && belongsTo(c, target) {
			return true
		}
	}
	return false
}
