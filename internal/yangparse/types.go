package yangparse

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"

	yerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/pkg/schema"
)

var integerBounds = map[string][2]*big.Int{
	"int8":   {big.NewInt(math.MinInt8), big.NewInt(math.MaxInt8)},
	"int16":  {big.NewInt(math.MinInt16), big.NewInt(math.MaxInt16)},
	"int32":  {big.NewInt(math.MinInt32), big.NewInt(math.MaxInt32)},
	"int64":  {big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64)},
	"uint8":  {big.NewInt(0), big.NewInt(math.MaxUint8)},
	"uint16": {big.NewInt(0), big.NewInt(math.MaxUint16)},
	"uint32": {big.NewInt(0), big.NewInt(math.MaxUint32)},
	"uint64": {big.NewInt(0), new(big.Int).SetUint64(math.MaxUint64)},
}

var unsupportedTypes = map[string]struct{}{
	"union":               {},
	"bits":                {},
	"binary":              {},
	"decimal64":           {},
	"identityref":         {},
	"instance-identifier": {},
}

// resolvedType carries a type plus the raw leafref path, which is made
// absolute by the leaf that uses it.
type resolvedType struct {
	t       *schema.Type
	leafref string
}

func (c *compiler) resolveType(stmt *statement, sc *scope) (resolvedType, error) {
	if stmt == nil {
		return resolvedType{}, fmt.Errorf("nil type statement")
	}
	name, err := c.localName(stmt.arg, stmt)
	if err != nil {
		return resolvedType{}, err
	}

	var rt resolvedType
	switch {
	case integerBounds[name][0] != nil:
		b := integerBounds[name]
		rt.t = &schema.Type{Name: name, Base: schema.BaseInteger, Ranges: []schema.Range{{Min: b[0], Max: b[1]}}}
	case name == "string":
		rt.t = &schema.Type{Name: name, Base: schema.BaseString}
	case name == "boolean":
		rt.t = &schema.Type{Name: name, Base: schema.BaseBoolean}
	case name == "empty":
		rt.t = &schema.Type{Name: name, Base: schema.BaseEmpty}
	case name == "enumeration":
		rt.t = &schema.Type{Name: name, Base: schema.BaseEnumeration}
	case name == "leafref":
		rt.t = &schema.Type{Name: name, Base: schema.BaseLeafref}
	default:
		if _, ok := unsupportedTypes[name]; ok {
			return resolvedType{}, unsupported(name+" type", stmt)
		}
		rt, err = c.resolveTypedef(name, stmt, sc)
		if err != nil {
			return resolvedType{}, err
		}
	}

	if err := c.applyRestrictions(&rt, name, stmt); err != nil {
		return resolvedType{}, err
	}
	switch {
	case name == "enumeration" && len(rt.t.Enums) == 0:
		return resolvedType{}, semantic(stmt, "enumeration without enum statements")
	case name == "leafref" && rt.leafref == "":
		return resolvedType{}, semantic(stmt, "leafref without path")
	}
	return rt, nil
}

func (c *compiler) resolveTypedef(name string, stmt *statement, sc *scope) (resolvedType, error) {
	td, ok := sc.typedef(name)
	if !ok {
		return resolvedType{}, semantic(stmt, fmt.Sprintf("unknown type %q", name))
	}
	if c.typedefs[td.stmt] {
		return resolvedType{}, semantic(stmt, fmt.Sprintf("typedef %q refers to itself", name))
	}
	base := td.stmt.sub("type")
	if base == nil {
		return resolvedType{}, semantic(td.stmt, fmt.Sprintf("typedef %q has no type", name))
	}
	c.typedefs[td.stmt] = true
	defer delete(c.typedefs, td.stmt)

	rt, err := c.resolveType(base, td.scope)
	if err != nil {
		return resolvedType{}, err
	}
	cp := *rt.t
	cp.Name = name
	rt.t = &cp
	return rt, nil
}

func (c *compiler) applyRestrictions(rt *resolvedType, name string, stmt *statement) error {
	var enums []string
	for _, sub := range stmt.subs {
		switch sub.keyword {
		case "range":
			if rt.t.Base != schema.BaseInteger {
				return semantic(sub, fmt.Sprintf("range on non-integer type %q", name))
			}
			ranges, err := parseRanges(sub.arg, rt.t.Ranges)
			if err != nil {
				return semantic(sub, err.Error())
			}
			rt.t.Ranges = ranges
		case "enum":
			if rt.t.Base != schema.BaseEnumeration {
				return semantic(sub, fmt.Sprintf("enum on non-enumeration type %q", name))
			}
			if slices.Contains(enums, sub.arg) {
				return semantic(sub, fmt.Sprintf("duplicate enum %q", sub.arg))
			}
			if name != "enumeration" && !rt.t.HasEnum(sub.arg) {
				return semantic(sub, fmt.Sprintf("enum %q not in base type", sub.arg))
			}
			enums = append(enums, sub.arg)
		case "path":
			if name != "leafref" {
				return semantic(sub, "path outside leafref type")
			}
			rt.leafref = sub.arg
		case "length", "pattern":
			if rt.t.Base != schema.BaseString {
				return semantic(sub, fmt.Sprintf("%s on non-string type %q", sub.keyword, name))
			}
		case "require-instance", "description", "reference":
		default:
			if !isExtension(sub.keyword) {
				return semantic(sub, fmt.Sprintf("unexpected statement %q in type", sub.keyword))
			}
		}
	}
	if len(enums) > 0 {
		rt.t.Enums = enums
	}
	return nil
}

// parseRanges parses a YANG range expression ("1..10 | 20 | min..max")
// against the ranges of the base type.
func parseRanges(expr string, base []schema.Range) ([]schema.Range, error) {
	if len(base) == 0 {
		return nil, fmt.Errorf("range on unbounded type")
	}
	lo, hi := base[0].Min, base[len(base)-1].Max

	bound := func(s string) (*big.Int, error) {
		s = strings.TrimSpace(s)
		switch s {
		case "min":
			return lo, nil
		case "max":
			return hi, nil
		}
		v, ok := schema.ParseInteger(s)
		if !ok {
			return nil, fmt.Errorf("invalid range bound %q", s)
		}
		return v, nil
	}

	var out []schema.Range
	for _, part := range strings.Split(expr, "|") {
		minStr, maxStr, isInterval := strings.Cut(part, "..")
		if !isInterval {
			maxStr = minStr
		}
		rmin, err := bound(minStr)
		if err != nil {
			return nil, err
		}
		rmax, err := bound(maxStr)
		if err != nil {
			return nil, err
		}
		if rmin.Cmp(rmax) > 0 {
			return nil, fmt.Errorf("range %s..%s is empty", rmin, rmax)
		}
		if n := len(out); n > 0 && rmin.Cmp(out[n-1].Max) <= 0 {
			return nil, fmt.Errorf("range parts not in ascending order")
		}
		r := schema.Range{Min: rmin, Max: rmax}
		if !withinBase(r, base) {
			return nil, fmt.Errorf("range %s not within base type", r)
		}
		out = append(out, r)
	}
	return out, nil
}

func withinBase(r schema.Range, base []schema.Range) bool {
	for _, b := range base {
		if b.Min.Cmp(r.Min) <= 0 && r.Max.Cmp(b.Max) <= 0 {
			return true
		}
	}
	return false
}

func semantic(stmt *statement, msg string) error {
	e := &yerrors.SemanticError{Message: msg}
	if stmt != nil {
		e.Node = stmt.keyword
		if stmt.hasArg {
			e.Node += " " + stmt.arg
		}
		e.Line, e.Column = stmt.line, stmt.column
	}
	return e
}

func unsupported(feature string, stmt *statement) error {
	return &yerrors.UnsupportedFeatureError{Feature: feature, Line: stmt.line, Column: stmt.column}
}
