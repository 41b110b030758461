package schema

import "math/big"

// Violation classifies why a lexical value does not fit a type.
type Violation uint8

const (
	ValueOK Violation = iota
	ValueInvalid
	ValueNotInEnum
)

// ParseInteger parses a signed decimal integer without surrounding whitespace.
func ParseInteger(lexical string) (*big.Int, bool) {
	if lexical == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(lexical, 10)
	return v, ok
}

// CheckValue checks lexical against the type. Leafref values always pass;
// they are checked against the target's instances by the validator.
func (t *Type) CheckValue(lexical string) Violation {
	switch t.Base {
	case BaseInteger:
		v, ok := ParseInteger(lexical)
		if !ok || !t.InRange(v) {
			return ValueInvalid
		}
	case BaseBoolean:
		if lexical != "true" && lexical != "false" {
			return ValueInvalid
		}
	case BaseEnumeration:
		if !t.HasEnum(lexical) {
			return ValueNotInEnum
		}
	case BaseEmpty:
		if lexical != "" {
			return ValueInvalid
		}
	}
	return ValueOK
}
