package yang

import (
	"fmt"

	"github.com/jacoelho/yang/internal/validate"
)

// UnknownNodePolicy controls how data nodes without a schema definition are handled.
type UnknownNodePolicy int

const (
	// UnknownNodeError reports unknown nodes as errors, failing validation.
	UnknownNodeError UnknownNodePolicy = iota
	// UnknownNodeWarn reports unknown nodes as warnings.
	UnknownNodeWarn
	// UnknownNodeIgnore skips unknown subtrees without a diagnostic.
	UnknownNodeIgnore
)

// ParseUnknownNodePolicy parses "error", "warn" or "ignore".
func ParseUnknownNodePolicy(s string) (UnknownNodePolicy, error) {
	p, err := validate.ParseUnknownPolicy(s)
	if err != nil {
		return UnknownNodeError, err
	}
	switch p {
	case validate.UnknownWarn:
		return UnknownNodeWarn, nil
	case validate.UnknownIgnore:
		return UnknownNodeIgnore, nil
	default:
		return UnknownNodeError, nil
	}
}

func (p UnknownNodePolicy) String() string {
	v, err := p.toValidator()
	if err != nil {
		return fmt.Sprintf("UnknownNodePolicy(%d)", int(p))
	}
	return v.String()
}

func (p UnknownNodePolicy) toValidator() (validate.UnknownPolicy, error) {
	switch p {
	case UnknownNodeError:
		return validate.UnknownError, nil
	case UnknownNodeWarn:
		return validate.UnknownWarn, nil
	case UnknownNodeIgnore:
		return validate.UnknownIgnore, nil
	default:
		return validate.UnknownError, fmt.Errorf("invalid unknown node policy %d", int(p))
	}
}
