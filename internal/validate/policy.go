package validate

import "fmt"

// UnknownPolicy decides how data nodes without a schema definition are reported.
type UnknownPolicy uint8

const (
	// UnknownError reports unknown nodes as error diagnostics.
	UnknownError UnknownPolicy = iota
	// UnknownWarn reports unknown nodes as warnings, which do not fail validation.
	UnknownWarn
	// UnknownIgnore skips unknown subtrees silently.
	UnknownIgnore
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownError:
		return "error"
	case UnknownWarn:
		return "warn"
	case UnknownIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParseUnknownPolicy parses "error", "warn" or "ignore"; the empty string
// selects UnknownError.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch s {
	case "", "error":
		return UnknownError, nil
	case "warn", "warning":
		return UnknownWarn, nil
	case "ignore":
		return UnknownIgnore, nil
	default:
		return UnknownError, fmt.Errorf("unknown node policy %q: want error, warn or ignore", s)
	}
}
