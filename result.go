package yang

import (
	"fmt"
	"strings"

	"github.com/jacoelho/yang/errors"
)

// SuccessMessage is the text of a successful Result.
const SuccessMessage = "Validation successful"

// Outcome classifies a Result.
type Outcome uint8

const (
	// Success means the document conforms; warnings may still be present.
	Success Outcome = iota
	// Failure means at least one error-severity diagnostic was found.
	Failure
	// LoadFailure means the schema or the document could not be loaded.
	LoadFailure
	// Internal means a broken invariant or a tripped resource guard.
	Internal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case LoadFailure:
		return "load-failure"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Result is the single value produced by every validation call.
type Result struct {
	Outcome     Outcome
	Diagnostics []errors.Diagnostic
	// Err is the load error for LoadFailure and the internal error for Internal.
	Err error
}

// Valid reports whether the document conforms to the schema.
func (r Result) Valid() bool {
	return r.Outcome == Success
}

// String renders the result as text: the success message, or one line per
// diagnostic in the form "message at path".
func (r Result) String() string {
	switch r.Outcome {
	case Success:
		return SuccessMessage
	case Internal:
		if r.Err == nil {
			return "internal error"
		}
		return r.Err.Error()
	}
	lines := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Path == "" {
			lines = append(lines, d.Message)
			continue
		}
		lines = append(lines, d.Message+" at "+d.Path)
	}
	return strings.Join(lines, "\n")
}

// LoadError reports schema or document text that could not be loaded.
type LoadError struct {
	Source string // "schema" or "document"
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
