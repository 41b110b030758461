package errors

import (
	"errors"
	"fmt"
)

// SyntaxError reports text that could not be tokenized or parsed.
type SyntaxError struct {
	Source  string // "schema" or "document"
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s syntax error at line %d, column %d: %s", e.Source, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s syntax error: %s", e.Source, e.Message)
}

// SemanticError reports a schema that parses but defines an invalid model.
type SemanticError struct {
	Node    string
	Message string
	Line    int
	Column  int
}

func (e *SemanticError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("schema error: %s", e.Message)
	}
	return fmt.Sprintf("schema error in %s: %s", e.Node, e.Message)
}

// UnsupportedFeatureError reports a schema construct outside the supported subset.
type UnsupportedFeatureError struct {
	Feature string
	Line    int
	Column  int
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature %q at line %d, column %d", e.Feature, e.Line, e.Column)
}

// InternalError reports a broken invariant or a tripped resource guard. It is
// never a defect of the validated document.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Message, e.Err)
	}
	return "internal error: " + e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// NewInternalf formats an InternalError.
func NewInternalf(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// IsInternal reports whether err is, or wraps, an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// Position returns the line and column carried by a load error, if any.
func Position(err error) (line, column int) {
	var syn *SyntaxError
	if errors.As(err, &syn) {
		return syn.Line, syn.Column
	}
	var sem *SemanticError
	if errors.As(err, &sem) {
		return sem.Line, sem.Column
	}
	var unsup *UnsupportedFeatureError
	if errors.As(err, &unsup) {
		return unsup.Line, unsup.Column
	}
	return 0, 0
}
