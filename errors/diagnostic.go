package errors

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the rule a diagnostic reports on.
type ErrorCode string

const (
	// ErrUnknownNode indicates a data node with no schema definition at its position.
	ErrUnknownNode ErrorCode = "unknown-node"
	// ErrInvalidValue indicates a leaf value that does not fit its type.
	ErrInvalidValue ErrorCode = "invalid-value"
	// ErrInvalidEnumValue indicates a value outside the enumeration literal set.
	ErrInvalidEnumValue ErrorCode = "invalid-enum-value"
	// ErrDuplicateKey indicates two list instances with identical key values.
	ErrDuplicateKey ErrorCode = "duplicate-key"
	// ErrMissingMandatory indicates a mandatory node with no instance.
	ErrMissingMandatory ErrorCode = "missing-mandatory-node"
	// ErrTooManyInstances indicates a leaf or container that appears more than once.
	ErrTooManyInstances ErrorCode = "too-many-instances"
	// ErrTooFewElements indicates a list or leaf-list below min-elements.
	ErrTooFewElements ErrorCode = "too-few-elements"
	// ErrTooManyElements indicates a list or leaf-list above max-elements.
	ErrTooManyElements ErrorCode = "too-many-elements"
	// ErrDuplicateLeafListValue indicates a repeated leaf-list value.
	ErrDuplicateLeafListValue ErrorCode = "duplicate-leaf-list-value"
	// ErrChoiceConflict indicates data from more than one case of a choice.
	ErrChoiceConflict ErrorCode = "conflicting-choice-cases"
	// ErrMissingLeafrefTarget indicates a leafref value with no matching target instance.
	ErrMissingLeafrefTarget ErrorCode = "missing-leafref-target"
	// ErrUnexpectedText indicates character data inside a container or list entry.
	ErrUnexpectedText ErrorCode = "unexpected-text"

	// ErrSchemaLoad summarizes a schema that failed to load.
	ErrSchemaLoad ErrorCode = "schema-load"
	// ErrDocumentLoad summarizes a document that failed to load.
	ErrDocumentLoad ErrorCode = "document-load"
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic describes one place where a document does not conform to its
// schema. Path is the slash-joined sequence of node names from the document
// root to the offending node.
//
//nolint:errname // public API name uses the validation domain term.
type Diagnostic struct {
	Code     string
	Message  string
	Path     string
	Severity Severity
	Line     int
	Column   int
}

// DiagnosticList is an error that wraps one or more diagnostics in the order
// they were found.
type DiagnosticList []Diagnostic //nolint:errname // public API name.

// Error returns a compact summary of the diagnostics.
func (l DiagnosticList) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// HasErrors reports whether any diagnostic has error severity.
func (l DiagnosticList) HasErrors() bool {
	for i := range l {
		if l[i].IsError() {
			return true
		}
	}
	return false
}

// IsError reports whether the diagnostic fails validation.
func (d *Diagnostic) IsError() bool {
	return d != nil && d.Severity != SeverityWarning
}

// Error formats the diagnostic for display, including code, message, and context.
func (d *Diagnostic) Error() string {
	if d == nil {
		return "diagnostic <nil>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", d.Code, d.Message))
	if d.Path != "" {
		b.WriteString(fmt.Sprintf(" at %s", d.Path))
	}
	if d.Line > 0 && d.Column > 0 {
		if d.Path == "" {
			b.WriteString(fmt.Sprintf(" at line %d, column %d", d.Line, d.Column))
		} else {
			b.WriteString(fmt.Sprintf(" (line %d, column %d)", d.Line, d.Column))
		}
	}
	if d.Severity == SeverityWarning {
		b.WriteString(" [warning]")
	}
	return b.String()
}

// NewDiagnostic builds an error-severity Diagnostic.
func NewDiagnostic(code ErrorCode, msg, path string) Diagnostic {
	return Diagnostic{Code: string(code), Message: msg, Path: path, Severity: SeverityError}
}
