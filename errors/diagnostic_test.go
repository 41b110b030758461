package errors

import (
	"fmt"
	"testing"
)

func TestDiagnosticErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		want string
		d    Diagnostic
	}{
		{
			name: "message only",
			d:    Diagnostic{Code: "unknown-node", Message: "unknown node"},
			want: "[unknown-node] unknown node",
		},
		{
			name: "with path",
			d:    Diagnostic{Code: "invalid-value", Message: "invalid value", Path: "top/age"},
			want: "[invalid-value] invalid value at top/age",
		},
		{
			name: "with position only",
			d:    Diagnostic{Code: "document-load", Message: "unexpected EOF", Line: 3, Column: 7},
			want: "[document-load] unexpected EOF at line 3, column 7",
		},
		{
			name: "with path and position",
			d:    Diagnostic{Code: "invalid-value", Message: "invalid value", Path: "top/age", Line: 1, Column: 21},
			want: "[invalid-value] invalid value at top/age (line 1, column 21)",
		},
		{
			name: "warning",
			d:    Diagnostic{Code: "unknown-node", Message: "unknown node", Path: "top/x", Severity: SeverityWarning},
			want: "[unknown-node] unknown node at top/x [warning]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDiagnostic(t *testing.T) {
	d := NewDiagnostic(ErrMissingMandatory, "missing mandatory node", "top/name")
	if d.Code != string(ErrMissingMandatory) {
		t.Fatalf("Code = %q, want %q", d.Code, ErrMissingMandatory)
	}
	if d.Severity != SeverityError {
		t.Fatalf("Severity = %q, want %q", d.Severity, SeverityError)
	}
	if !d.IsError() {
		t.Fatal("IsError() = false, want true")
	}
}

func TestDiagnosticListError(t *testing.T) {
	one := Diagnostic{Code: "unknown-node", Message: "unknown node"}
	two := Diagnostic{Code: "duplicate-key", Message: "duplicate key"}

	tests := []struct {
		name string
		want string
		list DiagnosticList
	}{
		{name: "empty", list: nil, want: "no diagnostics"},
		{name: "single", list: DiagnosticList{one}, want: "[unknown-node] unknown node"},
		{name: "multiple", list: DiagnosticList{one, two}, want: "[unknown-node] unknown node (and 1 more)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.list.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiagnosticListHasErrors(t *testing.T) {
	warn := Diagnostic{Code: "unknown-node", Severity: SeverityWarning}
	if (DiagnosticList{warn}).HasErrors() {
		t.Fatal("warnings only: HasErrors() = true, want false")
	}
	if !(DiagnosticList{warn, NewDiagnostic(ErrInvalidValue, "invalid value", "a")}).HasErrors() {
		t.Fatal("mixed: HasErrors() = false, want true")
	}
}

func TestLoadErrorClassification(t *testing.T) {
	syn := &SyntaxError{Source: "schema", Message: "unexpected '}'", Line: 4, Column: 2}
	line, col := Position(fmt.Errorf("compile schema: %w", syn))
	if line != 4 || col != 2 {
		t.Fatalf("Position() = %d:%d, want 4:2", line, col)
	}
	if got, want := syn.Error(), "schema syntax error at line 4, column 2: unexpected '}'"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	internal := NewInternalf("max depth %d exceeded", 8)
	if !IsInternal(fmt.Errorf("validate: %w", internal)) {
		t.Fatal("IsInternal() = false, want true")
	}
	if IsInternal(syn) {
		t.Fatal("IsInternal(syntax) = true, want false")
	}
}
