package yang_test

import (
	"testing"

	"github.com/jacoelho/yang"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    yang.Options
		wantErr bool
	}{
		{name: "zero value", opts: yang.Options{}},
		{name: "defaults", opts: yang.NewOptions().WithMaxDepth(0).WithSchemaMaxNesting(0)},
		{name: "explicit limits", opts: yang.NewOptions().WithMaxDepth(8).WithSchemaMaxNodes(100)},
		{name: "negative depth", opts: yang.NewOptions().WithMaxDepth(-1), wantErr: true},
		{name: "negative nesting", opts: yang.NewOptions().WithSchemaMaxNesting(-2), wantErr: true},
		{name: "negative nodes", opts: yang.NewOptions().WithSchemaMaxNodes(-3), wantErr: true},
		{name: "bad policy", opts: yang.NewOptions().WithUnknownNodes(yang.UnknownNodePolicy(9)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestOptionsAreValues(t *testing.T) {
	base := yang.NewOptions()
	_ = base.WithMaxDepth(-1)
	if err := base.Validate(); err != nil {
		t.Fatalf("With* must not modify the receiver: %v", err)
	}
}

func TestSchemaMaxNodes(t *testing.T) {
	_, err := yang.Compile(topSchema, yang.NewOptions().WithSchemaMaxNodes(2))
	if err == nil {
		t.Fatalf("Compile() error = nil, want node limit")
	}
	res := yang.ValidateWithOptions(topSchema, `<top/>`, yang.NewOptions().WithSchemaMaxNodes(2))
	if res.Outcome != yang.Internal {
		t.Fatalf("Outcome = %s, want internal", res.Outcome)
	}
}

func TestParseUnknownNodePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want yang.UnknownNodePolicy
	}{
		{in: "", want: yang.UnknownNodeError},
		{in: "error", want: yang.UnknownNodeError},
		{in: "warn", want: yang.UnknownNodeWarn},
		{in: "ignore", want: yang.UnknownNodeIgnore},
	}
	for _, tt := range tests {
		got, err := yang.ParseUnknownNodePolicy(tt.in)
		if err != nil {
			t.Fatalf("ParseUnknownNodePolicy(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseUnknownNodePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := yang.ParseUnknownNodePolicy("strict"); err == nil {
		t.Fatalf("ParseUnknownNodePolicy(strict) error = nil")
	}
	if got := yang.UnknownNodeWarn.String(); got != "warn" {
		t.Fatalf("String() = %q", got)
	}
}
